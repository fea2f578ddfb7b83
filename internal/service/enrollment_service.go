package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lshigami/Classtrail/internal/dto"
	"github.com/lshigami/Classtrail/internal/model"
	"github.com/lshigami/Classtrail/internal/repository"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/iter"
)

type EnrollmentService interface {
	Join(ctx context.Context, studentID uuid.UUID, rawCode string) (*dto.ClassroomResponse, error)
	ListForStudent(ctx context.Context, studentID uuid.UUID) ([]dto.StudentClassroomResponse, error)
	ListRoster(ctx context.Context, classroomID, requesterID uuid.UUID) ([]dto.RosterEntryResponse, error)
	Remove(ctx context.Context, classroomID, studentID, requesterID uuid.UUID) error
	EnsureDefaultEnrollment(ctx context.Context, studentID uuid.UUID) (*dto.ClassroomResponse, error)
}

type enrollmentService struct {
	classroomRepo  repository.ClassroomRepository
	enrollmentRepo repository.EnrollmentRepository
	trailRepo      repository.TrailRepository
	progress       ProgressService
	identity       IdentityProvider
	now            func() time.Time
}

func NewEnrollmentService(
	classroomRepo repository.ClassroomRepository,
	enrollmentRepo repository.EnrollmentRepository,
	trailRepo repository.TrailRepository,
	progress ProgressService,
	identity IdentityProvider,
) EnrollmentService {
	return &enrollmentService{
		classroomRepo:  classroomRepo,
		enrollmentRepo: enrollmentRepo,
		trailRepo:      trailRepo,
		progress:       progress,
		identity:       identity,
		now:            time.Now,
	}
}

func (s *enrollmentService) Join(ctx context.Context, studentID uuid.UUID, rawCode string) (*dto.ClassroomResponse, error) {
	code, err := NormalizeAccessCode(rawCode)
	if err != nil {
		return nil, err
	}
	classroom, err := s.classroomRepo.FindByAccessCode(ctx, code)
	if err != nil {
		return nil, notFoundAs(err, ErrClassroomNotFound)
	}
	if !classroom.Active {
		return nil, ErrClassroomNotFound
	}
	if err := s.enroll(ctx, classroom, studentID); err != nil {
		return nil, err
	}
	return toClassroomResponse(classroom), nil
}

func (s *enrollmentService) EnsureDefaultEnrollment(ctx context.Context, studentID uuid.UUID) (*dto.ClassroomResponse, error) {
	classroom, err := s.classroomRepo.FindDefault(ctx)
	if err != nil {
		return nil, notFoundAs(err, ErrDefaultClassroomMissing)
	}
	if !classroom.Active {
		return nil, ErrDefaultClassroomMissing
	}
	if err := s.enroll(ctx, classroom, studentID); err != nil {
		return nil, err
	}
	return toClassroomResponse(classroom), nil
}

// enroll creates, reactivates or rejects the enrollment of studentID in classroom.
func (s *enrollmentService) enroll(ctx context.Context, classroom *model.Classroom, studentID uuid.UUID) error {
	existing, err := s.enrollmentRepo.FindByClassroomAndStudent(ctx, classroom.ID, studentID)
	switch {
	case err == nil && existing.Active:
		return ErrAlreadyEnrolled
	case err == nil:
		existing.Active = true
		existing.EnrolledAt = s.now()
		if err := s.enrollmentRepo.Update(ctx, existing); err != nil {
			log.Error().Err(err).Str("enrollmentID", existing.ID.String()).Msg("enroll: failed to reactivate enrollment")
			return err
		}
		log.Info().Str("classroomID", classroom.ID.String()).Str("studentID", studentID.String()).Msg("Enrollment reactivated")
		return nil
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	enrollment := model.Enrollment{
		ClassroomID: classroom.ID,
		StudentID:   studentID,
		EnrolledAt:  s.now(),
		Active:      true,
	}
	if err := s.enrollmentRepo.Create(ctx, &enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race against an identical join.
			return ErrAlreadyEnrolled
		}
		log.Error().Err(err).Str("classroomID", classroom.ID.String()).Msg("enroll: failed to create enrollment")
		return err
	}
	log.Info().Str("classroomID", classroom.ID.String()).Str("studentID", studentID.String()).Msg("Student enrolled")
	return nil
}

func (s *enrollmentService) ListForStudent(ctx context.Context, studentID uuid.UUID) ([]dto.StudentClassroomResponse, error) {
	enrollments, err := s.enrollmentRepo.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.StudentClassroomResponse, 0, len(enrollments))
	for i := range enrollments {
		e := &enrollments[i]
		summary, err := s.progress.Summarize(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		resp = append(resp, dto.StudentClassroomResponse{
			EnrollmentID:     e.ID,
			EnrolledAt:       e.EnrolledAt,
			Classroom:        *toClassroomResponse(&e.Classroom),
			CompletedLessons: summary.CompletedLessons,
			TotalXP:          summary.TotalXP,
		})
	}
	return resp, nil
}

func (s *enrollmentService) ListRoster(ctx context.Context, classroomID, requesterID uuid.UUID) ([]dto.RosterEntryResponse, error) {
	if _, err := s.ownedClassroom(ctx, classroomID, requesterID); err != nil {
		return nil, err
	}
	enrollments, err := s.enrollmentRepo.ListActiveByClassroom(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	totalLessons, err := s.trailRepo.CountActiveLessons(ctx, classroomID)
	if err != nil {
		return nil, err
	}

	type rosterRow struct {
		entry dto.RosterEntryResponse
		err   error
	}
	rows := iter.Map(enrollments, func(e *model.Enrollment) rosterRow {
		summary, err := s.progress.Summarize(ctx, e.ID)
		if err != nil {
			return rosterRow{err: err}
		}
		profile, resolved := s.lookupProfile(ctx, e.StudentID)
		return rosterRow{entry: dto.RosterEntryResponse{
			EnrollmentID:     e.ID,
			StudentID:        e.StudentID,
			Name:             profile.Name,
			Email:            profile.Email,
			EnrolledAt:       e.EnrolledAt,
			CompletedLessons: summary.CompletedLessons,
			TotalLessons:     totalLessons,
			Percent:          percent(summary.CompletedLessons, totalLessons),
			TotalXP:          summary.TotalXP,
			ProfileResolved:  resolved,
		}}
	})

	resp := make([]dto.RosterEntryResponse, 0, len(rows))
	for _, row := range rows {
		if row.err != nil {
			return nil, row.err
		}
		resp = append(resp, row.entry)
	}
	return resp, nil
}

// lookupProfile never fails: identity errors degrade to a placeholder.
func (s *enrollmentService) lookupProfile(ctx context.Context, studentID uuid.UUID) (Profile, bool) {
	profile, err := s.identity.GetProfile(ctx, studentID)
	if err != nil || profile == nil {
		log.Warn().Err(err).Str("studentID", studentID.String()).Msg("Roster: profile lookup failed, using placeholder")
		return placeholderProfile(), false
	}
	return *profile, true
}

func (s *enrollmentService) Remove(ctx context.Context, classroomID, studentID, requesterID uuid.UUID) error {
	if _, err := s.ownedClassroom(ctx, classroomID, requesterID); err != nil {
		return err
	}
	enrollment, err := s.enrollmentRepo.FindByClassroomAndStudent(ctx, classroomID, studentID)
	if err != nil {
		return notFoundAs(err, ErrNotEnrolled)
	}
	if !enrollment.Active {
		return ErrNotEnrolled
	}
	enrollment.Active = false
	if err := s.enrollmentRepo.Update(ctx, enrollment); err != nil {
		log.Error().Err(err).Str("enrollmentID", enrollment.ID.String()).Msg("Remove: failed to deactivate enrollment")
		return err
	}
	log.Info().Str("classroomID", classroomID.String()).Str("studentID", studentID.String()).Msg("Student removed from classroom")
	return nil
}

func (s *enrollmentService) ownedClassroom(ctx context.Context, classroomID, requesterID uuid.UUID) (*model.Classroom, error) {
	classroom, err := s.classroomRepo.FindByID(ctx, classroomID)
	if err != nil {
		return nil, notFoundAs(err, ErrClassroomNotFound)
	}
	if classroom.OwnerID != requesterID {
		return nil, ErrClassroomNotFound
	}
	return classroom, nil
}
