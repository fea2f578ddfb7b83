package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/lshigami/Classtrail/internal/dto"
	"github.com/lshigami/Classtrail/internal/model"
	"github.com/lshigami/Classtrail/internal/repository"
	"github.com/rs/zerolog/log"
)

type ProgressService interface {
	GetTrail(ctx context.Context, classroomID uuid.UUID) (*dto.TrailResponse, error)
	GetStudentProgress(ctx context.Context, classroomID, studentID uuid.UUID) (*dto.StudentProgressResponse, error)
	RecordProgress(ctx context.Context, classroomID, lessonID, studentID uuid.UUID, req dto.RecordProgressRequest) (*dto.RecordProgressResponse, error)
	Summarize(ctx context.Context, enrollmentID uuid.UUID) (repository.ProgressSummary, error)
}

type progressService struct {
	classroomRepo  repository.ClassroomRepository
	enrollmentRepo repository.EnrollmentRepository
	trailRepo      repository.TrailRepository
	progressRepo   repository.ProgressRepository
	now            func() time.Time
}

func NewProgressService(
	classroomRepo repository.ClassroomRepository,
	enrollmentRepo repository.EnrollmentRepository,
	trailRepo repository.TrailRepository,
	progressRepo repository.ProgressRepository,
) ProgressService {
	return &progressService{
		classroomRepo:  classroomRepo,
		enrollmentRepo: enrollmentRepo,
		trailRepo:      trailRepo,
		progressRepo:   progressRepo,
		now:            time.Now,
	}
}

func (s *progressService) GetTrail(ctx context.Context, classroomID uuid.UUID) (*dto.TrailResponse, error) {
	if _, err := s.classroomRepo.FindByID(ctx, classroomID); err != nil {
		return nil, notFoundAs(err, ErrClassroomNotFound)
	}
	modules, err := s.trailRepo.ListActiveModules(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	resp := &dto.TrailResponse{ClassroomID: classroomID, Modules: make([]dto.TrailModuleResponse, 0, len(modules))}
	for i := range modules {
		m := &modules[i]
		view := dto.TrailModuleResponse{
			ModuleResponse: *toModuleResponse(m),
			Lessons:        make([]dto.TrailLessonResponse, 0, len(m.Lessons)),
		}
		for j := range m.Lessons {
			view.Lessons = append(view.Lessons, toTrailLesson(&m.Lessons[j]))
		}
		resp.Modules = append(resp.Modules, view)
	}
	return resp, nil
}

func (s *progressService) GetStudentProgress(ctx context.Context, classroomID, studentID uuid.UUID) (*dto.StudentProgressResponse, error) {
	enrollment, err := s.enrollmentRepo.FindActive(ctx, classroomID, studentID)
	if err != nil {
		return nil, notFoundAs(err, ErrNotEnrolled)
	}
	modules, err := s.trailRepo.ListActiveModules(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	records, err := s.progressRepo.ListByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return nil, err
	}
	byLesson := make(map[uuid.UUID]model.LessonProgress, len(records))
	for _, p := range records {
		byLesson[p.LessonID] = p
	}

	resp := &dto.StudentProgressResponse{
		ClassroomID: classroomID,
		StudentID:   studentID,
		Modules:     make([]dto.ModuleProgressView, 0, len(modules)),
	}
	for i := range modules {
		m := &modules[i]
		moduleView := dto.ModuleProgressView{
			ModuleResponse: *toModuleResponse(m),
			Completed:      true,
			Lessons:        make([]dto.LessonProgressView, 0, len(m.Lessons)),
		}
		for j := range m.Lessons {
			lesson := &m.Lessons[j]
			view := dto.LessonProgressView{TrailLessonResponse: toTrailLesson(lesson)}
			if p, ok := byLesson[lesson.ID]; ok {
				view.Completed = p.Completed
				view.Score = p.Score
				view.XPEarned = p.XPEarned
				view.Attempts = p.Attempts
				view.CompletedAt = p.CompletedAt
			}
			resp.TotalLessons++
			if view.Completed {
				resp.CompletedLessons++
				resp.TotalXP += view.XPEarned
			} else {
				moduleView.Completed = false
			}
			moduleView.Lessons = append(moduleView.Lessons, view)
		}
		resp.Modules = append(resp.Modules, moduleView)
	}
	resp.Percent = percent(resp.CompletedLessons, resp.TotalLessons)
	return resp, nil
}

// RecordProgress recomputes the lesson's XP from the latest score; resubmitting replaces XP instead of adding to it.
func (s *progressService) RecordProgress(ctx context.Context, classroomID, lessonID, studentID uuid.UUID, req dto.RecordProgressRequest) (*dto.RecordProgressResponse, error) {
	if req.Score < 0 || req.Score > 100 {
		return nil, validationError("score", "must be between 0 and 100")
	}
	enrollment, err := s.enrollmentRepo.FindActive(ctx, classroomID, studentID)
	if err != nil {
		return nil, notFoundAs(err, ErrNotEnrolled)
	}
	lesson, err := s.trailRepo.FindLesson(ctx, lessonID)
	if err != nil {
		return nil, notFoundAs(err, ErrLessonNotFound)
	}
	module, err := s.trailRepo.FindModule(ctx, lesson.ModuleID)
	if err != nil {
		return nil, notFoundAs(err, ErrLessonNotFound)
	}
	if !module.Active || module.ClassroomID != classroomID {
		return nil, ErrLessonNotFound
	}

	xp := LessonXP(req.Completed, req.Score, lesson.XPReward)
	update := repository.ProgressUpdate{
		EnrollmentID: enrollment.ID,
		LessonID:     lesson.ID,
		Completed:    req.Completed,
		Score:        req.Score,
		XPEarned:     xp,
		At:           s.now(),
	}
	progress, err := s.progressRepo.Upsert(ctx, update)
	if errors.Is(err, repository.ErrDuplicate) {
		// a concurrent first submission created the row; this one becomes an update
		progress, err = s.progressRepo.Upsert(ctx, update)
	}
	if err != nil {
		log.Error().Err(err).Str("lessonID", lessonID.String()).Str("studentID", studentID.String()).Msg("RecordProgress: upsert failed")
		return nil, err
	}

	var progressResp dto.LessonProgressResponse
	copier.Copy(&progressResp, progress)
	return &dto.RecordProgressResponse{Progress: progressResp, XPAwarded: xp}, nil
}

func (s *progressService) Summarize(ctx context.Context, enrollmentID uuid.UUID) (repository.ProgressSummary, error) {
	return s.progressRepo.SummarizeEnrollment(ctx, enrollmentID)
}

func toTrailLesson(lesson *model.TrailLesson) dto.TrailLessonResponse {
	view := dto.TrailLessonResponse{LessonResponse: *toLessonResponse(lesson)}
	copier.Copy(&view.Exercise, &lesson.Exercise)
	return view
}
