package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/lshigami/Classtrail/internal/dto"
	"github.com/lshigami/Classtrail/internal/model"
	"github.com/lshigami/Classtrail/internal/repository"
	"github.com/rs/zerolog/log"
)

// createClassroomTries bounds retries when a freshly allocated code loses an insert race.
const createClassroomTries = 3

type ClassroomService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req dto.CreateClassroomRequest) (*dto.ClassroomResponse, error)
	// Get hides classrooms owned by someone else when requesterID is set.
	Get(ctx context.Context, id uuid.UUID, requesterID *uuid.UUID) (*dto.ClassroomResponse, error)
	Update(ctx context.Context, id uuid.UUID, actor Actor, req dto.UpdateClassroomRequest) (*dto.ClassroomResponse, error)
	// Deactivate skips the ownership check when actor is nil.
	Deactivate(ctx context.Context, id uuid.UUID, actor *Actor) error
	SetDefault(ctx context.Context, id uuid.UUID) (*dto.ClassroomResponse, error)
	GetDefault(ctx context.Context) (*dto.ClassroomResponse, error)
	ListOwned(ctx context.Context, ownerID uuid.UUID) ([]dto.OwnedClassroomResponse, error)

	LinkExercise(ctx context.Context, classroomID uuid.UUID, actor Actor, req dto.LinkExerciseRequest) (*dto.ClassroomExerciseResponse, error)
	ListExercises(ctx context.Context, classroomID uuid.UUID) ([]dto.ClassroomExerciseResponse, error)
	UnlinkExercise(ctx context.Context, classroomID uuid.UUID, actor Actor, exerciseID uint) error
}

type classroomService struct {
	classroomRepo repository.ClassroomRepository
	catalogRepo   repository.CatalogRepository
	codes         CodeGenerator
}

func NewClassroomService(
	classroomRepo repository.ClassroomRepository,
	catalogRepo repository.CatalogRepository,
	codes CodeGenerator,
) ClassroomService {
	return &classroomService{
		classroomRepo: classroomRepo,
		catalogRepo:   catalogRepo,
		codes:         codes,
	}
}

func (s *classroomService) Create(ctx context.Context, ownerID uuid.UUID, req dto.CreateClassroomRequest) (*dto.ClassroomResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("name", "is required")
	}

	for try := 1; ; try++ {
		code, err := s.codes.AllocateUnique(ctx)
		if err != nil {
			return nil, err
		}
		classroom := model.Classroom{
			Name:        name,
			Description: strings.TrimSpace(req.Description),
			AccessCode:  code,
			OwnerID:     ownerID,
			Active:      true,
		}
		err = s.classroomRepo.Create(ctx, &classroom)
		if errors.Is(err, repository.ErrDuplicate) && try < createClassroomTries {
			log.Warn().Str("code", code).Int("try", try).Msg("Create: access code taken concurrently, retrying")
			continue
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCodeExhaustion
		}
		if err != nil {
			log.Error().Err(err).Str("ownerID", ownerID.String()).Msg("Create: failed to persist classroom")
			return nil, err
		}
		log.Info().Str("classroomID", classroom.ID.String()).Str("ownerID", ownerID.String()).Msg("Classroom created")
		return toClassroomResponse(&classroom), nil
	}
}

func (s *classroomService) Get(ctx context.Context, id uuid.UUID, requesterID *uuid.UUID) (*dto.ClassroomResponse, error) {
	classroom, err := s.classroomRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrClassroomNotFound)
	}
	if requesterID != nil && classroom.OwnerID != *requesterID {
		return nil, ErrClassroomNotFound
	}
	return toClassroomResponse(classroom), nil
}

func (s *classroomService) Update(ctx context.Context, id uuid.UUID, actor Actor, req dto.UpdateClassroomRequest) (*dto.ClassroomResponse, error) {
	classroom, err := manageableClassroom(ctx, s.classroomRepo, id, actor)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, validationError("name", "must not be empty")
		}
		classroom.Name = name
	}
	if req.Description != nil {
		classroom.Description = strings.TrimSpace(*req.Description)
	}
	if req.Active != nil {
		classroom.Active = *req.Active
	}
	if err := s.classroomRepo.Update(ctx, classroom); err != nil {
		log.Error().Err(err).Str("classroomID", id.String()).Msg("Update: failed to save classroom")
		return nil, err
	}
	return toClassroomResponse(classroom), nil
}

func (s *classroomService) Deactivate(ctx context.Context, id uuid.UUID, actor *Actor) error {
	var (
		classroom *model.Classroom
		err       error
	)
	if actor == nil {
		classroom, err = s.classroomRepo.FindByID(ctx, id)
		err = notFoundAs(err, ErrClassroomNotFound)
	} else {
		classroom, err = manageableClassroom(ctx, s.classroomRepo, id, *actor)
	}
	if err != nil {
		return err
	}
	classroom.Active = false
	if err := s.classroomRepo.Update(ctx, classroom); err != nil {
		log.Error().Err(err).Str("classroomID", id.String()).Msg("Deactivate: failed to save classroom")
		return err
	}
	log.Info().Str("classroomID", id.String()).Bool("adminMode", actor == nil).Msg("Classroom deactivated")
	return nil
}

func (s *classroomService) SetDefault(ctx context.Context, id uuid.UUID) (*dto.ClassroomResponse, error) {
	classroom, err := s.classroomRepo.SetDefault(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrClassroomNotFound)
	}
	log.Info().Str("classroomID", id.String()).Msg("Default classroom changed")
	return toClassroomResponse(classroom), nil
}

func (s *classroomService) GetDefault(ctx context.Context) (*dto.ClassroomResponse, error) {
	classroom, err := s.classroomRepo.FindDefault(ctx)
	if err != nil {
		return nil, notFoundAs(err, ErrDefaultClassroomMissing)
	}
	return toClassroomResponse(classroom), nil
}

func (s *classroomService) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]dto.OwnedClassroomResponse, error) {
	rows, err := s.classroomRepo.ListActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.OwnedClassroomResponse, 0, len(rows))
	for i := range rows {
		resp = append(resp, dto.OwnedClassroomResponse{
			ClassroomResponse: *toClassroomResponse(&rows[i].Classroom),
			StudentCount:      rows[i].StudentCount,
			ModuleCount:       rows[i].ModuleCount,
		})
	}
	return resp, nil
}

func (s *classroomService) LinkExercise(ctx context.Context, classroomID uuid.UUID, actor Actor, req dto.LinkExerciseRequest) (*dto.ClassroomExerciseResponse, error) {
	if _, err := manageableClassroom(ctx, s.classroomRepo, classroomID, actor); err != nil {
		return nil, err
	}
	exercise, err := s.catalogRepo.FindExercise(ctx, req.ExerciseID)
	if err != nil {
		return nil, notFoundAs(err, ErrExerciseNotFound)
	}

	if _, err := s.catalogRepo.FindLink(ctx, classroomID, req.ExerciseID); err == nil {
		return nil, ErrExerciseAlreadyLinked
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	link := model.ClassroomExercise{
		ClassroomID: classroomID,
		ExerciseID:  req.ExerciseID,
		Order:       req.Order,
		Required:    req.Required,
	}
	if err := s.catalogRepo.CreateLink(ctx, &link); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrExerciseAlreadyLinked
		}
		return nil, err
	}
	link.Exercise = *exercise
	resp := toClassroomExerciseResponse(&link)
	return &resp, nil
}

func (s *classroomService) ListExercises(ctx context.Context, classroomID uuid.UUID) ([]dto.ClassroomExerciseResponse, error) {
	if _, err := s.classroomRepo.FindByID(ctx, classroomID); err != nil {
		return nil, notFoundAs(err, ErrClassroomNotFound)
	}
	links, err := s.catalogRepo.ListLinks(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ClassroomExerciseResponse, 0, len(links))
	for i := range links {
		resp = append(resp, toClassroomExerciseResponse(&links[i]))
	}
	return resp, nil
}

func (s *classroomService) UnlinkExercise(ctx context.Context, classroomID uuid.UUID, actor Actor, exerciseID uint) error {
	if _, err := manageableClassroom(ctx, s.classroomRepo, classroomID, actor); err != nil {
		return err
	}
	if err := s.catalogRepo.DeleteLink(ctx, classroomID, exerciseID); err != nil {
		return notFoundAs(err, ErrExerciseLinkNotFound)
	}
	return nil
}

// manageableClassroom loads a classroom and reports it as missing when actor cannot manage it.
func manageableClassroom(ctx context.Context, repo repository.ClassroomRepository, id uuid.UUID, actor Actor) (*model.Classroom, error) {
	classroom, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrClassroomNotFound)
	}
	if !CanManage(actor, classroom) {
		log.Warn().Str("classroomID", id.String()).Str("actorID", actor.UserID.String()).Str("role", actor.Role).
			Msg("Classroom access denied")
		return nil, ErrClassroomNotFound
	}
	return classroom, nil
}

// notFoundAs swaps a repository not-found for the domain error target.
func notFoundAs(err error, target error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return target
	}
	return err
}

func toClassroomResponse(classroom *model.Classroom) *dto.ClassroomResponse {
	var resp dto.ClassroomResponse
	if err := copier.Copy(&resp, classroom); err != nil {
		log.Error().Err(err).Msg("toClassroomResponse: copier failed")
	}
	return &resp
}

func toClassroomExerciseResponse(link *model.ClassroomExercise) dto.ClassroomExerciseResponse {
	var resp dto.ClassroomExerciseResponse
	copier.Copy(&resp, link)
	copier.Copy(&resp.Exercise, &link.Exercise)
	return resp
}
