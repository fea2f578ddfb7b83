package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/lshigami/Classtrail/internal/dto"
	"github.com/lshigami/Classtrail/internal/model"
	"github.com/lshigami/Classtrail/internal/repository"
	"github.com/rs/zerolog/log"
)

type TrailService interface {
	CreateModule(ctx context.Context, classroomID uuid.UUID, actor Actor, req dto.CreateModuleRequest) (*dto.ModuleResponse, error)
	UpdateModule(ctx context.Context, moduleID uuid.UUID, actor Actor, req dto.UpdateModuleRequest) (*dto.ModuleResponse, error)
	// DeleteModule only flags the module inactive; its lessons drop out of every trail view.
	DeleteModule(ctx context.Context, moduleID uuid.UUID, actor Actor) error
	CreateLesson(ctx context.Context, moduleID uuid.UUID, actor Actor, req dto.CreateLessonRequest) (*dto.LessonResponse, error)
	UpdateLesson(ctx context.Context, lessonID uuid.UUID, actor Actor, req dto.UpdateLessonRequest) (*dto.LessonResponse, error)
	DeleteLesson(ctx context.Context, lessonID uuid.UUID, actor Actor) error
}

type trailService struct {
	classroomRepo repository.ClassroomRepository
	trailRepo     repository.TrailRepository
	catalogRepo   repository.CatalogRepository
}

func NewTrailService(
	classroomRepo repository.ClassroomRepository,
	trailRepo repository.TrailRepository,
	catalogRepo repository.CatalogRepository,
) TrailService {
	return &trailService{
		classroomRepo: classroomRepo,
		trailRepo:     trailRepo,
		catalogRepo:   catalogRepo,
	}
}

func (s *trailService) CreateModule(ctx context.Context, classroomID uuid.UUID, actor Actor, req dto.CreateModuleRequest) (*dto.ModuleResponse, error) {
	if _, err := manageableClassroom(ctx, s.classroomRepo, classroomID, actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, validationError("title", "is required")
	}
	if req.XPReward < 0 {
		return nil, validationError("xp_reward", "must not be negative")
	}
	module := model.TrailModule{
		ClassroomID: classroomID,
		Title:       title,
		Description: req.Description,
		Icon:        req.Icon,
		Order:       req.Order,
		XPReward:    req.XPReward,
		Active:      true,
	}
	if err := s.trailRepo.CreateModule(ctx, &module); err != nil {
		log.Error().Err(err).Str("classroomID", classroomID.String()).Msg("CreateModule: failed to persist module")
		return nil, err
	}
	return toModuleResponse(&module), nil
}

func (s *trailService) UpdateModule(ctx context.Context, moduleID uuid.UUID, actor Actor, req dto.UpdateModuleRequest) (*dto.ModuleResponse, error) {
	module, err := s.manageableModule(ctx, moduleID, actor)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, validationError("title", "must not be empty")
		}
		module.Title = title
	}
	if req.Description != nil {
		module.Description = *req.Description
	}
	if req.Icon != nil {
		module.Icon = *req.Icon
	}
	if req.Order != nil {
		module.Order = *req.Order
	}
	if req.XPReward != nil {
		if *req.XPReward < 0 {
			return nil, validationError("xp_reward", "must not be negative")
		}
		module.XPReward = *req.XPReward
	}
	if req.Active != nil {
		module.Active = *req.Active
	}
	if err := s.trailRepo.UpdateModule(ctx, module); err != nil {
		log.Error().Err(err).Str("moduleID", moduleID.String()).Msg("UpdateModule: failed to save module")
		return nil, err
	}
	return toModuleResponse(module), nil
}

func (s *trailService) DeleteModule(ctx context.Context, moduleID uuid.UUID, actor Actor) error {
	module, err := s.manageableModule(ctx, moduleID, actor)
	if err != nil {
		return err
	}
	module.Active = false
	if err := s.trailRepo.UpdateModule(ctx, module); err != nil {
		log.Error().Err(err).Str("moduleID", moduleID.String()).Msg("DeleteModule: failed to deactivate module")
		return err
	}
	return nil
}

func (s *trailService) CreateLesson(ctx context.Context, moduleID uuid.UUID, actor Actor, req dto.CreateLessonRequest) (*dto.LessonResponse, error) {
	module, err := s.manageableModule(ctx, moduleID, actor)
	if err != nil {
		return nil, err
	}
	if !module.Active {
		return nil, ErrModuleNotFound
	}
	if req.XPReward < 0 {
		return nil, validationError("xp_reward", "must not be negative")
	}
	exercise, err := s.catalogRepo.FindExercise(ctx, req.ExerciseID)
	if err != nil {
		return nil, notFoundAs(err, ErrExerciseNotFound)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = exercise.Title
	}
	lesson := model.TrailLesson{
		ModuleID:   moduleID,
		ExerciseID: exercise.ID,
		Title:      title,
		Order:      req.Order,
		XPReward:   req.XPReward,
	}
	if err := s.trailRepo.CreateLesson(ctx, &lesson); err != nil {
		log.Error().Err(err).Str("moduleID", moduleID.String()).Msg("CreateLesson: failed to persist lesson")
		return nil, err
	}
	return toLessonResponse(&lesson), nil
}

func (s *trailService) UpdateLesson(ctx context.Context, lessonID uuid.UUID, actor Actor, req dto.UpdateLessonRequest) (*dto.LessonResponse, error) {
	lesson, err := s.manageableLesson(ctx, lessonID, actor)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		lesson.Title = strings.TrimSpace(*req.Title)
	}
	if req.Order != nil {
		lesson.Order = *req.Order
	}
	if req.XPReward != nil {
		if *req.XPReward < 0 {
			return nil, validationError("xp_reward", "must not be negative")
		}
		lesson.XPReward = *req.XPReward
	}
	if err := s.trailRepo.UpdateLesson(ctx, lesson); err != nil {
		return nil, err
	}
	return toLessonResponse(lesson), nil
}

func (s *trailService) DeleteLesson(ctx context.Context, lessonID uuid.UUID, actor Actor) error {
	if _, err := s.manageableLesson(ctx, lessonID, actor); err != nil {
		return err
	}
	if err := s.trailRepo.DeleteLesson(ctx, lessonID); err != nil {
		return notFoundAs(err, ErrLessonNotFound)
	}
	log.Info().Str("lessonID", lessonID.String()).Msg("Lesson deleted")
	return nil
}

// manageableModule resolves the module's classroom and applies the shared permission rule.
func (s *trailService) manageableModule(ctx context.Context, moduleID uuid.UUID, actor Actor) (*model.TrailModule, error) {
	module, err := s.trailRepo.FindModule(ctx, moduleID)
	if err != nil {
		return nil, notFoundAs(err, ErrModuleNotFound)
	}
	if _, err := manageableClassroom(ctx, s.classroomRepo, module.ClassroomID, actor); err != nil {
		return nil, ErrModuleNotFound
	}
	return module, nil
}

func (s *trailService) manageableLesson(ctx context.Context, lessonID uuid.UUID, actor Actor) (*model.TrailLesson, error) {
	lesson, err := s.trailRepo.FindLesson(ctx, lessonID)
	if err != nil {
		return nil, notFoundAs(err, ErrLessonNotFound)
	}
	if _, err := s.manageableModule(ctx, lesson.ModuleID, actor); err != nil {
		return nil, ErrLessonNotFound
	}
	return lesson, nil
}

func toModuleResponse(module *model.TrailModule) *dto.ModuleResponse {
	var resp dto.ModuleResponse
	copier.Copy(&resp, module)
	return &resp
}

func toLessonResponse(lesson *model.TrailLesson) *dto.LessonResponse {
	var resp dto.LessonResponse
	copier.Copy(&resp, lesson)
	return &resp
}
