package service

import (
	"context"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/lshigami/Classtrail/internal/dto"
	"github.com/lshigami/Classtrail/internal/model"
	"github.com/lshigami/Classtrail/internal/repository"
	"github.com/rs/zerolog/log"
)

type CatalogService interface {
	CreateExercise(ctx context.Context, req dto.ExerciseCreateDTO) (*dto.ExerciseResponseDTO, error)
	ListExercises(ctx context.Context) ([]dto.ExerciseResponseDTO, error)
	GetExercise(ctx context.Context, id uint) (*dto.ExerciseResponseDTO, error)
	// DeleteExercise also removes attempts, answers, evaluations, lessons and links that reference the exercise.
	DeleteExercise(ctx context.Context, id uint) error
}

type catalogService struct {
	catalogRepo repository.CatalogRepository
}

func NewCatalogService(catalogRepo repository.CatalogRepository) CatalogService {
	return &catalogService{catalogRepo: catalogRepo}
}

func (s *catalogService) CreateExercise(ctx context.Context, req dto.ExerciseCreateDTO) (*dto.ExerciseResponseDTO, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, validationError("title", "is required")
	}
	if len(req.Questions) == 0 {
		return nil, validationError("questions", "at least one question is required")
	}

	questions := make([]model.Question, 0, len(req.Questions))
	for i, qDto := range req.Questions {
		switch qDto.Type {
		case model.QuestionTypeCode, model.QuestionTypeText, model.QuestionTypeMultipleChoice:
		default:
			return nil, validationError("questions", "unsupported type "+qDto.Type)
		}
		if strings.TrimSpace(qDto.Statement) == "" {
			return nil, validationError("questions", "statement is required")
		}
		var question model.Question
		copier.Copy(&question, &qDto)
		if question.Title == "" {
			question.Title = title
		}
		log.Debug().Int("position", i+1).Str("type", question.Type).Msg("CreateExercise: question prepared")
		questions = append(questions, question)
	}

	exercise := model.Exercise{Title: title, Description: strings.TrimSpace(req.Description)}
	if err := s.catalogRepo.CreateExercise(ctx, &exercise, questions); err != nil {
		log.Error().Err(err).Msg("Failed to create exercise in database")
		return nil, err
	}
	log.Info().Uint("exerciseID", exercise.ID).Int("questions", len(questions)).Msg("Exercise created")
	return toExerciseResponse(&exercise, exercise.Questions), nil
}

func (s *catalogService) ListExercises(ctx context.Context) ([]dto.ExerciseResponseDTO, error) {
	rows, err := s.catalogRepo.ListExercises(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ExerciseResponseDTO, 0, len(rows))
	for i := range rows {
		item := toExerciseResponse(&rows[i].Exercise, nil)
		item.QuestionCount = rows[i].QuestionCount
		resp = append(resp, *item)
	}
	return resp, nil
}

func (s *catalogService) GetExercise(ctx context.Context, id uint) (*dto.ExerciseResponseDTO, error) {
	exercise, err := s.catalogRepo.FindExercise(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrExerciseNotFound)
	}
	questions, err := s.catalogRepo.QuestionsOf(ctx, id)
	if err != nil {
		return nil, err
	}
	return toExerciseResponse(exercise, questions), nil
}

func (s *catalogService) DeleteExercise(ctx context.Context, id uint) error {
	if err := s.catalogRepo.DeleteExercise(ctx, id); err != nil {
		log.Error().Err(err).Uint("exerciseID", id).Msg("DeleteExercise failed")
		return notFoundAs(err, ErrExerciseNotFound)
	}
	log.Info().Uint("exerciseID", id).Msg("Exercise deleted")
	return nil
}

func toExerciseResponse(exercise *model.Exercise, questions []model.Question) *dto.ExerciseResponseDTO {
	resp := dto.ExerciseResponseDTO{
		ID:            exercise.ID,
		Title:         exercise.Title,
		Description:   exercise.Description,
		QuestionCount: len(questions),
		CreatedAt:     exercise.CreatedAt,
	}
	if len(questions) > 0 {
		resp.Questions = make([]dto.QuestionResponseDTO, 0, len(questions))
		copier.Copy(&resp.Questions, &questions)
	}
	return &resp
}
