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

const AttemptStatusNotStarted = "not_started"

type AttemptService interface {
	// Start is idempotent: an existing attempt is returned unchanged.
	Start(ctx context.Context, studentID uuid.UUID, exerciseID uint) (*dto.AttemptResponse, error)
	// Finalize completes the attempt, creating it already completed when it was never started.
	Finalize(ctx context.Context, studentID uuid.UUID, exerciseID uint) (*dto.FinalizeAttemptResponse, error)
	Status(ctx context.Context, studentID uuid.UUID, exerciseID uint) (*dto.AttemptStatusResponse, error)
	ListForStudent(ctx context.Context, studentID uuid.UUID) ([]dto.AttemptResponse, error)
	ListCompleted(ctx context.Context, studentID uuid.UUID) ([]dto.CompletedAttemptResponse, error)
	Summary(ctx context.Context, studentID uuid.UUID) (*dto.AttemptSummaryResponse, error)
}

type attemptService struct {
	attemptRepo repository.AttemptRepository
	answerRepo  repository.AnswerRepository
	catalogRepo repository.CatalogRepository
	userRepo    repository.UserRepository
	now         func() time.Time
}

func NewAttemptService(
	attemptRepo repository.AttemptRepository,
	answerRepo repository.AnswerRepository,
	catalogRepo repository.CatalogRepository,
	userRepo repository.UserRepository,
) AttemptService {
	return &attemptService{
		attemptRepo: attemptRepo,
		answerRepo:  answerRepo,
		catalogRepo: catalogRepo,
		userRepo:    userRepo,
		now:         time.Now,
	}
}

func (s *attemptService) Start(ctx context.Context, studentID uuid.UUID, exerciseID uint) (*dto.AttemptResponse, error) {
	if err := s.validate(ctx, studentID, exerciseID); err != nil {
		return nil, err
	}
	existing, err := s.attemptRepo.FindByStudentAndExercise(ctx, studentID, exerciseID)
	if err == nil {
		return toAttemptResponse(existing), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	startedAt := s.now()
	attempt := model.ExerciseAttempt{
		StudentID:  studentID,
		ExerciseID: exerciseID,
		StartedAt:  &startedAt,
		Status:     model.AttemptStatusInProgress,
	}
	if err := s.attemptRepo.Create(ctx, &attempt); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			existing, findErr := s.attemptRepo.FindByStudentAndExercise(ctx, studentID, exerciseID)
			if findErr != nil {
				return nil, findErr
			}
			return toAttemptResponse(existing), nil
		}
		log.Error().Err(err).Str("studentID", studentID.String()).Uint("exerciseID", exerciseID).Msg("Start: failed to create attempt")
		return nil, err
	}
	log.Info().Str("attemptID", attempt.ID.String()).Msg("Attempt started")
	return toAttemptResponse(&attempt), nil
}

func (s *attemptService) Finalize(ctx context.Context, studentID uuid.UUID, exerciseID uint) (*dto.FinalizeAttemptResponse, error) {
	if err := s.validate(ctx, studentID, exerciseID); err != nil {
		return nil, err
	}

	attempt, err := s.attemptRepo.FindByStudentAndExercise(ctx, studentID, exerciseID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		attempt, err = s.createCompleted(ctx, studentID, exerciseID)
	case err == nil && attempt.IsCompleted():
		return nil, ErrAttemptAlreadyCompleted
	case err == nil:
		attempt, err = s.complete(ctx, attempt.ID)
	}
	if err != nil {
		return nil, err
	}

	stats, err := s.stats(ctx, attempt)
	if err != nil {
		return nil, err
	}
	log.Info().Str("attemptID", attempt.ID.String()).Int("approved", stats.ApprovedQuestions).Msg("Attempt finalized")
	return &dto.FinalizeAttemptResponse{
		Attempt:        *toAttemptResponse(attempt),
		Stats:          stats,
		ElapsedMinutes: ElapsedMinutes(attempt.StartedAt, attempt.FinishedAt),
	}, nil
}

func (s *attemptService) createCompleted(ctx context.Context, studentID uuid.UUID, exerciseID uint) (*model.ExerciseAttempt, error) {
	at := s.now()
	attempt := model.ExerciseAttempt{
		StudentID:  studentID,
		ExerciseID: exerciseID,
		StartedAt:  &at,
		FinishedAt: &at,
		Status:     model.AttemptStatusCompleted,
	}
	err := s.attemptRepo.Create(ctx, &attempt)
	if errors.Is(err, repository.ErrDuplicate) {
		// Someone started the attempt meanwhile; finish that one instead.
		existing, findErr := s.attemptRepo.FindByStudentAndExercise(ctx, studentID, exerciseID)
		if findErr != nil {
			return nil, findErr
		}
		return s.complete(ctx, existing.ID)
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (s *attemptService) complete(ctx context.Context, attemptID uuid.UUID) (*model.ExerciseAttempt, error) {
	attempt, err := s.attemptRepo.Complete(ctx, attemptID, s.now())
	if errors.Is(err, repository.ErrStateConflict) {
		return nil, ErrAttemptAlreadyCompleted
	}
	if err != nil {
		return nil, notFoundAs(err, ErrAttemptNotFound)
	}
	return attempt, nil
}

func (s *attemptService) Status(ctx context.Context, studentID uuid.UUID, exerciseID uint) (*dto.AttemptStatusResponse, error) {
	attempt, err := s.attemptRepo.FindByStudentAndExercise(ctx, studentID, exerciseID)
	if errors.Is(err, repository.ErrNotFound) {
		return &dto.AttemptStatusResponse{Status: AttemptStatusNotStarted, ExerciseID: exerciseID}, nil
	}
	if err != nil {
		return nil, err
	}
	stats, err := s.stats(ctx, attempt)
	if err != nil {
		return nil, err
	}
	return &dto.AttemptStatusResponse{
		Status:     attempt.Status,
		ExerciseID: exerciseID,
		Attempt:    toAttemptResponse(attempt),
		Stats:      &stats,
	}, nil
}

func (s *attemptService) ListForStudent(ctx context.Context, studentID uuid.UUID) ([]dto.AttemptResponse, error) {
	attempts, err := s.attemptRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.AttemptResponse, 0, len(attempts))
	for i := range attempts {
		resp = append(resp, *toAttemptResponse(&attempts[i]))
	}
	return resp, nil
}

func (s *attemptService) ListCompleted(ctx context.Context, studentID uuid.UUID) ([]dto.CompletedAttemptResponse, error) {
	attempts, err := s.attemptRepo.ListCompletedByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	answersByAttempt, err := s.answersByAttempt(ctx, attempts)
	if err != nil {
		return nil, err
	}

	questionsByExercise := make(map[uint][]model.Question)
	resp := make([]dto.CompletedAttemptResponse, 0, len(attempts))
	for i := range attempts {
		a := &attempts[i]
		questions, ok := questionsByExercise[a.ExerciseID]
		if !ok {
			questions, err = s.catalogRepo.QuestionsOf(ctx, a.ExerciseID)
			if err != nil {
				return nil, err
			}
			questionsByExercise[a.ExerciseID] = questions
		}
		resp = append(resp, dto.CompletedAttemptResponse{
			AttemptResponse: *toAttemptResponse(a),
			Stats:           buildGradingSheet(questions, answersByAttempt[a.ID]).Stats(),
		})
	}
	return resp, nil
}

func (s *attemptService) Summary(ctx context.Context, studentID uuid.UUID) (*dto.AttemptSummaryResponse, error) {
	attempts, err := s.attemptRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	answersByAttempt, err := s.answersByAttempt(ctx, attempts)
	if err != nil {
		return nil, err
	}

	summary := &dto.AttemptSummaryResponse{TotalExercises: len(attempts)}
	for _, a := range attempts {
		if a.IsCompleted() {
			summary.CompletedExercises++
		} else {
			summary.InProgress++
		}
		for _, answer := range answersByAttempt[a.ID] {
			summary.TotalAnswers++
			if IsApproved(answer.Evaluations) {
				summary.ApprovedAnswers++
			}
		}
	}
	summary.CompletionPercent = percent(summary.CompletedExercises, summary.TotalExercises)
	summary.ApprovalPercent = percent(summary.ApprovedAnswers, summary.TotalAnswers)
	return summary, nil
}

func (s *attemptService) answersByAttempt(ctx context.Context, attempts []model.ExerciseAttempt) (map[uuid.UUID][]model.Answer, error) {
	ids := make([]uuid.UUID, 0, len(attempts))
	for _, a := range attempts {
		ids = append(ids, a.ID)
	}
	answers, err := s.answerRepo.ListByAttempts(ctx, ids)
	if err != nil {
		return nil, err
	}
	grouped := make(map[uuid.UUID][]model.Answer, len(attempts))
	for _, answer := range answers {
		grouped[answer.AttemptID] = append(grouped[answer.AttemptID], answer)
	}
	return grouped, nil
}

func (s *attemptService) stats(ctx context.Context, attempt *model.ExerciseAttempt) (dto.AttemptStats, error) {
	questions, err := s.catalogRepo.QuestionsOf(ctx, attempt.ExerciseID)
	if err != nil {
		return dto.AttemptStats{}, err
	}
	answers, err := s.answerRepo.ListByAttempt(ctx, attempt.ID)
	if err != nil {
		return dto.AttemptStats{}, err
	}
	return buildGradingSheet(questions, answers).Stats(), nil
}

func (s *attemptService) validate(ctx context.Context, studentID uuid.UUID, exerciseID uint) error {
	exists, err := s.userRepo.Exists(ctx, studentID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrStudentNotFound
	}
	exists, err = s.catalogRepo.ExerciseExists(ctx, exerciseID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrExerciseNotFound
	}
	return nil
}

func toAttemptResponse(attempt *model.ExerciseAttempt) *dto.AttemptResponse {
	var resp dto.AttemptResponse
	copier.Copy(&resp, attempt)
	resp.Exercise = nil
	if attempt.Exercise.ID != 0 {
		resp.Exercise = &dto.ExerciseSummary{
			ID:          attempt.Exercise.ID,
			Title:       attempt.Exercise.Title,
			Description: attempt.Exercise.Description,
		}
	}
	return &resp
}
