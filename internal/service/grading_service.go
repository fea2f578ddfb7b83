package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/lshigami/Classtrail/internal/dto"
	"github.com/lshigami/Classtrail/internal/model"
	"github.com/lshigami/Classtrail/internal/repository"
	"github.com/rs/zerolog/log"
)

const staleAnswerBatch = 50

type GradingService interface {
	// SubmitAnswer stores the answer and, for code questions, schedules its evaluation without waiting for it.
	SubmitAnswer(ctx context.Context, studentID, attemptID uuid.UUID, req dto.SubmitAnswerRequest) (*dto.AnswerResponse, error)
	ListAnswers(ctx context.Context, attemptID, studentID uuid.UUID) ([]dto.AnswerResponse, error)
	CheckCompletion(ctx context.Context, attemptID, studentID uuid.UUID) (*dto.CompletionCheckResponse, error)
	// CheckAutoCompletion finalizes the attempt when every question's latest answer is evaluated and approved.
	CheckAutoCompletion(ctx context.Context, attemptID uuid.UUID) (*dto.CompletionCheckResponse, error)
	Encouragement(ctx context.Context, answerID, studentID uuid.UUID) (*dto.EncouragementResponse, error)
	// DispatchStale reschedules evaluation of code answers that were never graded.
	DispatchStale(ctx context.Context, staleAfter time.Duration) (int, error)
}

type gradingService struct {
	attemptRepo    repository.AttemptRepository
	answerRepo     repository.AnswerRepository
	evaluationRepo repository.EvaluationRepository
	catalogRepo    repository.CatalogRepository
	attempts       AttemptService
	criteria       CriteriaService
	evaluator      GenerativeEvaluator
	runner         TaskRunner
	inFlight       sync.Map
	now            func() time.Time
}

func NewGradingService(
	attemptRepo repository.AttemptRepository,
	answerRepo repository.AnswerRepository,
	evaluationRepo repository.EvaluationRepository,
	catalogRepo repository.CatalogRepository,
	attempts AttemptService,
	criteria CriteriaService,
	evaluator GenerativeEvaluator,
	runner TaskRunner,
) GradingService {
	return &gradingService{
		attemptRepo:    attemptRepo,
		answerRepo:     answerRepo,
		evaluationRepo: evaluationRepo,
		catalogRepo:    catalogRepo,
		attempts:       attempts,
		criteria:       criteria,
		evaluator:      evaluator,
		runner:         runner,
		now:            time.Now,
	}
}

func (s *gradingService) SubmitAnswer(ctx context.Context, studentID, attemptID uuid.UUID, req dto.SubmitAnswerRequest) (*dto.AnswerResponse, error) {
	if req.Text == "" {
		return nil, validationError("text", "is required")
	}
	attempt, err := s.ownedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}
	belongs, err := s.catalogRepo.QuestionBelongsToExercise(ctx, req.QuestionID, attempt.ExerciseID)
	if err != nil {
		return nil, err
	}
	if !belongs {
		return nil, ErrQuestionNotFound
	}
	question, err := s.catalogRepo.FindQuestion(ctx, req.QuestionID)
	if err != nil {
		return nil, notFoundAs(err, ErrQuestionNotFound)
	}

	answer := model.Answer{
		AttemptID:   attempt.ID,
		QuestionID:  question.ID,
		Text:        req.Text,
		SubmittedAt: s.now(),
	}
	if err := s.answerRepo.Create(ctx, &answer); err != nil {
		log.Error().Err(err).Str("attemptID", attemptID.String()).Uint("questionID", question.ID).Msg("SubmitAnswer: failed to persist answer")
		return nil, err
	}
	log.Info().Str("answerID", answer.ID.String()).Str("attemptID", attemptID.String()).Str("questionType", question.Type).Msg("Answer submitted")

	resp := toAnswerResponse(&answer)
	if question.IsCode() {
		answer.Question = *question
		resp.EvaluationQueued = s.dispatch(answer)
	}
	return &resp, nil
}

// dispatch schedules one evaluation per answer; it reports false when one is already running.
func (s *gradingService) dispatch(answer model.Answer) bool {
	if _, running := s.inFlight.LoadOrStore(answer.ID, struct{}{}); running {
		return false
	}
	s.runner.Go("evaluate-answer", func(ctx context.Context) {
		defer s.inFlight.Delete(answer.ID)
		s.evaluate(ctx, answer)
	})
	return true
}

// evaluate turns the evaluator's outcome into Evaluation rows. Evaluator errors become a
// single not-approved row so the answer never stays ungraded.
func (s *gradingService) evaluate(ctx context.Context, answer model.Answer) {
	logger := log.With().Str("answerID", answer.ID.String()).Str("attemptID", answer.AttemptID.String()).Logger()

	criteria, err := s.criteria.EnsureDefaultCriteria(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("evaluate: could not load criteria")
		return
	}

	req := EvaluationRequest{
		Statement:       answer.Question.Statement,
		Answer:          answer.Text,
		ReferenceAnswer: answer.Question.ReferenceAnswer,
	}
	if attempt, err := s.attemptRepo.FindByID(ctx, answer.AttemptID); err == nil {
		if exercise, err := s.catalogRepo.FindExercise(ctx, attempt.ExerciseID); err == nil {
			req.ExerciseTitle = exercise.Title
		}
	}

	result, evalErr := s.evaluator.Evaluate(ctx, req)
	evaluatedAt := s.now()
	var evaluations []model.Evaluation
	switch {
	case evalErr == nil:
		for _, c := range criteria {
			evaluations = append(evaluations, model.Evaluation{
				AnswerID:    answer.ID,
				CriterionID: c.ID,
				Approved:    result.Approved,
				Score:       clampScore(result.Score),
				Feedback:    result.Feedback,
				Suggestions: append([]string(nil), result.Suggestions...),
				EvaluatedAt: evaluatedAt,
			})
		}
	case len(criteria) > 0:
		logger.Warn().Err(evalErr).Bool("quota", errors.Is(evalErr, ErrQuotaExceeded)).Msg("evaluate: evaluator failed, storing fallback evaluation")
		evaluations = append(evaluations, model.Evaluation{
			AnswerID:    answer.ID,
			CriterionID: criteria[0].ID,
			Approved:    false,
			Score:       0,
			Feedback:    fallbackFeedback(evalErr),
			Suggestions: []string{},
			EvaluatedAt: evaluatedAt,
		})
	default:
		logger.Error().Err(evalErr).Msg("evaluate: evaluator failed and no criteria exist")
		return
	}

	if err := s.evaluationRepo.CreateBatch(ctx, evaluations); err != nil {
		logger.Error().Err(err).Msg("evaluate: failed to persist evaluations")
		return
	}
	logger.Info().Int("evaluations", len(evaluations)).Bool("evaluatorOK", evalErr == nil).Msg("Answer evaluated")

	check, err := s.CheckAutoCompletion(ctx, answer.AttemptID)
	if err != nil {
		if !errors.Is(err, ErrAttemptAlreadyCompleted) {
			logger.Error().Err(err).Msg("evaluate: auto-completion check failed")
		}
		return
	}
	if check.AutoCompleted {
		logger.Info().Msg("Attempt auto-completed")
	}
}

func (s *gradingService) ListAnswers(ctx context.Context, attemptID, studentID uuid.UUID) ([]dto.AnswerResponse, error) {
	if _, err := s.ownedAttempt(ctx, attemptID, studentID); err != nil {
		return nil, err
	}
	answers, err := s.answerRepo.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.AnswerResponse, 0, len(answers))
	for i := range answers {
		resp = append(resp, toAnswerResponse(&answers[i]))
	}
	return resp, nil
}

func (s *gradingService) CheckCompletion(ctx context.Context, attemptID, studentID uuid.UUID) (*dto.CompletionCheckResponse, error) {
	if _, err := s.ownedAttempt(ctx, attemptID, studentID); err != nil {
		return nil, err
	}
	return s.CheckAutoCompletion(ctx, attemptID)
}

func (s *gradingService) CheckAutoCompletion(ctx context.Context, attemptID uuid.UUID) (*dto.CompletionCheckResponse, error) {
	attempt, err := s.attemptRepo.FindByID(ctx, attemptID)
	if err != nil {
		return nil, notFoundAs(err, ErrAttemptNotFound)
	}
	questions, err := s.catalogRepo.QuestionsOf(ctx, attempt.ExerciseID)
	if err != nil {
		return nil, err
	}
	answers, err := s.answerRepo.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	sheet := buildGradingSheet(questions, answers)
	resp := &dto.CompletionCheckResponse{
		AttemptID:   attemptID,
		Total:       sheet.Total,
		Answered:    sheet.Answered,
		Approved:    sheet.Approved,
		Missing:     sheet.Missing(),
		NeedsReview: sheet.NeedsReview(),
	}
	if !sheet.Complete() || attempt.IsCompleted() {
		return resp, nil
	}
	if _, err := s.attempts.Finalize(ctx, attempt.StudentID, attempt.ExerciseID); err != nil {
		return nil, err
	}
	resp.AutoCompleted = true
	return resp, nil
}

func (s *gradingService) Encouragement(ctx context.Context, answerID, studentID uuid.UUID) (*dto.EncouragementResponse, error) {
	answer, err := s.answerRepo.FindByID(ctx, answerID)
	if err != nil {
		return nil, notFoundAs(err, ErrAnswerNotFound)
	}
	if _, err := s.ownedAttempt(ctx, answer.AttemptID, studentID); err != nil {
		return nil, ErrAnswerNotFound
	}

	approved := IsApproved(answer.Evaluations)
	resp := &dto.EncouragementResponse{AnswerID: answerID, Approved: approved, Message: DefaultEncouragement(approved)}
	if len(answer.Evaluations) == 0 {
		return resp, nil
	}

	message, err := s.evaluator.Encourage(ctx, EncouragementRequest{
		Approved:  approved,
		Feedback:  answer.Evaluations[0].Feedback,
		Statement: answer.Question.Statement,
		Answer:    answer.Text,
	})
	if err != nil || message == "" {
		log.Warn().Err(err).Str("answerID", answerID.String()).Msg("Encouragement: using default message")
		return resp, nil
	}
	resp.Message = message
	return resp, nil
}

func (s *gradingService) DispatchStale(ctx context.Context, staleAfter time.Duration) (int, error) {
	answers, err := s.answerRepo.ListUngradedCode(ctx, s.now().Add(-staleAfter), staleAnswerBatch)
	if err != nil {
		return 0, err
	}
	dispatched := 0
	for _, answer := range answers {
		if s.dispatch(answer) {
			dispatched++
		}
	}
	return dispatched, nil
}

func (s *gradingService) ownedAttempt(ctx context.Context, attemptID, studentID uuid.UUID) (*model.ExerciseAttempt, error) {
	attempt, err := s.attemptRepo.FindByID(ctx, attemptID)
	if err != nil {
		return nil, notFoundAs(err, ErrAttemptNotFound)
	}
	if attempt.StudentID != studentID {
		return nil, ErrAttemptNotFound
	}
	return attempt, nil
}

func clampScore(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > MaxScore:
		return MaxScore
	}
	return score
}

func toAnswerResponse(answer *model.Answer) dto.AnswerResponse {
	resp := dto.AnswerResponse{
		ID:             answer.ID,
		AttemptID:      answer.AttemptID,
		QuestionID:     answer.QuestionID,
		Text:           answer.Text,
		SubmittedAt:    answer.SubmittedAt,
		Evaluations:    make([]dto.EvaluationResponse, 0, len(answer.Evaluations)),
		AggregateScore: ComputeAggregateScore(answer.Evaluations),
		Approved:       IsApproved(answer.Evaluations),
		Graded:         len(answer.Evaluations) > 0,
	}
	for i := range answer.Evaluations {
		e := &answer.Evaluations[i]
		var criterion dto.CriterionResponse
		copier.Copy(&criterion, &e.Criterion)
		resp.Evaluations = append(resp.Evaluations, dto.EvaluationResponse{
			ID:          e.ID,
			Criterion:   criterion,
			Approved:    e.Approved,
			Score:       e.Score,
			Feedback:    e.Feedback,
			Suggestions: append([]string{}, e.Suggestions...),
			EvaluatedAt: e.EvaluatedAt,
		})
	}
	return resp
}
