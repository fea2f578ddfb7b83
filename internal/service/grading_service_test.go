package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lshigami/Classtrail/internal/dto"
	"github.com/lshigami/Classtrail/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gradingSetup struct {
	student   uuid.UUID
	exercise  model.Exercise
	questions []model.Question
	attemptID uuid.UUID
}

func startAttempt(t *testing.T, f *fixture, types ...string) gradingSetup {
	t.Helper()
	student := f.store.addUser(RoleStudent)
	ex, questions := f.store.addExercise("Recursion", types...)
	attempt, err := f.attempts.Start(context.Background(), student, ex.ID)
	require.NoError(t, err)
	return gradingSetup{student: student, exercise: ex, questions: questions, attemptID: attempt.ID}
}

func submit(t *testing.T, f *fixture, g gradingSetup, question model.Question, text string) *dto.AnswerResponse {
	t.Helper()
	resp, err := f.grading.SubmitAnswer(context.Background(), g.student, g.attemptID, dto.SubmitAnswerRequest{QuestionID: question.ID, Text: text})
	require.NoError(t, err)
	return resp
}

func evaluationsOf(f *fixture, answerID uuid.UUID) []model.Evaluation {
	var out []model.Evaluation
	for _, e := range f.store.evaluations {
		if e.AnswerID == answerID {
			out = append(out, e)
		}
	}
	return out
}

func TestGradingService_SubmitCodeAnswerIsEvaluated(t *testing.T) {
	f := newFixture(nil)
	g := startAttempt(t, f, model.QuestionTypeCode, model.QuestionTypeCode)

	resp := submit(t, f, g, g.questions[0], "func fib(n int) int { ... }")
	assert.True(t, resp.EvaluationQueued)
	assert.Equal(t, []string{"evaluate-answer"}, f.runner.names)
	assert.Equal(t, "Recursion", f.evaluator.lastInput.ExerciseTitle)
	assert.Equal(t, g.questions[0].Statement, f.evaluator.lastInput.Statement)

	evaluations := evaluationsOf(f, resp.ID)
	require.Len(t, evaluations, len(DefaultCriteria()))
	for _, e := range evaluations {
		assert.True(t, e.Approved)
		assert.Equal(t, 90.0, e.Score)
		assert.Equal(t, "Well done", e.Feedback)
		assert.Equal(t, []string{"Add tests"}, []string(e.Suggestions))
	}

	answers, err := f.grading.ListAnswers(context.Background(), g.attemptID, g.student)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.True(t, answers[0].Graded)
	assert.True(t, answers[0].Approved)
	assert.Equal(t, 100.0, answers[0].AggregateScore)

	assert.Equal(t, model.AttemptStatusInProgress, f.store.attempts[g.attemptID].Status, "one question is still unanswered")
}

func TestGradingService_NonCodeAnswerIsNotEvaluated(t *testing.T) {
	f := newFixture(nil)
	g := startAttempt(t, f, model.QuestionTypeText)

	resp := submit(t, f, g, g.questions[0], "A closure captures variables.")
	assert.False(t, resp.EvaluationQueued)
	assert.False(t, resp.Graded)
	assert.Equal(t, 0, f.evaluator.calls)
	assert.Empty(t, f.store.evaluations)
}

func TestGradingService_QuotaExceededStoresSingleFallback(t *testing.T) {
	f := newFixture(nil)
	f.evaluator.err = fmt.Errorf("%w: googleapi: Error 429", ErrQuotaExceeded)
	g := startAttempt(t, f, model.QuestionTypeCode)

	resp := submit(t, f, g, g.questions[0], "print('hi')")

	require.Len(t, f.store.answers, 1, "the answer persists regardless of the evaluator")
	evaluations := evaluationsOf(f, resp.ID)
	require.Len(t, evaluations, 1)
	e := evaluations[0]
	assert.False(t, e.Approved)
	assert.Equal(t, 0.0, e.Score)
	assert.Equal(t, feedbackQuotaExhausted, e.Feedback)
	assert.Empty(t, e.Suggestions)

	criteria, err := f.criteria.EnsureDefaultCriteria(context.Background())
	require.NoError(t, err)
	assert.Equal(t, criteria[0].ID, e.CriterionID, "fallback is recorded on the heaviest criterion")

	assert.Equal(t, model.AttemptStatusInProgress, f.store.attempts[g.attemptID].Status)
}

func TestGradingService_EvaluatorFailureNeedsManualReview(t *testing.T) {
	f := newFixture(nil)
	f.evaluator.err = errors.New("unexpected response")
	g := startAttempt(t, f, model.QuestionTypeCode)

	resp := submit(t, f, g, g.questions[0], "x := 1")

	evaluations := evaluationsOf(f, resp.ID)
	require.Len(t, evaluations, 1)
	assert.Equal(t, feedbackManualReview, evaluations[0].Feedback)

	check, err := f.grading.CheckCompletion(context.Background(), g.attemptID, g.student)
	require.NoError(t, err)
	assert.False(t, check.AutoCompleted)
	assert.Equal(t, 1, check.NeedsReview)
	assert.Equal(t, 0, check.Missing)
}

func TestGradingService_AutoCompletion(t *testing.T) {
	f := newFixture(nil)
	g := startAttempt(t, f, model.QuestionTypeCode, model.QuestionTypeCode)

	submit(t, f, g, g.questions[0], "first")
	assert.Equal(t, model.AttemptStatusInProgress, f.store.attempts[g.attemptID].Status)

	submit(t, f, g, g.questions[1], "second")
	attempt := f.store.attempts[g.attemptID]
	assert.Equal(t, model.AttemptStatusCompleted, attempt.Status)
	assert.NotNil(t, attempt.FinishedAt)

	// Answers after completion are still accepted and graded; completion is not repeated.
	resp := submit(t, f, g, g.questions[1], "third")
	assert.Len(t, evaluationsOf(f, resp.ID), len(DefaultCriteria()))
	assert.Equal(t, model.AttemptStatusCompleted, f.store.attempts[g.attemptID].Status)

	check, err := f.grading.CheckCompletion(context.Background(), g.attemptID, g.student)
	require.NoError(t, err)
	assert.False(t, check.AutoCompleted)
	assert.Equal(t, 2, check.Approved)
}

func TestGradingService_CheckCompletionMixedCriteria(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	light := model.Criterion{ID: uuid.New(), Name: "Correctness", Weight: 0.4}
	heavy := model.Criterion{ID: uuid.New(), Name: "Logic", Weight: 0.6}
	f.store.criteria = []model.Criterion{light, heavy}
	g := startAttempt(t, f, model.QuestionTypeCode, model.QuestionTypeCode)

	answers := fakeAnswerRepo{f.store}
	evaluations := fakeEvaluationRepo{s: f.store}
	record := func(question model.Question, lightOK, heavyOK bool) uuid.UUID {
		answer := model.Answer{AttemptID: g.attemptID, QuestionID: question.ID, Text: "answer"}
		require.NoError(t, answers.Create(ctx, &answer))
		require.NoError(t, evaluations.CreateBatch(ctx, []model.Evaluation{
			{AnswerID: answer.ID, CriterionID: light.ID, Approved: lightOK},
			{AnswerID: answer.ID, CriterionID: heavy.ID, Approved: heavyOK},
		}))
		return answer.ID
	}
	record(g.questions[0], true, true)
	q2 := record(g.questions[1], true, false)

	listed, err := f.grading.ListAnswers(ctx, g.attemptID, g.student)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	for _, a := range listed {
		if a.ID == q2 {
			assert.Equal(t, 40.0, a.AggregateScore)
			assert.False(t, a.Approved)
		} else {
			assert.Equal(t, 100.0, a.AggregateScore)
			assert.True(t, a.Approved)
		}
	}

	check, err := f.grading.CheckCompletion(ctx, g.attemptID, g.student)
	require.NoError(t, err)
	assert.False(t, check.AutoCompleted)
	assert.Equal(t, 2, check.Total)
	assert.Equal(t, 2, check.Answered)
	assert.Equal(t, 1, check.Approved)
	assert.Equal(t, 0, check.Missing)
	assert.Equal(t, 1, check.NeedsReview)
	assert.Equal(t, model.AttemptStatusInProgress, f.store.attempts[g.attemptID].Status)
}

func TestGradingService_SubmitRejections(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	g := startAttempt(t, f, model.QuestionTypeCode)
	_, foreign := f.store.addExercise("Other", model.QuestionTypeCode)

	tests := []struct {
		name      string
		studentID uuid.UUID
		attemptID uuid.UUID
		req       dto.SubmitAnswerRequest
		wantErr   error
	}{
		{name: "empty text", studentID: g.student, attemptID: g.attemptID, req: dto.SubmitAnswerRequest{QuestionID: g.questions[0].ID}, wantErr: ErrValidation},
		{name: "someone else's attempt", studentID: uuid.New(), attemptID: g.attemptID, req: dto.SubmitAnswerRequest{QuestionID: g.questions[0].ID, Text: "x"}, wantErr: ErrAttemptNotFound},
		{name: "unknown attempt", studentID: g.student, attemptID: uuid.New(), req: dto.SubmitAnswerRequest{QuestionID: g.questions[0].ID, Text: "x"}, wantErr: ErrAttemptNotFound},
		{name: "question of another exercise", studentID: g.student, attemptID: g.attemptID, req: dto.SubmitAnswerRequest{QuestionID: foreign[0].ID, Text: "x"}, wantErr: ErrQuestionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.grading.SubmitAnswer(ctx, tt.studentID, tt.attemptID, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, f.store.answers)

	_, err := f.grading.ListAnswers(ctx, g.attemptID, uuid.New())
	assert.ErrorIs(t, err, ErrAttemptNotFound)
	_, err = f.grading.CheckCompletion(ctx, g.attemptID, uuid.New())
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestGradingService_Encouragement(t *testing.T) {
	ctx := context.Background()

	t.Run("ungraded answer gets the default", func(t *testing.T) {
		f := newFixture(nil)
		g := startAttempt(t, f, model.QuestionTypeText)
		resp := submit(t, f, g, g.questions[0], "text")

		msg, err := f.grading.Encouragement(ctx, resp.ID, g.student)
		require.NoError(t, err)
		assert.False(t, msg.Approved)
		assert.Equal(t, DefaultEncouragement(false), msg.Message)
	})

	t.Run("evaluator message is used", func(t *testing.T) {
		f := newFixture(nil)
		f.evaluator.message = "Lovely recursion!"
		g := startAttempt(t, f, model.QuestionTypeCode)
		resp := submit(t, f, g, g.questions[0], "code")

		msg, err := f.grading.Encouragement(ctx, resp.ID, g.student)
		require.NoError(t, err)
		assert.True(t, msg.Approved)
		assert.Equal(t, "Lovely recursion!", msg.Message)
	})

	t.Run("evaluator failure falls back", func(t *testing.T) {
		f := newFixture(nil)
		f.evaluator.encErr = ErrQuotaExceeded
		g := startAttempt(t, f, model.QuestionTypeCode)
		resp := submit(t, f, g, g.questions[0], "code")

		msg, err := f.grading.Encouragement(ctx, resp.ID, g.student)
		require.NoError(t, err)
		assert.Equal(t, DefaultEncouragement(true), msg.Message)
	})

	t.Run("answers of other students are hidden", func(t *testing.T) {
		f := newFixture(nil)
		g := startAttempt(t, f, model.QuestionTypeText)
		resp := submit(t, f, g, g.questions[0], "text")

		_, err := f.grading.Encouragement(ctx, resp.ID, uuid.New())
		assert.ErrorIs(t, err, ErrAnswerNotFound)
		_, err = f.grading.Encouragement(ctx, uuid.New(), g.student)
		assert.ErrorIs(t, err, ErrAnswerNotFound)
	})
}

func TestGradingService_DispatchStale(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	g := startAttempt(t, f, model.QuestionTypeCode)

	// Stored directly so no evaluation was ever scheduled; the store clock lies in the past.
	answer := model.Answer{AttemptID: g.attemptID, QuestionID: g.questions[0].ID, Text: "orphan"}
	require.NoError(t, fakeAnswerRepo{f.store}.Create(ctx, &answer))

	runner := &heldRunner{}
	grading := NewGradingService(fakeAttemptRepo{f.store}, fakeAnswerRepo{f.store}, fakeEvaluationRepo{s: f.store},
		f.catalogR, f.attempts, f.criteria, f.evaluator, runner)

	n, err := grading.DispatchStale(ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = grading.DispatchStale(ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "an answer already being evaluated is not dispatched twice")

	runner.release()
	assert.Len(t, evaluationsOf(f, answer.ID), len(DefaultCriteria()))
	assert.Equal(t, model.AttemptStatusCompleted, f.store.attempts[g.attemptID].Status)

	n, err = grading.DispatchStale(ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0.0, clampScore(-5))
	assert.Equal(t, 55.5, clampScore(55.5))
	assert.Equal(t, MaxScore, clampScore(140))
}
