package dto

import (
	"time"

	"github.com/google/uuid"
)

type AttemptResponse struct {
	ID         uuid.UUID        `json:"id"`
	StudentID  uuid.UUID        `json:"student_id"`
	ExerciseID uint             `json:"exercise_id"`
	Status     string           `json:"status"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
	Exercise   *ExerciseSummary `json:"exercise,omitempty"`
}

// AttemptStats are computed over the latest answer of each question.
type AttemptStats struct {
	TotalQuestions    int `json:"total_questions"`
	AnalyzedQuestions int `json:"analyzed_questions"`
	ApprovedQuestions int `json:"approved_questions"`
	CompletionPercent int `json:"completion_percent"`
	ApprovalPercent   int `json:"approval_percent"`
}

type FinalizeAttemptResponse struct {
	Attempt        AttemptResponse `json:"attempt"`
	Stats          AttemptStats    `json:"stats"`
	ElapsedMinutes int64           `json:"elapsed_minutes"`
}

type AttemptStatusResponse struct {
	Status     string           `json:"status"` // "not_started", "in_progress", "completed"
	ExerciseID uint             `json:"exercise_id"`
	Attempt    *AttemptResponse `json:"attempt"`
	Stats      *AttemptStats    `json:"stats,omitempty"`
}

type CompletedAttemptResponse struct {
	AttemptResponse
	Stats AttemptStats `json:"stats"`
}

type AttemptSummaryResponse struct {
	TotalExercises     int `json:"total_exercises"`
	CompletedExercises int `json:"completed_exercises"`
	InProgress         int `json:"in_progress"`
	CompletionPercent  int `json:"completion_percent"`
	TotalAnswers       int `json:"total_answers"`
	ApprovedAnswers    int `json:"approved_answers"`
	ApprovalPercent    int `json:"approval_percent"`
}

type SubmitAnswerRequest struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	Text       string `json:"text" binding:"required"`
}

type CriterionResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Weight      float64   `json:"weight"`
}

type CreateCriterionRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight" binding:"required,gte=0.1,lte=1"`
}

type EvaluationResponse struct {
	ID          uuid.UUID         `json:"id"`
	Criterion   CriterionResponse `json:"criterion"`
	Approved    bool              `json:"approved"`
	Score       float64           `json:"score"`
	Feedback    string            `json:"feedback"`
	Suggestions []string          `json:"suggestions"`
	EvaluatedAt time.Time         `json:"evaluated_at"`
}

type AnswerResponse struct {
	ID             uuid.UUID            `json:"id"`
	AttemptID      uuid.UUID            `json:"attempt_id"`
	QuestionID     uint                 `json:"question_id"`
	Text           string               `json:"text"`
	SubmittedAt    time.Time            `json:"submitted_at"`
	Evaluations    []EvaluationResponse `json:"evaluations"`
	AggregateScore float64              `json:"aggregate_score"`
	Approved       bool                 `json:"approved"`
	// Graded is false while no evaluation exists yet.
	Graded bool `json:"graded"`
	// EvaluationQueued is set on submission when the answer was handed to the evaluator.
	EvaluationQueued bool `json:"evaluation_queued,omitempty"`
}

type CompletionCheckResponse struct {
	AttemptID     uuid.UUID `json:"attempt_id"`
	AutoCompleted bool      `json:"auto_completed"`
	Total         int       `json:"total"`
	Answered      int       `json:"answered"`
	Approved      int       `json:"approved"`
	Missing       int       `json:"missing"`
	NeedsReview   int       `json:"needs_review"`
}

type EncouragementResponse struct {
	AnswerID uuid.UUID `json:"answer_id"`
	Approved bool      `json:"approved"`
	Message  string    `json:"message"`
}
