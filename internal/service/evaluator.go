package service

import (
	"context"
	"errors"
)

// ErrQuotaExceeded marks evaluator rejections caused by rate limits or exhausted quota.
var ErrQuotaExceeded = errors.New("evaluator quota exceeded")

const (
	feedbackManualReview   = "Automatic evaluation failed. Manual review required."
	feedbackQuotaExhausted = "Automatic grading is temporarily unavailable. The answer is pending review."

	encouragementApproved = "Great job! Your solution meets the criteria. Keep up the good work!"
	encouragementRetry    = "Good effort! Review the feedback, adjust your solution and try again."
)

type EvaluationRequest struct {
	ExerciseTitle   string
	Statement       string
	Answer          string
	ReferenceAnswer *string
}

type EvaluationResult struct {
	Approved    bool
	Score       float64
	Feedback    string
	Suggestions []string
}

type EncouragementRequest struct {
	Approved  bool
	Feedback  string
	Statement string
	Answer    string
}

// GenerativeEvaluator grades free-form answers. Evaluate may fail with ErrQuotaExceeded.
type GenerativeEvaluator interface {
	Evaluate(ctx context.Context, req EvaluationRequest) (*EvaluationResult, error)
	Encourage(ctx context.Context, req EncouragementRequest) (string, error)
}

// DefaultEncouragement is used whenever a personalised message cannot be produced.
func DefaultEncouragement(approved bool) string {
	if approved {
		return encouragementApproved
	}
	return encouragementRetry
}

func fallbackFeedback(err error) string {
	if errors.Is(err, ErrQuotaExceeded) {
		return feedbackQuotaExhausted
	}
	return feedbackManualReview
}
