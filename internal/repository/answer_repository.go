package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lshigami/Classtrail/internal/model"
	"gorm.io/gorm"
)

type AnswerRepository interface {
	Create(ctx context.Context, answer *model.Answer) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Answer, error)
	// ListByAttempt returns answers in submission order with evaluations and criteria preloaded.
	ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.Answer, error)
	ListByAttempts(ctx context.Context, attemptIDs []uuid.UUID) ([]model.Answer, error)
	// ListUngradedCode returns code answers without any evaluation submitted before olderThan.
	ListUngradedCode(ctx context.Context, olderThan time.Time, limit int) ([]model.Answer, error)
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) Create(ctx context.Context, answer *model.Answer) error {
	return translate(r.db.WithContext(ctx).Omit("Question", "Evaluations").Create(answer).Error, "create answer")
}

func (r *answerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Answer, error) {
	var answer model.Answer
	err := r.db.WithContext(ctx).
		Preload("Question").
		Preload("Evaluations.Criterion").
		First(&answer, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "find answer")
	}
	return &answer, nil
}

func (r *answerRepository) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.Answer, error) {
	return r.ListByAttempts(ctx, []uuid.UUID{attemptID})
}

func (r *answerRepository) ListByAttempts(ctx context.Context, attemptIDs []uuid.UUID) ([]model.Answer, error) {
	var answers []model.Answer
	if len(attemptIDs) == 0 {
		return answers, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Evaluations", func(db *gorm.DB) *gorm.DB {
			return db.Order("evaluations.evaluated_at ASC")
		}).
		Preload("Evaluations.Criterion").
		Where("attempt_id IN ?", attemptIDs).
		Order("submitted_at ASC").
		Find(&answers).Error
	return answers, translate(err, "list answers")
}

func (r *answerRepository) ListUngradedCode(ctx context.Context, olderThan time.Time, limit int) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.db.WithContext(ctx).
		Preload("Question").
		Joins("JOIN questions q ON q.id = answers.question_id").
		Where("q.type = ?", model.QuestionTypeCode).
		Where("answers.submitted_at < ?", olderThan).
		Where("NOT EXISTS (SELECT 1 FROM evaluations ev WHERE ev.answer_id = answers.id)").
		Order("answers.submitted_at ASC").
		Limit(limit).
		Find(&answers).Error
	return answers, translate(err, "list ungraded answers")
}
