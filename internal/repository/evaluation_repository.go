package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lshigami/Classtrail/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EvaluationRepository interface {
	// CreateBatch stores evaluations, skipping any (answer, criterion) pair already graded.
	CreateBatch(ctx context.Context, evaluations []model.Evaluation) error
	ListByAnswer(ctx context.Context, answerID uuid.UUID) ([]model.Evaluation, error)
}

type evaluationRepository struct {
	db *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) CreateBatch(ctx context.Context, evaluations []model.Evaluation) error {
	if len(evaluations) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Omit("Criterion").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "answer_id"}, {Name: "criterion_id"}},
			DoNothing: true,
		}).
		Create(&evaluations).Error
	return translate(err, "create evaluations")
}

func (r *evaluationRepository) ListByAnswer(ctx context.Context, answerID uuid.UUID) ([]model.Evaluation, error) {
	var evaluations []model.Evaluation
	err := r.db.WithContext(ctx).
		Preload("Criterion").
		Where("answer_id = ?", answerID).
		Order("evaluated_at ASC").
		Find(&evaluations).Error
	return evaluations, translate(err, "list evaluations")
}
