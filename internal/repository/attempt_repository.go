package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lshigami/Classtrail/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository interface {
	Create(ctx context.Context, attempt *model.ExerciseAttempt) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ExerciseAttempt, error)
	FindByStudentAndExercise(ctx context.Context, studentID uuid.UUID, exerciseID uint) (*model.ExerciseAttempt, error)
	// Complete moves an in_progress attempt to completed under a row lock.
	// It returns ErrStateConflict when the attempt is already completed.
	Complete(ctx context.Context, id uuid.UUID, finishedAt time.Time) (*model.ExerciseAttempt, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.ExerciseAttempt, error)
	ListCompletedByStudent(ctx context.Context, studentID uuid.UUID) ([]model.ExerciseAttempt, error)
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Create(ctx context.Context, attempt *model.ExerciseAttempt) error {
	return translate(r.db.WithContext(ctx).Omit("Exercise").Create(attempt).Error, "create attempt")
}

func (r *attemptRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ExerciseAttempt, error) {
	var attempt model.ExerciseAttempt
	if err := r.db.WithContext(ctx).First(&attempt, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find attempt")
	}
	return &attempt, nil
}

func (r *attemptRepository) FindByStudentAndExercise(ctx context.Context, studentID uuid.UUID, exerciseID uint) (*model.ExerciseAttempt, error) {
	var attempt model.ExerciseAttempt
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND exercise_id = ?", studentID, exerciseID).
		First(&attempt).Error
	if err != nil {
		return nil, translate(err, "find attempt by student and exercise")
	}
	return &attempt, nil
}

func (r *attemptRepository) Complete(ctx context.Context, id uuid.UUID, finishedAt time.Time) (*model.ExerciseAttempt, error) {
	var attempt model.ExerciseAttempt
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&attempt, "id = ?", id).Error; err != nil {
			return err
		}
		if attempt.IsCompleted() {
			return ErrStateConflict
		}
		if err := tx.Model(&attempt).Updates(map[string]interface{}{
			"status":      model.AttemptStatusCompleted,
			"finished_at": finishedAt,
		}).Error; err != nil {
			return err
		}
		attempt.Status = model.AttemptStatusCompleted
		attempt.FinishedAt = &finishedAt
		return nil
	})
	if err != nil {
		return nil, translate(err, "complete attempt")
	}
	return &attempt, nil
}

func (r *attemptRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.ExerciseAttempt, error) {
	var attempts []model.ExerciseAttempt
	err := r.db.WithContext(ctx).
		Preload("Exercise").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&attempts).Error
	return attempts, translate(err, "list attempts")
}

func (r *attemptRepository) ListCompletedByStudent(ctx context.Context, studentID uuid.UUID) ([]model.ExerciseAttempt, error) {
	var attempts []model.ExerciseAttempt
	err := r.db.WithContext(ctx).
		Preload("Exercise").
		Where("student_id = ? AND status = ?", studentID, model.AttemptStatusCompleted).
		Order("finished_at DESC").
		Find(&attempts).Error
	return attempts, translate(err, "list completed attempts")
}
