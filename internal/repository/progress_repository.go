package repository

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/lshigami/Classtrail/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressUpdate carries the recomputed state for one lesson of one enrollment.
type ProgressUpdate struct {
	EnrollmentID uuid.UUID
	LessonID     uuid.UUID
	Completed    bool
	Score        float64
	XPEarned     int
	At           time.Time
}

type ProgressSummary struct {
	CompletedLessons int64
	TotalXP          int64
}

type ProgressRepository interface {
	// Upsert overwrites completed/score/xp and bumps attempts, creating the row with attempts=1 when absent.
	Upsert(ctx context.Context, update ProgressUpdate) (*model.LessonProgress, error)
	ListByEnrollment(ctx context.Context, enrollmentID uuid.UUID) ([]model.LessonProgress, error)
	// SummarizeEnrollment counts completed lessons of active modules and sums their XP.
	SummarizeEnrollment(ctx context.Context, enrollmentID uuid.UUID) (ProgressSummary, error)
}

type progressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) Upsert(ctx context.Context, update ProgressUpdate) (*model.LessonProgress, error) {
	progress, err := r.upsertOnce(ctx, update)
	if stderrors.Is(err, ErrDuplicate) {
		// A concurrent first submission created the row between our read and insert.
		progress, err = r.upsertOnce(ctx, update)
	}
	return progress, err
}

func (r *progressRepository) upsertOnce(ctx context.Context, update ProgressUpdate) (*model.LessonProgress, error) {
	var completedAt *time.Time
	if update.Completed {
		at := update.At
		completedAt = &at
	}

	var progress model.LessonProgress
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		findErr := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("enrollment_id = ? AND lesson_id = ?", update.EnrollmentID, update.LessonID).
			First(&progress).Error
		if stderrors.Is(findErr, gorm.ErrRecordNotFound) {
			progress = model.LessonProgress{
				EnrollmentID: update.EnrollmentID,
				LessonID:     update.LessonID,
				Completed:    update.Completed,
				Score:        update.Score,
				XPEarned:     update.XPEarned,
				Attempts:     1,
				CompletedAt:  completedAt,
			}
			return tx.Create(&progress).Error
		}
		if findErr != nil {
			return findErr
		}

		if err := tx.Model(&progress).Updates(map[string]interface{}{
			"completed":    update.Completed,
			"score":        update.Score,
			"xp_earned":    update.XPEarned,
			"completed_at": completedAt,
			"attempts":     gorm.Expr("attempts + 1"),
		}).Error; err != nil {
			return err
		}
		return tx.First(&progress, "id = ?", progress.ID).Error
	})
	if err != nil {
		return nil, translate(err, "upsert lesson progress")
	}
	return &progress, nil
}

func (r *progressRepository) ListByEnrollment(ctx context.Context, enrollmentID uuid.UUID) ([]model.LessonProgress, error) {
	var progress []model.LessonProgress
	err := r.db.WithContext(ctx).Where("enrollment_id = ?", enrollmentID).Find(&progress).Error
	return progress, translate(err, "list lesson progress")
}

func (r *progressRepository) SummarizeEnrollment(ctx context.Context, enrollmentID uuid.UUID) (ProgressSummary, error) {
	var summary ProgressSummary
	err := r.db.WithContext(ctx).Model(&model.LessonProgress{}).
		Select("COUNT(*) AS completed_lessons, COALESCE(SUM(lesson_progress.xp_earned), 0) AS total_xp").
		Joins("JOIN trail_lessons l ON l.id = lesson_progress.lesson_id").
		Joins("JOIN trail_modules m ON m.id = l.module_id AND m.active").
		Where("lesson_progress.enrollment_id = ? AND lesson_progress.completed", enrollmentID).
		Scan(&summary).Error
	return summary, translate(err, "summarize enrollment")
}
