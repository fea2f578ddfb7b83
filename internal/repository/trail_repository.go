package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lshigami/Classtrail/internal/model"
	"gorm.io/gorm"
)

type TrailRepository interface {
	CreateModule(ctx context.Context, module *model.TrailModule) error
	FindModule(ctx context.Context, id uuid.UUID) (*model.TrailModule, error)
	UpdateModule(ctx context.Context, module *model.TrailModule) error
	// ListActiveModules returns active modules ordered by sort order, lessons and their exercise preloaded.
	ListActiveModules(ctx context.Context, classroomID uuid.UUID) ([]model.TrailModule, error)
	CountActiveLessons(ctx context.Context, classroomID uuid.UUID) (int64, error)

	CreateLesson(ctx context.Context, lesson *model.TrailLesson) error
	FindLesson(ctx context.Context, id uuid.UUID) (*model.TrailLesson, error)
	UpdateLesson(ctx context.Context, lesson *model.TrailLesson) error
	DeleteLesson(ctx context.Context, id uuid.UUID) error
}

type trailRepository struct {
	db *gorm.DB
}

func NewTrailRepository(db *gorm.DB) TrailRepository {
	return &trailRepository{db: db}
}

func (r *trailRepository) CreateModule(ctx context.Context, module *model.TrailModule) error {
	return translate(r.db.WithContext(ctx).Omit("Lessons").Create(module).Error, "create module")
}

func (r *trailRepository) FindModule(ctx context.Context, id uuid.UUID) (*model.TrailModule, error) {
	var module model.TrailModule
	if err := r.db.WithContext(ctx).First(&module, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find module")
	}
	return &module, nil
}

func (r *trailRepository) UpdateModule(ctx context.Context, module *model.TrailModule) error {
	return translate(r.db.WithContext(ctx).Omit("Lessons", "classroom_id").Save(module).Error, "update module")
}

func (r *trailRepository) ListActiveModules(ctx context.Context, classroomID uuid.UUID) ([]model.TrailModule, error) {
	var modules []model.TrailModule
	err := r.db.WithContext(ctx).
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("trail_lessons.sort_order ASC, trail_lessons.created_at ASC")
		}).
		Preload("Lessons.Exercise").
		Where("classroom_id = ? AND active", classroomID).
		Order("sort_order ASC, created_at ASC").
		Find(&modules).Error
	return modules, translate(err, "list modules")
}

func (r *trailRepository) CountActiveLessons(ctx context.Context, classroomID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TrailLesson{}).
		Joins("JOIN trail_modules m ON m.id = trail_lessons.module_id").
		Where("m.classroom_id = ? AND m.active", classroomID).
		Count(&count).Error
	return count, translate(err, "count lessons")
}

func (r *trailRepository) CreateLesson(ctx context.Context, lesson *model.TrailLesson) error {
	return translate(r.db.WithContext(ctx).Omit("Exercise").Create(lesson).Error, "create lesson")
}

func (r *trailRepository) FindLesson(ctx context.Context, id uuid.UUID) (*model.TrailLesson, error) {
	var lesson model.TrailLesson
	if err := r.db.WithContext(ctx).First(&lesson, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find lesson")
	}
	return &lesson, nil
}

func (r *trailRepository) UpdateLesson(ctx context.Context, lesson *model.TrailLesson) error {
	return translate(r.db.WithContext(ctx).Omit("Exercise", "module_id").Save(lesson).Error, "update lesson")
}

func (r *trailRepository) DeleteLesson(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.TrailLesson{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "delete lesson")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "delete lesson")
	}
	return nil
}
