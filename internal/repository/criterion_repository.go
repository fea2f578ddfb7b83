package repository

import (
	"context"

	"github.com/lshigami/Classtrail/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CriterionRepository interface {
	Create(ctx context.Context, criterion *model.Criterion) error
	List(ctx context.Context) ([]model.Criterion, error)
	// SeedIfEmpty inserts defaults only when the table has no rows; concurrent seeders do not duplicate names.
	SeedIfEmpty(ctx context.Context, defaults []model.Criterion) ([]model.Criterion, error)
}

type criterionRepository struct {
	db *gorm.DB
}

func NewCriterionRepository(db *gorm.DB) CriterionRepository {
	return &criterionRepository{db: db}
}

func (r *criterionRepository) Create(ctx context.Context, criterion *model.Criterion) error {
	return translate(r.db.WithContext(ctx).Create(criterion).Error, "create criterion")
}

func (r *criterionRepository) List(ctx context.Context) ([]model.Criterion, error) {
	var criteria []model.Criterion
	err := r.db.WithContext(ctx).Order("weight DESC, name ASC").Find(&criteria).Error
	return criteria, translate(err, "list criteria")
}

func (r *criterionRepository) SeedIfEmpty(ctx context.Context, defaults []model.Criterion) ([]model.Criterion, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Criterion{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 || len(defaults) == 0 {
			return nil
		}
		rows := make([]model.Criterion, len(defaults))
		copy(rows, defaults)
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&rows).Error
	})
	if err != nil {
		return nil, translate(err, "seed criteria")
	}
	return r.List(ctx)
}
