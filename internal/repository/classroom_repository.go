package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lshigami/Classtrail/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// defaultClassroomLock serialises setDefault calls across instances.
const defaultClassroomLock int64 = 0x636c6173

type ClassroomWithCounts struct {
	model.Classroom
	StudentCount int64
	ModuleCount  int64
}

type ClassroomRepository interface {
	Create(ctx context.Context, classroom *model.Classroom) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Classroom, error)
	FindByAccessCode(ctx context.Context, code string) (*model.Classroom, error)
	AccessCodeExists(ctx context.Context, code string) (bool, error)
	Update(ctx context.Context, classroom *model.Classroom) error
	SetDefault(ctx context.Context, id uuid.UUID) (*model.Classroom, error)
	FindDefault(ctx context.Context) (*model.Classroom, error)
	ListActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]ClassroomWithCounts, error)
}

type classroomRepository struct {
	db *gorm.DB
}

func NewClassroomRepository(db *gorm.DB) ClassroomRepository {
	return &classroomRepository{db: db}
}

func (r *classroomRepository) Create(ctx context.Context, classroom *model.Classroom) error {
	return translate(r.db.WithContext(ctx).Create(classroom).Error, "create classroom")
}

func (r *classroomRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Classroom, error) {
	var classroom model.Classroom
	if err := r.db.WithContext(ctx).First(&classroom, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find classroom")
	}
	return &classroom, nil
}

func (r *classroomRepository) FindByAccessCode(ctx context.Context, code string) (*model.Classroom, error) {
	var classroom model.Classroom
	if err := r.db.WithContext(ctx).Where("access_code = ?", code).First(&classroom).Error; err != nil {
		return nil, translate(err, "find classroom by access code")
	}
	return &classroom, nil
}

func (r *classroomRepository) AccessCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Classroom{}).Where("access_code = ?", code).Count(&count).Error
	if err != nil {
		return false, translate(err, "check access code")
	}
	return count > 0, nil
}

// Update never touches is_default; that flag only moves through SetDefault.
func (r *classroomRepository) Update(ctx context.Context, classroom *model.Classroom) error {
	return translate(r.db.WithContext(ctx).Omit("is_default", "access_code", "owner_id").Save(classroom).Error, "update classroom")
}

// SetDefault clears the flag everywhere and sets it on id inside one transaction.
// The advisory lock makes concurrent callers queue instead of racing on the partial unique index.
func (r *classroomRepository) SetDefault(ctx context.Context, id uuid.UUID) (*model.Classroom, error) {
	var target model.Classroom
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", defaultClassroomLock).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&target, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Classroom{}).
			Where("is_default = ? AND id <> ?", true, id).
			Update("is_default", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&target).Update("is_default", true).Error; err != nil {
			return err
		}
		target.IsDefault = true
		return nil
	})
	if err != nil {
		return nil, translate(err, "set default classroom")
	}
	return &target, nil
}

func (r *classroomRepository) FindDefault(ctx context.Context) (*model.Classroom, error) {
	var classroom model.Classroom
	if err := r.db.WithContext(ctx).Where("is_default = ?", true).First(&classroom).Error; err != nil {
		return nil, translate(err, "find default classroom")
	}
	return &classroom, nil
}

func (r *classroomRepository) ListActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]ClassroomWithCounts, error) {
	var results []ClassroomWithCounts
	err := r.db.WithContext(ctx).Model(&model.Classroom{}).
		Select(`classrooms.*,
			(SELECT COUNT(*) FROM enrollments e WHERE e.classroom_id = classrooms.id AND e.active) AS student_count,
			(SELECT COUNT(*) FROM trail_modules m WHERE m.classroom_id = classrooms.id AND m.active) AS module_count`).
		Where("classrooms.owner_id = ? AND classrooms.active", ownerID).
		Order("classrooms.created_at DESC").
		Scan(&results).Error
	return results, translate(err, "list owned classrooms")
}
