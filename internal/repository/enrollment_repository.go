package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lshigami/Classtrail/internal/model"
	"gorm.io/gorm"
)

type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *model.Enrollment) error
	FindByClassroomAndStudent(ctx context.Context, classroomID, studentID uuid.UUID) (*model.Enrollment, error)
	FindActive(ctx context.Context, classroomID, studentID uuid.UUID) (*model.Enrollment, error)
	Update(ctx context.Context, enrollment *model.Enrollment) error
	// ListActiveByStudent returns active enrollments in active classrooms with the classroom preloaded.
	ListActiveByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Enrollment, error)
	ListActiveByClassroom(ctx context.Context, classroomID uuid.UUID) ([]model.Enrollment, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *model.Enrollment) error {
	return translate(r.db.WithContext(ctx).Omit("Classroom").Create(enrollment).Error, "create enrollment")
}

func (r *enrollmentRepository) FindByClassroomAndStudent(ctx context.Context, classroomID, studentID uuid.UUID) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.WithContext(ctx).
		Where("classroom_id = ? AND student_id = ?", classroomID, studentID).
		First(&enrollment).Error
	if err != nil {
		return nil, translate(err, "find enrollment")
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) FindActive(ctx context.Context, classroomID, studentID uuid.UUID) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.WithContext(ctx).
		Where("classroom_id = ? AND student_id = ? AND active", classroomID, studentID).
		First(&enrollment).Error
	if err != nil {
		return nil, translate(err, "find active enrollment")
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) Update(ctx context.Context, enrollment *model.Enrollment) error {
	err := r.db.WithContext(ctx).Model(enrollment).
		Select("active", "enrolled_at").
		Updates(map[string]interface{}{"active": enrollment.Active, "enrolled_at": enrollment.EnrolledAt}).Error
	return translate(err, "update enrollment")
}

func (r *enrollmentRepository) ListActiveByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.WithContext(ctx).
		Joins("Classroom").
		Where("enrollments.student_id = ? AND enrollments.active AND \"Classroom\".active", studentID).
		Order("enrollments.enrolled_at DESC").
		Find(&enrollments).Error
	return enrollments, translate(err, "list student enrollments")
}

func (r *enrollmentRepository) ListActiveByClassroom(ctx context.Context, classroomID uuid.UUID) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.WithContext(ctx).
		Where("classroom_id = ? AND active", classroomID).
		Order("enrolled_at ASC").
		Find(&enrollments).Error
	return enrollments, translate(err, "list classroom roster")
}
