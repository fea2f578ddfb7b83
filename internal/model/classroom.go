package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Classroom struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	AccessCode  string    `json:"access_code" gorm:"size:8;not null;uniqueIndex"`
	OwnerID     uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`
	// A partial unique index keeps at most one row flagged as default.
	IsDefault   bool      `json:"is_default" gorm:"not null;default:false;uniqueIndex:idx_classrooms_single_default,where:is_default = true"`
	Active      bool      `json:"active" gorm:"not null;default:true"`
	Timestamps
}

func (Classroom) TableName() string { return "classrooms" }

func (c *Classroom) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

type Enrollment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClassroomID uuid.UUID `json:"classroom_id" gorm:"type:uuid;not null;uniqueIndex:idx_enrollments_classroom_student"`
	StudentID   uuid.UUID `json:"student_id" gorm:"type:uuid;not null;uniqueIndex:idx_enrollments_classroom_student;index"`
	Classroom   Classroom `json:"classroom,omitempty" gorm:"foreignKey:ClassroomID"`
	EnrolledAt  time.Time `json:"enrolled_at" gorm:"not null"`
	Active      bool      `json:"active" gorm:"not null;default:true"`
	Timestamps
}

func (Enrollment) TableName() string { return "enrollments" }

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	assignID(&e.ID)
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now()
	}
	return nil
}

// ClassroomExercise links a catalog exercise to a classroom outside of the trail.
type ClassroomExercise struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClassroomID uuid.UUID `json:"classroom_id" gorm:"type:uuid;not null;uniqueIndex:idx_classroom_exercises_pair"`
	ExerciseID  uint      `json:"exercise_id" gorm:"not null;uniqueIndex:idx_classroom_exercises_pair;index"`
	Exercise    Exercise  `json:"exercise,omitempty" gorm:"foreignKey:ExerciseID"`
	Order       int       `json:"order" gorm:"column:sort_order;not null;default:0"`
	Required    bool      `json:"required" gorm:"not null;default:false"`
	Timestamps
}

func (ClassroomExercise) TableName() string { return "classroom_exercises" }

func (l *ClassroomExercise) BeforeCreate(tx *gorm.DB) error {
	assignID(&l.ID)
	return nil
}
