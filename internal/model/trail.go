package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrailModule struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ClassroomID uuid.UUID     `json:"classroom_id" gorm:"type:uuid;not null;index"`
	Title       string        `json:"title" gorm:"not null"`
	Description string        `json:"description,omitempty" gorm:"type:text"`
	Icon        string        `json:"icon,omitempty"`
	Order       int           `json:"order" gorm:"column:sort_order;not null;default:0"`
	XPReward    int           `json:"xp_reward" gorm:"not null;default:0"`
	Active      bool          `json:"active" gorm:"not null;default:true"`
	Lessons     []TrailLesson `json:"lessons,omitempty" gorm:"foreignKey:ModuleID"`
	Timestamps
}

func (TrailModule) TableName() string { return "trail_modules" }

func (m *TrailModule) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}

type TrailLesson struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID   uuid.UUID `json:"module_id" gorm:"type:uuid;not null;index"`
	ExerciseID uint      `json:"exercise_id" gorm:"not null;index"`
	Exercise   Exercise  `json:"exercise,omitempty" gorm:"foreignKey:ExerciseID"`
	Title      string    `json:"title"`
	Order      int       `json:"order" gorm:"column:sort_order;not null;default:0"`
	XPReward   int       `json:"xp_reward" gorm:"not null;default:0"`
	Timestamps
}

func (TrailLesson) TableName() string { return "trail_lessons" }

func (l *TrailLesson) BeforeCreate(tx *gorm.DB) error {
	assignID(&l.ID)
	return nil
}

type LessonProgress struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EnrollmentID uuid.UUID  `json:"enrollment_id" gorm:"type:uuid;not null;uniqueIndex:idx_lesson_progress_enrollment_lesson"`
	LessonID     uuid.UUID  `json:"lesson_id" gorm:"type:uuid;not null;uniqueIndex:idx_lesson_progress_enrollment_lesson;index"`
	Completed    bool       `json:"completed" gorm:"not null;default:false"`
	Score        float64    `json:"score" gorm:"not null;default:0"`
	XPEarned     int        `json:"xp_earned" gorm:"not null;default:0"`
	Attempts     int        `json:"attempts" gorm:"not null;default:0"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Timestamps
}

func (LessonProgress) TableName() string { return "lesson_progress" }

func (p *LessonProgress) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
