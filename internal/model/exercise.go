package model

import "time"

const (
	QuestionTypeCode           = "code"
	QuestionTypeText           = "text"
	QuestionTypeMultipleChoice = "multiple_choice"
)

type Exercise struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description,omitempty" gorm:"type:text"`
	Questions   []Question `json:"questions,omitempty" gorm:"many2many:exercise_questions;"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Exercise) TableName() string { return "exercises" }

type Question struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	Title           string    `json:"title" gorm:"not null"`
	Statement       string    `json:"statement" gorm:"type:text;not null"`
	Type            string    `json:"type" gorm:"not null;default:'code'"` // "code", "text", "multiple_choice"
	ReferenceAnswer *string   `json:"reference_answer,omitempty" gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Question) TableName() string { return "questions" }

// IsCode reports whether answers to the question go through automatic evaluation.
func (q Question) IsCode() bool {
	return q.Type == QuestionTypeCode
}

// ExerciseQuestion is the join row between exercises and questions.
type ExerciseQuestion struct {
	ExerciseID uint `gorm:"primaryKey" json:"exercise_id"`
	QuestionID uint `gorm:"primaryKey" json:"question_id"`
	Order      int  `json:"order" gorm:"column:sort_order;not null;default:0"`
}

func (ExerciseQuestion) TableName() string { return "exercise_questions" }
