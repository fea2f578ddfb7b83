package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AttemptStatusInProgress = "in_progress"
	AttemptStatusCompleted  = "completed"
)

type ExerciseAttempt struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID  uuid.UUID  `json:"student_id" gorm:"type:uuid;not null;uniqueIndex:idx_attempts_student_exercise"`
	ExerciseID uint       `json:"exercise_id" gorm:"not null;uniqueIndex:idx_attempts_student_exercise;index"`
	Exercise   Exercise   `json:"exercise,omitempty" gorm:"foreignKey:ExerciseID"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status" gorm:"not null;default:'in_progress'"` // "in_progress", "completed"
	Timestamps
}

func (ExerciseAttempt) TableName() string { return "exercise_attempts" }

func (a *ExerciseAttempt) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}

func (a ExerciseAttempt) IsCompleted() bool {
	return a.Status == AttemptStatusCompleted
}

// Answers are append-only: each submission adds a row.
type Answer struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	AttemptID   uuid.UUID    `json:"attempt_id" gorm:"type:uuid;not null;index"`
	QuestionID  uint         `json:"question_id" gorm:"not null;index"`
	Question    Question     `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	Text        string       `json:"text" gorm:"type:text;not null"`
	SubmittedAt time.Time    `json:"submitted_at" gorm:"not null;index"`
	Evaluations []Evaluation `json:"evaluations,omitempty" gorm:"foreignKey:AnswerID"`
	Timestamps
}

func (Answer) TableName() string { return "answers" }

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	if a.SubmittedAt.IsZero() {
		a.SubmittedAt = time.Now()
	}
	return nil
}

type Evaluation struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	AnswerID    uuid.UUID                   `json:"answer_id" gorm:"type:uuid;not null;uniqueIndex:idx_evaluations_answer_criterion"`
	CriterionID uuid.UUID                   `json:"criterion_id" gorm:"type:uuid;not null;uniqueIndex:idx_evaluations_answer_criterion"`
	Criterion   Criterion                   `json:"criterion,omitempty" gorm:"foreignKey:CriterionID"`
	Approved    bool                        `json:"approved" gorm:"not null;default:false"`
	Score       float64                     `json:"score" gorm:"not null;default:0"`
	Feedback    string                      `json:"feedback" gorm:"type:text"`
	Suggestions datatypes.JSONSlice[string] `json:"suggestions" gorm:"type:jsonb"`
	EvaluatedAt time.Time                   `json:"evaluated_at" gorm:"not null"`
	Timestamps
}

func (Evaluation) TableName() string { return "evaluations" }

func (e *Evaluation) BeforeCreate(tx *gorm.DB) error {
	assignID(&e.ID)
	if e.EvaluatedAt.IsZero() {
		e.EvaluatedAt = time.Now()
	}
	return nil
}

type Criterion struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `json:"name" gorm:"not null;uniqueIndex"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	Weight      float64   `json:"weight" gorm:"not null"`
	Timestamps
}

func (Criterion) TableName() string { return "criteria" }

func (c *Criterion) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}
