package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateModuleRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description"`
	Icon        string `json:"icon" binding:"max=64"`
	Order       int    `json:"order" binding:"min=0"`
	XPReward    int    `json:"xp_reward" binding:"min=0"`
}

type UpdateModuleRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
	Icon        *string `json:"icon" binding:"omitempty,max=64"`
	Order       *int    `json:"order" binding:"omitempty,min=0"`
	XPReward    *int    `json:"xp_reward" binding:"omitempty,min=0"`
	Active      *bool   `json:"active"`
}

type ModuleResponse struct {
	ID          uuid.UUID `json:"id"`
	ClassroomID uuid.UUID `json:"classroom_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Order       int       `json:"order"`
	XPReward    int       `json:"xp_reward"`
	Active      bool      `json:"active"`
}

type CreateLessonRequest struct {
	ExerciseID uint   `json:"exercise_id" binding:"required"`
	Title      string `json:"title" binding:"max=200"`
	Order      int    `json:"order" binding:"min=0"`
	XPReward   int    `json:"xp_reward" binding:"min=0"`
}

type UpdateLessonRequest struct {
	Title    *string `json:"title" binding:"omitempty,max=200"`
	Order    *int    `json:"order" binding:"omitempty,min=0"`
	XPReward *int    `json:"xp_reward" binding:"omitempty,min=0"`
}

type LessonResponse struct {
	ID         uuid.UUID `json:"id"`
	ModuleID   uuid.UUID `json:"module_id"`
	ExerciseID uint      `json:"exercise_id"`
	Title      string    `json:"title,omitempty"`
	Order      int       `json:"order"`
	XPReward   int       `json:"xp_reward"`
}

type TrailLessonResponse struct {
	LessonResponse
	Exercise ExerciseSummary `json:"exercise"`
}

type TrailModuleResponse struct {
	ModuleResponse
	Lessons []TrailLessonResponse `json:"lessons"`
}

type TrailResponse struct {
	ClassroomID uuid.UUID             `json:"classroom_id"`
	Modules     []TrailModuleResponse `json:"modules"`
}

type RecordProgressRequest struct {
	Completed bool    `json:"completed"`
	Score     float64 `json:"score" binding:"min=0,max=100"`
}

type LessonProgressResponse struct {
	ID           uuid.UUID  `json:"id"`
	EnrollmentID uuid.UUID  `json:"enrollment_id"`
	LessonID     uuid.UUID  `json:"lesson_id"`
	Completed    bool       `json:"completed"`
	Score        float64    `json:"score"`
	XPEarned     int        `json:"xp_earned"`
	Attempts     int        `json:"attempts"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

type RecordProgressResponse struct {
	Progress LessonProgressResponse `json:"progress"`
	// XPAwarded is the XP computed by this call, not the running total.
	XPAwarded int `json:"xp_awarded"`
}

type LessonProgressView struct {
	TrailLessonResponse
	Completed   bool       `json:"completed"`
	Score       float64    `json:"score"`
	XPEarned    int        `json:"xp_earned"`
	Attempts    int        `json:"attempts"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type ModuleProgressView struct {
	ModuleResponse
	Completed bool                 `json:"completed"`
	Lessons   []LessonProgressView `json:"lessons"`
}

type StudentProgressResponse struct {
	ClassroomID      uuid.UUID            `json:"classroom_id"`
	StudentID        uuid.UUID            `json:"student_id"`
	Modules          []ModuleProgressView `json:"modules"`
	TotalLessons     int                  `json:"total_lessons"`
	CompletedLessons int                  `json:"completed_lessons"`
	Percent          int                  `json:"percent"`
	TotalXP          int                  `json:"total_xp"`
}
