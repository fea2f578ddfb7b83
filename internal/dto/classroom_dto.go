package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateClassroomRequest struct {
	Name        string `json:"name" binding:"required,max=120"`
	Description string `json:"description" binding:"max=2000"`
}

// UpdateClassroomRequest only changes the fields that are present.
type UpdateClassroomRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=120"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Active      *bool   `json:"active"`
}

type ClassroomResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	AccessCode  string    `json:"access_code"`
	OwnerID     uuid.UUID `json:"owner_id"`
	IsDefault   bool      `json:"is_default"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type OwnedClassroomResponse struct {
	ClassroomResponse
	StudentCount int64 `json:"student_count"`
	ModuleCount  int64 `json:"module_count"`
}

type JoinClassroomRequest struct {
	AccessCode string `json:"access_code" binding:"required,accesscode"`
}

type StudentClassroomResponse struct {
	EnrollmentID     uuid.UUID         `json:"enrollment_id"`
	EnrolledAt       time.Time         `json:"enrolled_at"`
	Classroom        ClassroomResponse `json:"classroom"`
	CompletedLessons int64             `json:"completed_lessons"`
	TotalXP          int64             `json:"total_xp"`
}

type RosterEntryResponse struct {
	EnrollmentID uuid.UUID `json:"enrollment_id"`
	StudentID    uuid.UUID `json:"student_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	EnrolledAt   time.Time `json:"enrolled_at"`
	// Progress over the active modules of the classroom.
	CompletedLessons int64 `json:"completed_lessons"`
	TotalLessons     int64 `json:"total_lessons"`
	Percent          int   `json:"percent"`
	TotalXP          int64 `json:"total_xp"`
	// ProfileResolved is false when the identity lookup failed and a placeholder is shown.
	ProfileResolved bool `json:"profile_resolved"`
}

type LinkExerciseRequest struct {
	ExerciseID uint `json:"exercise_id" binding:"required"`
	Order      int  `json:"order" binding:"min=0"`
	Required   bool `json:"required"`
}

type ClassroomExerciseResponse struct {
	ClassroomID uuid.UUID       `json:"classroom_id"`
	ExerciseID  uint            `json:"exercise_id"`
	Order       int             `json:"order"`
	Required    bool            `json:"required"`
	Exercise    ExerciseSummary `json:"exercise"`
	CreatedAt   time.Time       `json:"linked_at"`
}
