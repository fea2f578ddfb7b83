package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrValidation     = errors.New("validation failed")
	ErrCodeExhaustion = errors.New("could not allocate a unique access code")
)

var (
	ErrClassroomNotFound       = fmt.Errorf("classroom %w", ErrNotFound)
	ErrDefaultClassroomMissing = fmt.Errorf("default classroom %w", ErrNotFound)
	ErrEnrollmentNotFound      = fmt.Errorf("enrollment %w", ErrNotFound)
	ErrNotEnrolled             = fmt.Errorf("student is not enrolled: %w", ErrNotFound)
	ErrModuleNotFound          = fmt.Errorf("module %w", ErrNotFound)
	ErrLessonNotFound          = fmt.Errorf("lesson %w", ErrNotFound)
	ErrExerciseNotFound        = fmt.Errorf("exercise %w", ErrNotFound)
	ErrExerciseLinkNotFound    = fmt.Errorf("exercise link %w", ErrNotFound)
	ErrQuestionNotFound        = fmt.Errorf("question %w", ErrNotFound)
	ErrStudentNotFound         = fmt.Errorf("student %w", ErrNotFound)
	ErrAttemptNotFound         = fmt.Errorf("attempt %w", ErrNotFound)
	ErrAnswerNotFound          = fmt.Errorf("answer %w", ErrNotFound)

	ErrAlreadyEnrolled         = fmt.Errorf("student already enrolled: %w", ErrConflict)
	ErrAttemptAlreadyCompleted = fmt.Errorf("attempt already completed: %w", ErrConflict)
	ErrExerciseAlreadyLinked   = fmt.Errorf("exercise already linked to classroom: %w", ErrConflict)
	ErrCriterionExists         = fmt.Errorf("criterion name already used: %w", ErrConflict)

	ErrInvalidAccessCode = fmt.Errorf("access code must have 8 characters: %w", ErrValidation)
)

// validationError builds a caller-correctable error for a single field.
func validationError(field, reason string) error {
	return fmt.Errorf("%s %s: %w", field, reason, ErrValidation)
}
