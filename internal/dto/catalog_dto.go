package dto

import "time"

type ExerciseSummary struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type QuestionCreateDTO struct {
	Title           string  `json:"title" binding:"required"`
	Statement       string  `json:"statement" binding:"required"`
	Type            string  `json:"type" binding:"required,oneof=code text multiple_choice"`
	ReferenceAnswer *string `json:"reference_answer"`
}

type ExerciseCreateDTO struct {
	Title       string              `json:"title" binding:"required,max=200"`
	Description string              `json:"description"`
	Questions   []QuestionCreateDTO `json:"questions" binding:"required,min=1,dive"`
}

type QuestionResponseDTO struct {
	ID              uint    `json:"id"`
	Title           string  `json:"title"`
	Statement       string  `json:"statement"`
	Type            string  `json:"type"`
	ReferenceAnswer *string `json:"reference_answer,omitempty"`
}

type ExerciseResponseDTO struct {
	ID            uint                  `json:"id"`
	Title         string                `json:"title"`
	Description   string                `json:"description,omitempty"`
	QuestionCount int                   `json:"question_count"`
	Questions     []QuestionResponseDTO `json:"questions,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}
