package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Classtrail/internal/controller"
	"github.com/lshigami/Classtrail/internal/dto"
	"github.com/lshigami/Classtrail/internal/service"
)

type AttemptController struct {
	attempts service.AttemptService
	grading  service.GradingService
	catalog  service.CatalogService
}

func NewAttemptController(attempts service.AttemptService, grading service.GradingService, catalog service.CatalogService) *AttemptController {
	return &AttemptController{attempts: attempts, grading: grading, catalog: catalog}
}

// ListExercises godoc
// @Summary List catalog exercises
// @Tags Student - Exercises
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.ExerciseResponseDTO
// @Router /exercises [get]
func (c *AttemptController) ListExercises(ctx *gin.Context) {
	resp, err := c.catalog.ListExercises(ctx.Request.Context())
	if err != nil {
		controller.RespondError(ctx, "ListExercises", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetExercise godoc
// @Summary Get an exercise with its questions
// @Tags Student - Exercises
// @Produce json
// @Security BearerAuth
// @Param exercise_id path int true "Exercise ID"
// @Success 200 {object} dto.ExerciseResponseDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /exercises/{exercise_id} [get]
func (c *AttemptController) GetExercise(ctx *gin.Context) {
	exerciseID, ok := controller.UintParam(ctx, "exercise_id")
	if !ok {
		return
	}
	resp, err := c.catalog.GetExercise(ctx.Request.Context(), exerciseID)
	if err != nil {
		controller.RespondError(ctx, "GetExercise", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// StartAttempt godoc
// @Summary (Student) Start an exercise
// @Description Returns the existing attempt when one was already started.
// @Tags Student - Attempts
// @Produce json
// @Security BearerAuth
// @Param exercise_id path int true "Exercise ID"
// @Success 200 {object} dto.AttemptResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /exercises/{exercise_id}/attempt/start [post]
func (c *AttemptController) StartAttempt(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	exerciseID, ok := controller.UintParam(ctx, "exercise_id")
	if !ok {
		return
	}
	resp, err := c.attempts.Start(ctx.Request.Context(), actor.UserID, exerciseID)
	if err != nil {
		controller.RespondError(ctx, "StartAttempt", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// FinalizeAttempt godoc
// @Summary (Student) Finish an exercise
// @Tags Student - Attempts
// @Produce json
// @Security BearerAuth
// @Param exercise_id path int true "Exercise ID"
// @Success 200 {object} dto.FinalizeAttemptResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Attempt already completed"
// @Router /exercises/{exercise_id}/attempt/finalize [post]
func (c *AttemptController) FinalizeAttempt(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	exerciseID, ok := controller.UintParam(ctx, "exercise_id")
	if !ok {
		return
	}
	resp, err := c.attempts.Finalize(ctx.Request.Context(), actor.UserID, exerciseID)
	if err != nil {
		controller.RespondError(ctx, "FinalizeAttempt", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetAttemptStatus godoc
// @Summary (Student) Get my attempt status for an exercise
// @Tags Student - Attempts
// @Produce json
// @Security BearerAuth
// @Param exercise_id path int true "Exercise ID"
// @Success 200 {object} dto.AttemptStatusResponse
// @Router /exercises/{exercise_id}/attempt [get]
func (c *AttemptController) GetAttemptStatus(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	exerciseID, ok := controller.UintParam(ctx, "exercise_id")
	if !ok {
		return
	}
	resp, err := c.attempts.Status(ctx.Request.Context(), actor.UserID, exerciseID)
	if err != nil {
		controller.RespondError(ctx, "GetAttemptStatus", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListMyAttempts godoc
// @Summary (Student) List my attempts, newest first
// @Tags Student - Attempts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.AttemptResponse
// @Router /me/attempts [get]
func (c *AttemptController) ListMyAttempts(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	resp, err := c.attempts.ListForStudent(ctx.Request.Context(), actor.UserID)
	if err != nil {
		controller.RespondError(ctx, "ListMyAttempts", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListMyCompletedAttempts godoc
// @Summary (Student) List my completed attempts with their statistics
// @Tags Student - Attempts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.CompletedAttemptResponse
// @Router /me/attempts/completed [get]
func (c *AttemptController) ListMyCompletedAttempts(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	resp, err := c.attempts.ListCompleted(ctx.Request.Context(), actor.UserID)
	if err != nil {
		controller.RespondError(ctx, "ListMyCompletedAttempts", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetMyAttemptSummary godoc
// @Summary (Student) Totals over all my attempts
// @Tags Student - Attempts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.AttemptSummaryResponse
// @Router /me/attempts/summary [get]
func (c *AttemptController) GetMyAttemptSummary(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	resp, err := c.attempts.Summary(ctx.Request.Context(), actor.UserID)
	if err != nil {
		controller.RespondError(ctx, "GetMyAttemptSummary", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SubmitAnswer godoc
// @Summary (Student) Submit an answer
// @Description Code answers are evaluated in the background; poll the answers list or the completion check for the outcome.
// @Tags Student - Answers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Param answer body dto.SubmitAnswerRequest true "Answer"
// @Success 202 {object} dto.AnswerResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /attempts/{attempt_id}/answers [post]
func (c *AttemptController) SubmitAnswer(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	attemptID, ok := controller.UUIDParam(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "SubmitAnswer", err)
		return
	}
	resp, err := c.grading.SubmitAnswer(ctx.Request.Context(), actor.UserID, attemptID, req)
	if err != nil {
		controller.RespondError(ctx, "SubmitAnswer", err)
		return
	}
	ctx.JSON(http.StatusAccepted, resp)
}

// ListAnswers godoc
// @Summary (Student) List the answers of an attempt in submission order
// @Tags Student - Answers
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {array} dto.AnswerResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /attempts/{attempt_id}/answers [get]
func (c *AttemptController) ListAnswers(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	attemptID, ok := controller.UUIDParam(ctx, "attempt_id")
	if !ok {
		return
	}
	resp, err := c.grading.ListAnswers(ctx.Request.Context(), attemptID, actor.UserID)
	if err != nil {
		controller.RespondError(ctx, "ListAnswers", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// CheckCompletion godoc
// @Summary (Student) Check whether an attempt can be completed automatically
// @Description Completes the attempt when every question's latest answer is evaluated and approved.
// @Tags Student - Answers
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {object} dto.CompletionCheckResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Attempt already completed"
// @Router /attempts/{attempt_id}/check-completion [post]
func (c *AttemptController) CheckCompletion(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	attemptID, ok := controller.UUIDParam(ctx, "attempt_id")
	if !ok {
		return
	}
	resp, err := c.grading.CheckCompletion(ctx.Request.Context(), attemptID, actor.UserID)
	if err != nil {
		controller.RespondError(ctx, "CheckCompletion", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetEncouragement godoc
// @Summary (Student) Get a motivational message for an answer
// @Tags Student - Answers
// @Produce json
// @Security BearerAuth
// @Param answer_id path string true "Answer ID"
// @Success 200 {object} dto.EncouragementResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /answers/{answer_id}/message [get]
func (c *AttemptController) GetEncouragement(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	answerID, ok := controller.UUIDParam(ctx, "answer_id")
	if !ok {
		return
	}
	resp, err := c.grading.Encouragement(ctx.Request.Context(), answerID, actor.UserID)
	if err != nil {
		controller.RespondError(ctx, "GetEncouragement", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
