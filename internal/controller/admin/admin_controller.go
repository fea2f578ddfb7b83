package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Classtrail/internal/controller"
	"github.com/lshigami/Classtrail/internal/dto"
	"github.com/lshigami/Classtrail/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminController struct {
	classrooms service.ClassroomService
	criteria   service.CriteriaService
	catalog    service.CatalogService
}

func NewAdminController(classrooms service.ClassroomService, criteria service.CriteriaService, catalog service.CatalogService) *AdminController {
	return &AdminController{classrooms: classrooms, criteria: criteria, catalog: catalog}
}

// SetDefaultClassroom godoc
// @Summary (Admin) Make a classroom the default one
// @Description Exactly one classroom is default afterwards.
// @Tags Admin - Classrooms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Success 200 {object} dto.ClassroomResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/classrooms/{id}/default [put]
func (c *AdminController) SetDefaultClassroom(ctx *gin.Context) {
	id, ok := controller.UUIDParam(ctx, "id")
	if !ok {
		return
	}
	resp, err := c.classrooms.SetDefault(ctx.Request.Context(), id)
	if err != nil {
		controller.RespondError(ctx, "Admin SetDefaultClassroom", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeactivateClassroom godoc
// @Summary (Admin) Deactivate any classroom
// @Tags Admin - Classrooms
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/classrooms/{id} [delete]
func (c *AdminController) DeactivateClassroom(ctx *gin.Context) {
	id, ok := controller.UUIDParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.classrooms.Deactivate(ctx.Request.Context(), id, nil); err != nil {
		controller.RespondError(ctx, "Admin DeactivateClassroom", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ListCriteria godoc
// @Summary (Admin) List evaluation criteria
// @Tags Admin - Criteria
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.CriterionResponse
// @Router /admin/criteria [get]
func (c *AdminController) ListCriteria(ctx *gin.Context) {
	resp, err := c.criteria.List(ctx.Request.Context())
	if err != nil {
		controller.RespondError(ctx, "Admin ListCriteria", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// CreateCriterion godoc
// @Summary (Admin) Create an evaluation criterion
// @Tags Admin - Criteria
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param criterion body dto.CreateCriterionRequest true "Criterion with weight between 0.1 and 1.0"
// @Success 201 {object} dto.CriterionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Name already used"
// @Router /admin/criteria [post]
func (c *AdminController) CreateCriterion(ctx *gin.Context) {
	var req dto.CreateCriterionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "Admin CreateCriterion", err)
		return
	}
	resp, err := c.criteria.Create(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, "Admin CreateCriterion", err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// CreateExercise godoc
// @Summary (Admin) Create an exercise with its questions
// @Tags Admin - Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exercise body dto.ExerciseCreateDTO true "Exercise with at least one question"
// @Success 201 {object} dto.ExerciseResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/exercises [post]
func (c *AdminController) CreateExercise(ctx *gin.Context) {
	var req dto.ExerciseCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "Admin CreateExercise", err)
		return
	}
	resp, err := c.catalog.CreateExercise(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, "Admin CreateExercise", err)
		return
	}
	log.Info().Uint("exerciseID", resp.ID).Msg("Admin CreateExercise: created")
	ctx.JSON(http.StatusCreated, resp)
}

// DeleteExercise godoc
// @Summary (Admin) Delete an exercise
// @Description Removes attempts, answers, evaluations, trail lessons and classroom links of the exercise in one transaction.
// @Tags Admin - Exercises
// @Security BearerAuth
// @Param exercise_id path int true "Exercise ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/exercises/{exercise_id} [delete]
func (c *AdminController) DeleteExercise(ctx *gin.Context) {
	exerciseID, ok := controller.UintParam(ctx, "exercise_id")
	if !ok {
		return
	}
	if err := c.catalog.DeleteExercise(ctx.Request.Context(), exerciseID); err != nil {
		controller.RespondError(ctx, "Admin DeleteExercise", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
