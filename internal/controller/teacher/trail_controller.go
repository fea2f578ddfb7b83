package teacher

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Classtrail/internal/controller"
	"github.com/lshigami/Classtrail/internal/dto"
	"github.com/lshigami/Classtrail/internal/service"
)

type TrailController struct {
	trails service.TrailService
}

func NewTrailController(trails service.TrailService) *TrailController {
	return &TrailController{trails: trails}
}

// CreateModule godoc
// @Summary (Teacher) Add a module to a classroom trail
// @Tags Teacher - Trail
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Param module body dto.CreateModuleRequest true "Module data"
// @Success 201 {object} dto.ModuleResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /classrooms/{id}/modules [post]
func (c *TrailController) CreateModule(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	classroomID, ok := controller.UUIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.CreateModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "CreateModule", err)
		return
	}
	resp, err := c.trails.CreateModule(ctx.Request.Context(), classroomID, actor, req)
	if err != nil {
		controller.RespondError(ctx, "CreateModule", err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// UpdateModule godoc
// @Summary (Teacher) Update a module
// @Tags Teacher - Trail
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param module_id path string true "Module ID"
// @Param patch body dto.UpdateModuleRequest true "Fields to change"
// @Success 200 {object} dto.ModuleResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /modules/{module_id} [put]
func (c *TrailController) UpdateModule(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	moduleID, ok := controller.UUIDParam(ctx, "module_id")
	if !ok {
		return
	}
	var req dto.UpdateModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "UpdateModule", err)
		return
	}
	resp, err := c.trails.UpdateModule(ctx.Request.Context(), moduleID, actor, req)
	if err != nil {
		controller.RespondError(ctx, "UpdateModule", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeleteModule godoc
// @Summary (Teacher) Deactivate a module
// @Description The module and its lessons disappear from the trail; recorded progress is kept.
// @Tags Teacher - Trail
// @Security BearerAuth
// @Param module_id path string true "Module ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /modules/{module_id} [delete]
func (c *TrailController) DeleteModule(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	moduleID, ok := controller.UUIDParam(ctx, "module_id")
	if !ok {
		return
	}
	if err := c.trails.DeleteModule(ctx.Request.Context(), moduleID, actor); err != nil {
		controller.RespondError(ctx, "DeleteModule", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// CreateLesson godoc
// @Summary (Teacher) Add a lesson to a module
// @Tags Teacher - Trail
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param module_id path string true "Module ID"
// @Param lesson body dto.CreateLessonRequest true "Lesson data"
// @Success 201 {object} dto.LessonResponse
// @Failure 404 {object} dto.ErrorResponse "Module or exercise not found"
// @Router /modules/{module_id}/lessons [post]
func (c *TrailController) CreateLesson(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	moduleID, ok := controller.UUIDParam(ctx, "module_id")
	if !ok {
		return
	}
	var req dto.CreateLessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "CreateLesson", err)
		return
	}
	resp, err := c.trails.CreateLesson(ctx.Request.Context(), moduleID, actor, req)
	if err != nil {
		controller.RespondError(ctx, "CreateLesson", err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// UpdateLesson godoc
// @Summary (Teacher) Update a lesson
// @Tags Teacher - Trail
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param lesson_id path string true "Lesson ID"
// @Param patch body dto.UpdateLessonRequest true "Fields to change"
// @Success 200 {object} dto.LessonResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /lessons/{lesson_id} [put]
func (c *TrailController) UpdateLesson(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	lessonID, ok := controller.UUIDParam(ctx, "lesson_id")
	if !ok {
		return
	}
	var req dto.UpdateLessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "UpdateLesson", err)
		return
	}
	resp, err := c.trails.UpdateLesson(ctx.Request.Context(), lessonID, actor, req)
	if err != nil {
		controller.RespondError(ctx, "UpdateLesson", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeleteLesson godoc
// @Summary (Teacher) Delete a lesson
// @Tags Teacher - Trail
// @Security BearerAuth
// @Param lesson_id path string true "Lesson ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /lessons/{lesson_id} [delete]
func (c *TrailController) DeleteLesson(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	lessonID, ok := controller.UUIDParam(ctx, "lesson_id")
	if !ok {
		return
	}
	if err := c.trails.DeleteLesson(ctx.Request.Context(), lessonID, actor); err != nil {
		controller.RespondError(ctx, "DeleteLesson", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
