package teacher

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lshigami/Classtrail/internal/controller"
	"github.com/lshigami/Classtrail/internal/dto"
	"github.com/lshigami/Classtrail/internal/service"
	"github.com/rs/zerolog/log"
)

type ClassroomController struct {
	classrooms  service.ClassroomService
	enrollments service.EnrollmentService
}

func NewClassroomController(classrooms service.ClassroomService, enrollments service.EnrollmentService) *ClassroomController {
	return &ClassroomController{classrooms: classrooms, enrollments: enrollments}
}

// CreateClassroom godoc
// @Summary (Teacher) Create a classroom
// @Description Creates a classroom owned by the caller with a freshly allocated 8-character access code.
// @Tags Teacher - Classrooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param classroom body dto.CreateClassroomRequest true "Classroom data"
// @Success 201 {object} dto.ClassroomResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse "No unique access code could be allocated"
// @Router /classrooms [post]
func (c *ClassroomController) CreateClassroom(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	var req dto.CreateClassroomRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "CreateClassroom", err)
		return
	}
	resp, err := c.classrooms.Create(ctx.Request.Context(), actor.UserID, req)
	if err != nil {
		controller.RespondError(ctx, "CreateClassroom", err)
		return
	}
	log.Info().Str("classroomID", resp.ID.String()).Msg("Teacher CreateClassroom: created")
	ctx.JSON(http.StatusCreated, resp)
}

// ListOwnedClassrooms godoc
// @Summary (Teacher) List my classrooms
// @Tags Teacher - Classrooms
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.OwnedClassroomResponse
// @Router /classrooms [get]
func (c *ClassroomController) ListOwnedClassrooms(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	resp, err := c.classrooms.ListOwned(ctx.Request.Context(), actor.UserID)
	if err != nil {
		controller.RespondError(ctx, "ListOwnedClassrooms", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetClassroom godoc
// @Summary (Teacher) Get a classroom
// @Description Non-admin callers only see classrooms they own.
// @Tags Teacher - Classrooms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Success 200 {object} dto.ClassroomResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /classrooms/{id} [get]
func (c *ClassroomController) GetClassroom(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	id, ok := controller.UUIDParam(ctx, "id")
	if !ok {
		return
	}
	var requester *uuid.UUID
	if !actor.IsAdmin() {
		requester = &actor.UserID
	}
	resp, err := c.classrooms.Get(ctx.Request.Context(), id, requester)
	if err != nil {
		controller.RespondError(ctx, "GetClassroom", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// UpdateClassroom godoc
// @Summary (Teacher) Update a classroom
// @Tags Teacher - Classrooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Param patch body dto.UpdateClassroomRequest true "Fields to change"
// @Success 200 {object} dto.ClassroomResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /classrooms/{id} [put]
func (c *ClassroomController) UpdateClassroom(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	id, ok := controller.UUIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateClassroomRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "UpdateClassroom", err)
		return
	}
	resp, err := c.classrooms.Update(ctx.Request.Context(), id, actor, req)
	if err != nil {
		controller.RespondError(ctx, "UpdateClassroom", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeactivateClassroom godoc
// @Summary (Teacher) Deactivate a classroom
// @Tags Teacher - Classrooms
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /classrooms/{id} [delete]
func (c *ClassroomController) DeactivateClassroom(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	id, ok := controller.UUIDParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.classrooms.Deactivate(ctx.Request.Context(), id, &actor); err != nil {
		controller.RespondError(ctx, "DeactivateClassroom", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ListRoster godoc
// @Summary (Teacher) List enrolled students
// @Description Students with their progress. Profiles that cannot be resolved show a placeholder name.
// @Tags Teacher - Classrooms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Success 200 {array} dto.RosterEntryResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /classrooms/{id}/students [get]
func (c *ClassroomController) ListRoster(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	id, ok := controller.UUIDParam(ctx, "id")
	if !ok {
		return
	}
	resp, err := c.enrollments.ListRoster(ctx.Request.Context(), id, actor.UserID)
	if err != nil {
		controller.RespondError(ctx, "ListRoster", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// RemoveStudent godoc
// @Summary (Teacher) Remove a student from a classroom
// @Tags Teacher - Classrooms
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Param student_id path string true "Student ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /classrooms/{id}/students/{student_id} [delete]
func (c *ClassroomController) RemoveStudent(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	id, ok := controller.UUIDParam(ctx, "id")
	if !ok {
		return
	}
	studentID, ok := controller.UUIDParam(ctx, "student_id")
	if !ok {
		return
	}
	if err := c.enrollments.Remove(ctx.Request.Context(), id, studentID, actor.UserID); err != nil {
		controller.RespondError(ctx, "RemoveStudent", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// LinkExercise godoc
// @Summary (Teacher) Link a catalog exercise to a classroom
// @Tags Teacher - Classrooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Param link body dto.LinkExerciseRequest true "Exercise link"
// @Success 201 {object} dto.ClassroomExerciseResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Already linked"
// @Router /classrooms/{id}/exercises [post]
func (c *ClassroomController) LinkExercise(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	id, ok := controller.UUIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.LinkExerciseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "LinkExercise", err)
		return
	}
	resp, err := c.classrooms.LinkExercise(ctx.Request.Context(), id, actor, req)
	if err != nil {
		controller.RespondError(ctx, "LinkExercise", err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// UnlinkExercise godoc
// @Summary (Teacher) Remove an exercise from a classroom
// @Tags Teacher - Classrooms
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Param exercise_id path int true "Exercise ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /classrooms/{id}/exercises/{exercise_id} [delete]
func (c *ClassroomController) UnlinkExercise(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	id, ok := controller.UUIDParam(ctx, "id")
	if !ok {
		return
	}
	exerciseID, ok := controller.UintParam(ctx, "exercise_id")
	if !ok {
		return
	}
	if err := c.classrooms.UnlinkExercise(ctx.Request.Context(), id, actor, exerciseID); err != nil {
		controller.RespondError(ctx, "UnlinkExercise", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
