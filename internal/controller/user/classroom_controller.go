package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Classtrail/internal/controller"
	"github.com/lshigami/Classtrail/internal/dto"
	"github.com/lshigami/Classtrail/internal/service"
	"github.com/rs/zerolog/log"
)

type ClassroomController struct {
	classrooms  service.ClassroomService
	enrollments service.EnrollmentService
	progress    service.ProgressService
}

func NewClassroomController(
	classrooms service.ClassroomService,
	enrollments service.EnrollmentService,
	progress service.ProgressService,
) *ClassroomController {
	return &ClassroomController{classrooms: classrooms, enrollments: enrollments, progress: progress}
}

// JoinClassroom godoc
// @Summary (Student) Join a classroom with its access code
// @Description The code is case-insensitive and surrounding whitespace is ignored.
// @Tags Student - Classrooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param join body dto.JoinClassroomRequest true "Access code"
// @Success 200 {object} dto.ClassroomResponse
// @Failure 400 {object} dto.ErrorResponse "Malformed access code"
// @Failure 404 {object} dto.ErrorResponse "Unknown or inactive classroom"
// @Failure 409 {object} dto.ErrorResponse "Already enrolled"
// @Router /classrooms/join [post]
func (c *ClassroomController) JoinClassroom(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	var req dto.JoinClassroomRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "JoinClassroom", err)
		return
	}
	resp, err := c.enrollments.Join(ctx.Request.Context(), actor.UserID, req.AccessCode)
	if err != nil {
		controller.RespondError(ctx, "JoinClassroom", err)
		return
	}
	log.Info().Str("studentID", actor.UserID.String()).Str("classroomID", resp.ID.String()).Msg("Student joined classroom")
	ctx.JSON(http.StatusOK, resp)
}

// JoinDefaultClassroom godoc
// @Summary (Student) Join the default classroom
// @Tags Student - Classrooms
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ClassroomResponse
// @Failure 404 {object} dto.ErrorResponse "No default classroom configured"
// @Failure 409 {object} dto.ErrorResponse "Already enrolled"
// @Router /classrooms/default/join [post]
func (c *ClassroomController) JoinDefaultClassroom(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	resp, err := c.enrollments.EnsureDefaultEnrollment(ctx.Request.Context(), actor.UserID)
	if err != nil {
		controller.RespondError(ctx, "JoinDefaultClassroom", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetDefaultClassroom godoc
// @Summary Get the default classroom
// @Tags Student - Classrooms
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ClassroomResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /classrooms/default [get]
func (c *ClassroomController) GetDefaultClassroom(ctx *gin.Context) {
	resp, err := c.classrooms.GetDefault(ctx.Request.Context())
	if err != nil {
		controller.RespondError(ctx, "GetDefaultClassroom", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListMyClassrooms godoc
// @Summary (Student) List the classrooms I am enrolled in
// @Tags Student - Classrooms
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.StudentClassroomResponse
// @Router /me/classrooms [get]
func (c *ClassroomController) ListMyClassrooms(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	resp, err := c.enrollments.ListForStudent(ctx.Request.Context(), actor.UserID)
	if err != nil {
		controller.RespondError(ctx, "ListMyClassrooms", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListClassroomExercises godoc
// @Summary List exercises linked to a classroom
// @Tags Student - Classrooms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Success 200 {array} dto.ClassroomExerciseResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /classrooms/{id}/exercises [get]
func (c *ClassroomController) ListClassroomExercises(ctx *gin.Context) {
	id, ok := controller.UUIDParam(ctx, "id")
	if !ok {
		return
	}
	resp, err := c.classrooms.ListExercises(ctx.Request.Context(), id)
	if err != nil {
		controller.RespondError(ctx, "ListClassroomExercises", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetTrail godoc
// @Summary Get the learning trail of a classroom
// @Description Active modules in order, each with its lessons in order.
// @Tags Student - Trail
// @Produce json
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Success 200 {object} dto.TrailResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /classrooms/{id}/trail [get]
func (c *ClassroomController) GetTrail(ctx *gin.Context) {
	id, ok := controller.UUIDParam(ctx, "id")
	if !ok {
		return
	}
	resp, err := c.progress.GetTrail(ctx.Request.Context(), id)
	if err != nil {
		controller.RespondError(ctx, "GetTrail", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetMyProgress godoc
// @Summary (Student) Get my progress in a classroom
// @Tags Student - Trail
// @Produce json
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Success 200 {object} dto.StudentProgressResponse
// @Failure 404 {object} dto.ErrorResponse "Not enrolled"
// @Router /classrooms/{id}/progress [get]
func (c *ClassroomController) GetMyProgress(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	id, ok := controller.UUIDParam(ctx, "id")
	if !ok {
		return
	}
	resp, err := c.progress.GetStudentProgress(ctx.Request.Context(), id, actor.UserID)
	if err != nil {
		controller.RespondError(ctx, "GetMyProgress", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// RecordProgress godoc
// @Summary (Student) Record the outcome of a lesson
// @Description Re-submitting a lesson increments its attempt counter; XP reflects the latest score only.
// @Tags Student - Trail
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Param lesson_id path string true "Lesson ID"
// @Param progress body dto.RecordProgressRequest true "Lesson outcome"
// @Success 200 {object} dto.RecordProgressResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /classrooms/{id}/lessons/{lesson_id}/progress [post]
func (c *ClassroomController) RecordProgress(ctx *gin.Context) {
	actor, ok := controller.Actor(ctx)
	if !ok {
		return
	}
	id, ok := controller.UUIDParam(ctx, "id")
	if !ok {
		return
	}
	lessonID, ok := controller.UUIDParam(ctx, "lesson_id")
	if !ok {
		return
	}
	var req dto.RecordProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "RecordProgress", err)
		return
	}
	resp, err := c.progress.RecordProgress(ctx.Request.Context(), id, lessonID, actor.UserID, req)
	if err != nil {
		controller.RespondError(ctx, "RecordProgress", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
