package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/Classtrail/config"
	"github.com/lshigami/Classtrail/database"
	_ "github.com/lshigami/Classtrail/docs" // Swagger docs
	"github.com/lshigami/Classtrail/internal/controller"
	adminctrl "github.com/lshigami/Classtrail/internal/controller/admin"
	"github.com/lshigami/Classtrail/internal/controller/middleware"
	teacherctrl "github.com/lshigami/Classtrail/internal/controller/teacher"
	userctrl "github.com/lshigami/Classtrail/internal/controller/user"
	"github.com/lshigami/Classtrail/internal/logger"
	"github.com/lshigami/Classtrail/internal/repository"
	"github.com/lshigami/Classtrail/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Classtrail API
// @version 1.0
// @description Classrooms, learning trails, progress tracking and automated grading of exercise answers.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		// Repositories Layer
		fx.Provide(
			repository.NewUserRepository,
			repository.NewClassroomRepository,
			repository.NewEnrollmentRepository,
			repository.NewTrailRepository,
			repository.NewProgressRepository,
			repository.NewCatalogRepository,
			repository.NewAttemptRepository,
			repository.NewAnswerRepository,
			repository.NewEvaluationRepository,
			repository.NewCriterionRepository,
		),

		// Services Layer
		fx.Provide(
			func(classroomRepo repository.ClassroomRepository, cfg *config.Config) service.CodeGenerator {
				return service.NewCodeGenerator(classroomRepo, cfg)
			},
			service.NewBackgroundRunner,
			func(r *service.BackgroundRunner) service.TaskRunner { return r },
			service.NewGeminiEvaluator,
			service.NewUserDirectory,
			service.NewClassroomService,
			service.NewProgressService,
			service.NewEnrollmentService,
			service.NewTrailService,
			service.NewCatalogService,
			service.NewCriteriaService,
			service.NewAttemptService,
			service.NewGradingService,
			service.NewEvaluationSweeper,
		),

		// API Controllers Layer
		fx.Provide(
			middleware.NewAuth,
			adminctrl.NewAdminController,
			teacherctrl.NewClassroomController,
			teacherctrl.NewTrailController,
			userctrl.NewClassroomController,
			userctrl.NewAttemptController,
		),

		fx.Invoke(AutoMigrateDB),
		fx.Invoke(SeedCriteria),
		fx.Invoke(ManageBackgroundWork),
		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Application stop failed")
	}
}

func NewGinEngine() (*gin.Engine, error) {
	if err := controller.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// URL: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r, nil
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	auth *middleware.Auth,
	adminCtrl *adminctrl.AdminController,
	classroomCtrl *teacherctrl.ClassroomController,
	trailCtrl *teacherctrl.TrailController,
	studentCtrl *userctrl.ClassroomController,
	attemptCtrl *userctrl.AttemptController,
) {
	api := router.Group("/api/v1", auth.RequireAuth())

	// Admin Routes (prefixed with /api/v1/admin)
	adminGroup := api.Group("/admin", middleware.RequireRole(service.RoleAdmin))
	{
		adminGroup.PUT("/classrooms/:id/default", adminCtrl.SetDefaultClassroom)
		adminGroup.DELETE("/classrooms/:id", adminCtrl.DeactivateClassroom)
		adminGroup.GET("/criteria", adminCtrl.ListCriteria)
		adminGroup.POST("/criteria", adminCtrl.CreateCriterion)
		adminGroup.POST("/exercises", adminCtrl.CreateExercise)
		adminGroup.DELETE("/exercises/:exercise_id", adminCtrl.DeleteExercise)
	}

	// Teacher Routes
	staff := api.Group("", middleware.RequireRole(service.RoleTeacher, service.RoleAdmin))
	{
		staff.POST("/classrooms", classroomCtrl.CreateClassroom)
		staff.GET("/classrooms", classroomCtrl.ListOwnedClassrooms)
		staff.GET("/classrooms/:id", classroomCtrl.GetClassroom)
		staff.PUT("/classrooms/:id", classroomCtrl.UpdateClassroom)
		staff.DELETE("/classrooms/:id", classroomCtrl.DeactivateClassroom)
		staff.GET("/classrooms/:id/students", classroomCtrl.ListRoster)
		staff.DELETE("/classrooms/:id/students/:student_id", classroomCtrl.RemoveStudent)
		staff.POST("/classrooms/:id/exercises", classroomCtrl.LinkExercise)
		staff.DELETE("/classrooms/:id/exercises/:exercise_id", classroomCtrl.UnlinkExercise)

		staff.POST("/classrooms/:id/modules", trailCtrl.CreateModule)
		staff.PUT("/modules/:module_id", trailCtrl.UpdateModule)
		staff.DELETE("/modules/:module_id", trailCtrl.DeleteModule)
		staff.POST("/modules/:module_id/lessons", trailCtrl.CreateLesson)
		staff.PUT("/lessons/:lesson_id", trailCtrl.UpdateLesson)
		staff.DELETE("/lessons/:lesson_id", trailCtrl.DeleteLesson)
	}

	// Student Routes
	{
		api.POST("/classrooms/join", studentCtrl.JoinClassroom)
		api.GET("/classrooms/default", studentCtrl.GetDefaultClassroom)
		api.POST("/classrooms/default/join", studentCtrl.JoinDefaultClassroom)
		api.GET("/me/classrooms", studentCtrl.ListMyClassrooms)
		api.GET("/classrooms/:id/exercises", studentCtrl.ListClassroomExercises)
		api.GET("/classrooms/:id/trail", studentCtrl.GetTrail)
		api.GET("/classrooms/:id/progress", studentCtrl.GetMyProgress)
		api.POST("/classrooms/:id/lessons/:lesson_id/progress", studentCtrl.RecordProgress)

		api.GET("/exercises", attemptCtrl.ListExercises)
		api.GET("/exercises/:exercise_id", attemptCtrl.GetExercise)
		api.GET("/exercises/:exercise_id/attempt", attemptCtrl.GetAttemptStatus)
		api.POST("/exercises/:exercise_id/attempt/start", attemptCtrl.StartAttempt)
		api.POST("/exercises/:exercise_id/attempt/finalize", attemptCtrl.FinalizeAttempt)
		api.GET("/me/attempts", attemptCtrl.ListMyAttempts)
		api.GET("/me/attempts/completed", attemptCtrl.ListMyCompletedAttempts)
		api.GET("/me/attempts/summary", attemptCtrl.GetMyAttemptSummary)
		api.POST("/attempts/:attempt_id/answers", attemptCtrl.SubmitAnswer)
		api.GET("/attempts/:attempt_id/answers", attemptCtrl.ListAnswers)
		api.POST("/attempts/:attempt_id/check-completion", attemptCtrl.CheckCompletion)
		api.GET("/answers/:answer_id/message", attemptCtrl.GetEncouragement)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Classtrail API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

// ManageBackgroundWork starts the evaluation sweeper and drains in-flight evaluations on shutdown.
// Hooks stop in reverse order, so this runs after the HTTP server stopped accepting answers.
func ManageBackgroundWork(lc fx.Lifecycle, sweeper *service.EvaluationSweeper, runner *service.BackgroundRunner, db *gorm.DB) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return sweeper.Start()
		},
		OnStop: func(ctx context.Context) error {
			if err := sweeper.Stop(ctx); err != nil {
				log.Warn().Err(err).Msg("Evaluation sweeper did not stop in time")
			}
			if err := runner.Shutdown(ctx); err != nil {
				log.Warn().Err(err).Msg("Pending evaluations were cancelled")
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	return database.AutoMigrate(db)
}

// SeedCriteria makes sure the default rubric exists before the first answer is graded.
func SeedCriteria(lc fx.Lifecycle, criteria service.CriteriaService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			seeded, err := criteria.EnsureDefaultCriteria(ctx)
			if err != nil {
				return err
			}
			log.Info().Int("criteria", len(seeded)).Msg("Evaluation criteria ready")
			return nil
		},
	})
}
