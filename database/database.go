package database

import (
	"time"

	"github.com/lshigami/Classtrail/config"
	"github.com/lshigami/Classtrail/internal/model"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the postgres connection used by every repository.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql.DB")
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := db.SetupJoinTable(&model.Exercise{}, "Questions", &model.ExerciseQuestion{}); err != nil {
		return nil, errors.Wrap(err, "setup exercise_questions join table")
	}

	log.Info().Str("host", cfg.Database.Host).Str("name", cfg.Database.Name).Msg("Database connection established")
	return db, nil
}

// AutoMigrate creates or updates every table owned by the service.
func AutoMigrate(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.User{},
		&model.Classroom{},
		&model.Enrollment{},
		&model.Exercise{},
		&model.Question{},
		&model.ExerciseQuestion{},
		&model.ClassroomExercise{},
		&model.TrailModule{},
		&model.TrailLesson{},
		&model.LessonProgress{},
		&model.Criterion{},
		&model.ExerciseAttempt{},
		&model.Answer{},
		&model.Evaluation{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return errors.Wrap(err, "auto migrate")
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
