package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// MinAccessCodeAttempts is the lowest retry bound accepted for access code allocation.
const MinAccessCodeAttempts = 10

type Config struct {
	Server   Server
	Database Database
	Gemini   Gemini
	Auth     Auth
	Grading  Grading
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type Gemini struct {
	ApiKey  string
	Model   string
	Timeout time.Duration
}

type Auth struct {
	JWTSecret string
}

type Grading struct {
	AccessCodeMaxAttempts int
	SweeperSchedule       string
	SweeperStaleAfter     time.Duration
}

// DSN builds the postgres connection string for gorm.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

func NewConfig() (*Config, error) {
	// .env.<APP_ENV> wins over .env; real environment variables win over both.
	if env := os.Getenv("APP_ENV"); env != "" {
		if err := godotenv.Load(".env." + env); err != nil {
			log.Warn().Err(err).Str("env", env).Msg("Error reading env overlay")
		}
	}

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.SSLMode = viper.GetString("DATABASE_SSLMODE")

	config.Gemini.ApiKey = viper.GetString("GEMINI_API_KEY")
	config.Gemini.Model = viper.GetString("GEMINI_MODEL")
	config.Gemini.Timeout = viper.GetDuration("EVALUATOR_TIMEOUT")

	config.Auth.JWTSecret = viper.GetString("JWT_SECRET")

	config.Grading.AccessCodeMaxAttempts = viper.GetInt("ACCESS_CODE_MAX_ATTEMPTS")
	if config.Grading.AccessCodeMaxAttempts < MinAccessCodeAttempts {
		config.Grading.AccessCodeMaxAttempts = MinAccessCodeAttempts
	}
	config.Grading.SweeperSchedule = viper.GetString("SWEEPER_SCHEDULE")
	config.Grading.SweeperStaleAfter = viper.GetDuration("SWEEPER_STALE_AFTER")

	if config.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	log.Info().
		Str("port", config.Server.Port).
		Str("dbHost", config.Database.Host).
		Str("dbName", config.Database.Name).
		Str("geminiModel", config.Gemini.Model).
		Bool("geminiConfigured", config.Gemini.ApiKey != "").
		Str("sweeperSchedule", config.Grading.SweeperSchedule).
		Msg("Config loaded")
	return &config, nil
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("EVALUATOR_TIMEOUT", "60s")
	viper.SetDefault("ACCESS_CODE_MAX_ATTEMPTS", MinAccessCodeAttempts)
	viper.SetDefault("SWEEPER_SCHEDULE", "@every 5m")
	viper.SetDefault("SWEEPER_STALE_AFTER", "10m")
}
