package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all process-level settings.
type Config struct {
	Port string
	Env  string

	DatabaseDriver string
	DatabaseDSN    string

	UploadDir   string
	MaxFileSize int64

	FrontendURL string
	RabbitMQURL string

	ProjectDeleteMode string
	SessionExpiration time.Duration
}

// Load reads configuration from environment variables with sane defaults
// for local development.
func Load() *Config {
	viper.SetDefault("APP_PORT", ":8000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("DATABASE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_DSN", "modelforge.db")
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("MAX_FILE_SIZE", 10<<20)
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("RABBITMQ_URL", "") // empty disables event publishing
	viper.SetDefault("PROJECT_DELETE_MODE", "retain")
	viper.SetDefault("SESSION_EXPIRATION", "24h")
	viper.AutomaticEnv()

	return &Config{
		Port:              viper.GetString("APP_PORT"),
		Env:               viper.GetString("APP_ENV"),
		DatabaseDriver:    viper.GetString("DATABASE_DRIVER"),
		DatabaseDSN:       viper.GetString("DATABASE_DSN"),
		UploadDir:         viper.GetString("UPLOAD_DIR"),
		MaxFileSize:       viper.GetInt64("MAX_FILE_SIZE"),
		FrontendURL:       viper.GetString("FRONTEND_URL"),
		RabbitMQURL:       viper.GetString("RABBITMQ_URL"),
		ProjectDeleteMode: viper.GetString("PROJECT_DELETE_MODE"),
		SessionExpiration: viper.GetDuration("SESSION_EXPIRATION"),
	}
}
