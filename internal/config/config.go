package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"biasev/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig
	Model   ModelConfig
	Data    DataConfig
	Session SessionConfig
	Log     LogConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	GinMode         string
	ShutdownTimeout time.Duration
}

// ModelConfig points at the trained severity model artifact
type ModelConfig struct {
	Path string
}

// DataConfig holds upload and preview settings
type DataConfig struct {
	MaxUploadMB int
	PreviewRows int
}

// SessionConfig holds session store settings
type SessionConfig struct {
	TTL time.Duration
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// MaxUploadBytes returns the upload limit in bytes
func (d DataConfig) MaxUploadBytes() int64 {
	return int64(d.MaxUploadMB) * 1024 * 1024
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("PORT", "8080"),
			GinMode:         getEnvOrDefault("GIN_MODE", "release"),
			ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Model: ModelConfig{
			Path: getEnvOrDefault("MODEL_PATH", "model.json"),
		},
		Data: DataConfig{
			MaxUploadMB: getEnvIntOrDefault("MAX_UPLOAD_MB", 50),
			PreviewRows: getEnvIntOrDefault("PREVIEW_ROWS", 5),
		},
		Session: SessionConfig{
			TTL: getEnvDurationOrDefault("SESSION_TTL", 2*time.Hour),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json")),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT must not be empty")
	}
	switch config.Server.GinMode {
	case "debug", "release", "test":
	default:
		return errors.ConfigInvalid("GIN_MODE must be one of debug, release, test")
	}
	if config.Model.Path == "" {
		return errors.ConfigInvalid("MODEL_PATH must not be empty")
	}
	if config.Data.MaxUploadMB <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
	}
	if config.Data.PreviewRows <= 0 {
		return errors.ConfigInvalid("PREVIEW_ROWS must be positive")
	}
	if config.Session.TTL <= 0 {
		return errors.ConfigInvalid("SESSION_TTL must be positive")
	}
	switch config.Log.Format {
	case "json", "console":
	default:
		return errors.ConfigInvalid("LOG_FORMAT must be json or console")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
