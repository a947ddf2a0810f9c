package config

import (
	"os"
	"strconv"
	"time"

	"vitals/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Assignment AssignmentConfig
	Monitor    MonitorConfig
	Alerting   AlertingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds optional Postgres settings. An empty URL keeps the
// engine on its in-memory adapters.
type DatabaseConfig struct {
	URL string
}

// AssignmentConfig holds sticky-assignment settings
type AssignmentConfig struct {
	RotationDays int
}

// MonitorConfig holds collection and detection settings
type MonitorConfig struct {
	SampleRate         float64
	SensitivityPercent float64
	MinSamples         int
	WindowMinutes      int
}

// AlertingConfig holds dispatch settings
type AlertingConfig struct {
	WebhookURL         string
	WebhookTimeout     time.Duration
	WebhookMaxRetries  int
	EmailRecipient     string
	DedupWindowMinutes int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Assignment: AssignmentConfig{
			RotationDays: getEnvIntOrDefault("ASSIGNMENT_ROTATION_DAYS", 30),
		},
		Monitor: MonitorConfig{
			SampleRate:         getEnvFloatOrDefault("METRIC_SAMPLE_RATE", 0.1),
			SensitivityPercent: getEnvFloatOrDefault("REGRESSION_SENSITIVITY_PCT", 15),
			MinSamples:         getEnvIntOrDefault("REGRESSION_MIN_SAMPLES", 5),
			WindowMinutes:      getEnvIntOrDefault("REGRESSION_WINDOW_MINUTES", 60),
		},
		Alerting: AlertingConfig{
			WebhookURL:         getEnvOrDefault("ALERT_WEBHOOK_URL", ""),
			WebhookTimeout:     time.Duration(getEnvIntOrDefault("ALERT_WEBHOOK_TIMEOUT_SECONDS", 5)) * time.Second,
			WebhookMaxRetries:  getEnvIntOrDefault("ALERT_WEBHOOK_MAX_RETRIES", 2),
			EmailRecipient:     getEnvOrDefault("ALERT_EMAIL_RECIPIENT", ""),
			DedupWindowMinutes: getEnvIntOrDefault("ALERT_DEDUP_WINDOW_MINUTES", 10),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Assignment.RotationDays <= 0 {
		return errors.ConfigInvalid("assignment rotation must be positive")
	}
	if config.Monitor.SampleRate < 0 || config.Monitor.SampleRate > 1 {
		return errors.ConfigInvalid("metric sample rate must be in [0,1]")
	}
	if config.Monitor.SensitivityPercent <= 0 {
		return errors.ConfigInvalid("regression sensitivity must be positive")
	}
	if config.Alerting.WebhookMaxRetries < 0 {
		return errors.ConfigInvalid("webhook retries cannot be negative")
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

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
