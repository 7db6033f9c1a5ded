package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	TelegramToken   string
	DatabaseURL     string
	OpenAIKey       string
	OpenAIModel     string
	WhisperModel    string
	SheetsToken     string
	WebhookURL      string
	LogLevel        string
	Port            string
	DefaultCurrency string
	Timezone        *time.Location
}

// Load loads configuration from the environment. A local .env file is
// applied first when present.
func Load() (*Config, error) {
	// Best effort: running without a .env file is normal in production.
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		Port:            getEnvOrDefault("PORT", "8080"),
		OpenAIModel:     getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		WhisperModel:    getEnvOrDefault("WHISPER_MODEL", "whisper-1"),
		DefaultCurrency: getEnvOrDefault("DEFAULT_CURRENCY", "RUB"),
		SheetsToken:     os.Getenv("SHEETS_TOKEN"),
		WebhookURL:      os.Getenv("WEBHOOK_URL"),
	}

	if cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN"); cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN environment variable is required")
	}
	if cfg.DatabaseURL = os.Getenv("DATABASE_URL"); cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY"); cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	tzName := getEnvOrDefault("TIMEZONE", "Europe/Moscow")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}
	cfg.Timezone = tz

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
