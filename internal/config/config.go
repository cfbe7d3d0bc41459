package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the client needs from the environment.
type Config struct {
	// APIBaseURL is the backend API root, including the /api prefix.
	APIBaseURL string
	// HTTPTimeout bounds every backend call. Chat and upload block on
	// embedding and generation, so this defaults high.
	HTTPTimeout time.Duration
	// LogFilePath is where the rotating JSON log lands. The TUI owns the
	// terminal, so logs never go to stdout.
	LogFilePath string
	// Environment is "development" or "production".
	Environment string
}

// Load reads configuration from the environment, with a .env file as an
// optional source.
func Load() *Config {
	// Missing .env is fine; plain environment variables still apply.
	_ = godotenv.Load()

	return &Config{
		APIBaseURL:  getEnv("RAGDESK_API_URL", "http://localhost:8000/api"),
		HTTPTimeout: time.Duration(getEnvAsInt("RAGDESK_HTTP_TIMEOUT_SECONDS", 120)) * time.Second,
		LogFilePath: getEnv("RAGDESK_LOG_FILE", "ragdesk.log"),
		Environment: getEnv("GO_ENV", "development"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
