package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// AppConfig holds everything the process needs. Core logic receives these
// values explicitly at construction instead of reading the environment
// itself.
type AppConfig struct {
	// OWMAPIKey is the OpenWeatherMap credential. It may be empty; every
	// lookup then fails with a user-facing message until it is set.
	OWMAPIKey string

	// OWMBaseURL overrides the provider API root, mainly for tests.
	OWMBaseURL string

	// DBPath is the SQLite database file location.
	DBPath string

	Port string

	// HTTPTimeout bounds each outbound provider call.
	HTTPTimeout time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.OWMAPIKey = strings.TrimSpace(os.Getenv("OWM_API_KEY"))
	cfg.OWMBaseURL = getenvDefault("OWM_BASE_URL", "https://api.openweathermap.org/data/2.5")
	cfg.DBPath = getenvDefault("DB_PATH", "database.db")
	cfg.Port = getenvDefault("PORT", "8080")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
