package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	defaultAPIURL       = "https://www.strava.com/api/v3"
	defaultTokenURL     = "https://www.strava.com/api/v3/oauth/token"
	defaultAuthorizeURL = "https://www.strava.com/oauth/authorize"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Host string
	Port int

	// Database configuration
	DatabasePath string

	// Strava API configuration
	StravaClientID     string
	StravaClientSecret string
	StravaRedirectURI  string
	StravaScopes       string

	// Strava endpoints, overridable for tests
	StravaAPIURL       string
	StravaTokenURL     string
	StravaAuthorizeURL string

	// Admin API configuration
	AdminKey string

	// Metrics configuration
	MetricsEnabled bool
	MetricsHost    string
	MetricsPort    int

	// Logging configuration
	LogLevel string
}

// Load reads configuration from the environment, after merging in a .env
// file when one exists. It fails fast if required variables are missing.
func Load() (*Config, error) {
	// A missing .env is fine; the environment may be fully populated already
	_ = godotenv.Load()

	cfg := &Config{
		// Optional values with defaults
		Host:               getEnv("HOST", "localhost"),
		Port:               getEnvInt("PORT", 4200),
		DatabasePath:       getEnv("DATABASE_PATH", "./runlog.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		StravaScopes:       getEnv("STRAVA_SCOPES", "activity:read_all"),
		StravaAPIURL:       getEnv("STRAVA_API_URL", defaultAPIURL),
		StravaTokenURL:     getEnv("STRAVA_TOKEN_URL", defaultTokenURL),
		StravaAuthorizeURL: getEnv("STRAVA_AUTHORIZE_URL", defaultAuthorizeURL),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", false),
		MetricsHost:        getEnv("METRICS_HOST", "localhost"),
		MetricsPort:        getEnvInt("METRICS_PORT", 9090),
	}

	// Required values
	var missingVars []string

	cfg.StravaClientID = os.Getenv("STRAVA_CLIENT_ID")
	if cfg.StravaClientID == "" {
		missingVars = append(missingVars, "STRAVA_CLIENT_ID")
	}

	cfg.StravaClientSecret = os.Getenv("STRAVA_CLIENT_SECRET")
	if cfg.StravaClientSecret == "" {
		missingVars = append(missingVars, "STRAVA_CLIENT_SECRET")
	}

	cfg.StravaRedirectURI = os.Getenv("STRAVA_REDIRECT_URI")
	if cfg.StravaRedirectURI == "" {
		missingVars = append(missingVars, "STRAVA_REDIRECT_URI")
	}

	cfg.AdminKey = os.Getenv("ADMIN_KEY")
	if cfg.AdminKey == "" {
		missingVars = append(missingVars, "ADMIN_KEY")
	}

	if len(missingVars) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
