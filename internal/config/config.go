package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	MigrationsPath  string
	SessionDuration time.Duration
	SessionSecret   string
	CSRFSecret      string
	LogLevel        string

	// TrustProxyHeaders makes rate limiting honour X-Forwarded-For and
	// X-Real-IP. Enable only behind a reverse proxy that sets them;
	// otherwise any client can spoof a fresh address per request.
	TrustProxyHeaders bool

	// Password reset email (disabled when SESFromEmail is empty).
	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string

	// OAuth sign-in (a provider is offered only when its client ID is set).
	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string
	OAuthRedirectBaseURL string
}

// Load reads configuration from the environment with sensible defaults. A
// .env file in the working directory is honoured when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		DatabaseType:    getEnv("DB_TYPE", "sqlite"),
		DatabasePath:    getEnv("DB_PATH", "./luckabet.db"),
		DatabaseURL:     getEnv("DB_URL", ""),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		SessionDuration: getDurationEnv("SESSION_DURATION_HOURS", 30*24),
		SessionSecret:   getEnv("SESSION_SECRET", "dev-session-secret-change-me"),
		CSRFSecret:      getEnv("CSRF_SECRET", "dev-csrf-secret-change-me"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),

		TrustProxyHeaders: getBoolEnv("TRUST_PROXY_HEADERS", false),

		AWSRegion:    getEnv("AWS_REGION", "eu-west-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "Luckabet"),
		AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:8080"),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		FacebookClientID:     getEnv("FACEBOOK_CLIENT_ID", ""),
		FacebookClientSecret: getEnv("FACEBOOK_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", "http://localhost:8080"),
	}
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv reads a boolean from the environment.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv reads an hour count from the environment.
func getDurationEnv(key string, defaultHours int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if hours, err := strconv.Atoi(value); err == nil && hours > 0 {
			return time.Duration(hours) * time.Hour
		}
	}
	return time.Duration(defaultHours) * time.Hour
}
