package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DatabaseURL string

	// JWT
	JWTSecret string

	// Storage (emitted quote documents)
	StoragePath string

	// Background Workers
	WorkerCount int

	// CORS
	AllowedOrigins []string

	// Sentry
	SentryDSN string

	// Remote part catalog. Empty URL means the local catalog tables are used.
	CatalogURL     string
	CatalogToken   string
	CatalogTimeout time.Duration

	// Quote engine
	FinalizeReadyTimeout time.Duration
	AutosaveIdle         time.Duration
	DraftRetentionDays   int
	Currency             string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Environment:          getEnv("ENVIRONMENT", "development"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		StoragePath:          getEnv("STORAGE_PATH", "./storage"),
		WorkerCount:          getEnvAsInt("WORKER_COUNT", 5),
		AllowedOrigins:       getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		SentryDSN:            getEnv("SENTRY_DSN", ""),
		CatalogURL:           strings.TrimRight(getEnv("CATALOG_URL", ""), "/"),
		CatalogToken:         getEnv("CATALOG_TOKEN", ""),
		CatalogTimeout:       time.Duration(getEnvAsInt("CATALOG_TIMEOUT_SECONDS", 10)) * time.Second,
		FinalizeReadyTimeout: time.Duration(getEnvAsInt("FINALIZE_READY_TIMEOUT_MS", 2000)) * time.Millisecond,
		AutosaveIdle:         time.Duration(getEnvAsInt("AUTOSAVE_IDLE_MS", 1500)) * time.Millisecond,
		DraftRetentionDays:   getEnvAsInt("DRAFT_RETENTION_DAYS", 30),
		Currency:             getEnv("CURRENCY", "R$"),
	}

	// Validate required configuration
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	// Set default JWT secret for development
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-in-production"
	}

	if cfg.DraftRetentionDays <= 0 {
		return nil, fmt.Errorf("DRAFT_RETENTION_DAYS must be positive, got %d", cfg.DraftRetentionDays)
	}

	return cfg, nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice reads an environment variable as comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
