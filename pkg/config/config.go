// Package config is the single place environment variables are read.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the pipeline.
type Config struct {
	// Server (operator API)
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Ingestion
	Ingest IngestConfig

	// Reference data
	RegistryPath      string
	UnitOverridesPath string

	// Audit
	AuditLogPath string

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// IngestConfig holds per-run ingestion parameters.
type IngestConfig struct {
	// TargetFiscalYear is the fiscal year the run expects; records
	// from other years take the staleness deduction.
	TargetFiscalYear int
	// Workers bounds the pipeline worker pool.
	Workers int
	// StoreWritesPerSec throttles upserts against the shared store.
	StoreWritesPerSec int
}

// Load reads configuration from environment variables, with a .env
// fallback for local development. Only this function calls os.Getenv.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8087"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Ingest: IngestConfig{
			TargetFiscalYear:  getEnvAsInt("TARGET_FISCAL_YEAR", time.Now().Year()-1),
			Workers:           getEnvAsInt("INGEST_WORKERS", 4),
			StoreWritesPerSec: getEnvAsInt("INGEST_STORE_WRITES_PER_SEC", 50),
		},

		RegistryPath:      getEnv("REGISTRY_PATH", "refdata/institutions.yaml"),
		UnitOverridesPath: getEnv("UNIT_OVERRIDES_PATH", "refdata/unit_overrides.yaml"),

		AuditLogPath: getEnv("AUDIT_LOG_PATH", "ingest_audit.log"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}
	if c.Ingest.Workers < 1 {
		return fmt.Errorf("INGEST_WORKERS must be at least 1")
	}
	return nil
}

// loadEnvFile tries .env in a few conventional locations.
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
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

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
