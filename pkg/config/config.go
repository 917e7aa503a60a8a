// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/clinops/cohort-ingress/pkg/model"
)

// Config represents the application configuration
type Config struct {
	// Data source and optional sink
	Store    *StoreConfig
	Postgres *PostgresConfig // nil when no sink is configured

	// Dataset settings
	KeyColumn     string                      // Grouping-key column (never null, not unique)
	MissingTokens []string                    // String tokens normalized to the missing marker
	ColumnTypes   map[string]model.ColumnType // Declared types; unlisted columns are strings

	// Age conversion settings
	AgeColumn      string // Column holding day-count ages; empty disables conversion
	AgeDaysPerYear int
	AgeMaxYears    int // Rows at or above this many years are excluded

	// Pipeline settings
	RetryAttempts  int
	RetryDelay     time.Duration
	WorkerPoolSize int

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		// Default values
		KeyColumn:      getEnv("KEY_COLUMN", "case_id"),
		MissingTokens:  getEnvAsList("MISSING_TOKENS", []string{"Unknown"}),
		AgeColumn:      getEnv("AGE_COLUMN", ""),
		AgeDaysPerYear: getEnvAsInt("AGE_DAYS_PER_YEAR", 365),
		AgeMaxYears:    getEnvAsInt("AGE_MAX_YEARS", 89),
		RetryAttempts:  getEnvAsInt("RETRY_ATTEMPTS", 3),
		RetryDelay:     time.Duration(getEnvAsInt("RETRY_DELAY_MS", 1000)) * time.Millisecond,
		WorkerPoolSize: getEnvAsInt("WORKER_POOL_SIZE", 0), // 0 means derive from runtime.NumCPU()
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}

	columnTypes, err := parseColumnTypes(getEnv("COLUMN_TYPES", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to parse COLUMN_TYPES: %w", err)
	}
	cfg.ColumnTypes = columnTypes

	storeConfig, err := LoadStoreConfig()
	if err != nil {
		return nil, errors.New("failed to load object store configuration: " + err.Error())
	}
	cfg.Store = storeConfig

	// The Postgres sink is optional; absence of POSTGRES_HOST disables it
	pgConfig, err := LoadPostgresConfig()
	if err != nil {
		return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
	}
	cfg.Postgres = pgConfig

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.Store == nil {
		return errors.New("object store configuration is required")
	}

	if c.KeyColumn == "" {
		return errors.New("key column is required")
	}

	if c.AgeDaysPerYear <= 0 {
		return errors.New("age days-per-year must be positive")
	}

	if c.AgeMaxYears <= 0 {
		return errors.New("age clipping threshold must be positive")
	}

	if c.RetryAttempts < 0 {
		return errors.New("retry attempts cannot be negative")
	}

	return nil
}

// parseColumnTypes parses a "name:type,name:type" declaration list
func parseColumnTypes(raw string) (map[string]model.ColumnType, error) {
	types := make(map[string]model.ColumnType)
	if raw == "" {
		return types, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed column type declaration: %q", pair)
		}
		colType, err := model.ParseColumnType(parts[1])
		if err != nil {
			return nil, err
		}
		types[strings.ToLower(strings.TrimSpace(parts[0]))] = colType
	}

	return types, nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

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

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
