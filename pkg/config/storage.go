// pkg/config/storage.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// StoreConfig holds object store access parameters for the source dataset
type StoreConfig struct {
	Bucket   string // S3 bucket holding the dataset files
	Prefix   string // Key prefix under which the TSV files live
	Region   string
	Endpoint string // Optional custom endpoint (e.g. MinIO, localstack)

	// Local directory mode: when set, files are read from the filesystem
	// instead of S3. Used in development and tests.
	LocalDir string

	// Fetch timeout per object
	FetchTimeout time.Duration
}

// PostgresConfig holds PostgreSQL connection parameters for the optional sink
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Statement timeout
	StatementTimeout time.Duration
}

// LoadStoreConfig loads object store configuration from environment variables
func LoadStoreConfig() (*StoreConfig, error) {
	cfg := &StoreConfig{
		Bucket:       os.Getenv("STORE_BUCKET"),
		Prefix:       os.Getenv("STORE_PREFIX"),
		Region:       getEnv("STORE_REGION", "us-east-1"),
		Endpoint:     os.Getenv("STORE_ENDPOINT"),
		LocalDir:     os.Getenv("STORE_LOCAL_DIR"),
		FetchTimeout: time.Duration(getEnvAsInt("STORE_FETCH_TIMEOUT_S", 60)) * time.Second,
	}

	if cfg.Bucket == "" && cfg.LocalDir == "" {
		return nil, errors.New("either STORE_BUCKET or STORE_LOCAL_DIR is required")
	}

	return cfg, nil
}

// LoadPostgresConfig loads PostgreSQL configuration from environment variables.
// Returns (nil, nil) when POSTGRES_HOST is unset: the sink is optional.
func LoadPostgresConfig() (*PostgresConfig, error) {
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return nil, nil
	}

	user := os.Getenv("POSTGRES_USER")
	if user == "" {
		return nil, errors.New("POSTGRES_USER environment variable is required")
	}

	password := os.Getenv("POSTGRES_PASSWORD")
	if password == "" {
		return nil, errors.New("POSTGRES_PASSWORD environment variable is required")
	}

	database := os.Getenv("POSTGRES_DB")
	if database == "" {
		return nil, errors.New("POSTGRES_DB environment variable is required")
	}

	return &PostgresConfig{
		Host:             host,
		Port:             getEnvAsInt("POSTGRES_PORT", 5432),
		User:             user,
		Password:         password,
		Database:         database,
		SSLMode:          getEnv("POSTGRES_SSLMODE", "disable"),
		MaxOpenConns:     getEnvAsInt("POSTGRES_MAX_OPEN_CONNS", 10),
		MaxIdleConns:     getEnvAsInt("POSTGRES_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime:  time.Duration(getEnvAsInt("POSTGRES_CONN_MAX_LIFETIME_M", 30)) * time.Minute,
		ConnMaxIdleTime:  time.Duration(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_M", 10)) * time.Minute,
		StatementTimeout: time.Duration(getEnvAsInt("POSTGRES_STATEMENT_TIMEOUT_S", 300)) * time.Second,
	}, nil
}

// ConnectionString builds a lib/pq connection string
func (c *PostgresConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
