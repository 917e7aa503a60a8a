package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinops/cohort-ingress/pkg/model"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_LOCAL_DIR", t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "case_id", cfg.KeyColumn)
	assert.Equal(t, []string{"Unknown"}, cfg.MissingTokens)
	assert.Equal(t, 365, cfg.AgeDaysPerYear)
	assert.Equal(t, 89, cfg.AgeMaxYears)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Nil(t, cfg.Postgres)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("STORE_BUCKET", "cohort-data")
	t.Setenv("KEY_COLUMN", "sample_id")
	t.Setenv("MISSING_TOKENS", "Unknown, N/A, --")
	t.Setenv("AGE_COLUMN", "age_days")
	t.Setenv("COLUMN_TYPES", "age_days:integer,visit_date:date")
	t.Setenv("WORKER_POOL_SIZE", "4")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sample_id", cfg.KeyColumn)
	assert.Equal(t, []string{"Unknown", "N/A", "--"}, cfg.MissingTokens)
	assert.Equal(t, "age_days", cfg.AgeColumn)
	assert.Equal(t, 4, cfg.WorkerPoolSize)
	assert.Equal(t, model.TypeInteger, cfg.ColumnTypes["age_days"])
	assert.Equal(t, model.TypeDate, cfg.ColumnTypes["visit_date"])
	assert.Equal(t, "cohort-data", cfg.Store.Bucket)
}

func TestLoadConfigRequiresStore(t *testing.T) {
	t.Setenv("STORE_BUCKET", "")
	t.Setenv("STORE_LOCAL_DIR", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigPostgresOptional(t *testing.T) {
	t.Setenv("STORE_BUCKET", "cohort-data")
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("POSTGRES_USER", "ingress")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "cohort")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg.Postgres)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
}

func TestConnectionString(t *testing.T) {
	pg := &PostgresConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "ingress",
		Password: "secret",
		Database: "cohort",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5432 user=ingress password=secret dbname=cohort sslmode=require",
		pg.ConnectionString())
}

func TestParseColumnTypes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]model.ColumnType
		wantErr bool
	}{
		{name: "empty", input: "", want: map[string]model.ColumnType{}},
		{
			name:  "multiple declarations",
			input: "age_days:integer, weight:float",
			want: map[string]model.ColumnType{
				"age_days": model.TypeInteger,
				"weight":   model.TypeFloat,
			},
		},
		{name: "missing type", input: "age_days", wantErr: true},
		{name: "unknown type", input: "age_days:blob", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseColumnTypes(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := &Config{
		Store:          &StoreConfig{Bucket: "cohort-data"},
		KeyColumn:      "case_id",
		AgeDaysPerYear: 365,
		AgeMaxYears:    89,
	}
	assert.NoError(t, valid.Validate())

	noStore := *valid
	noStore.Store = nil
	assert.Error(t, noStore.Validate())

	noKey := *valid
	noKey.KeyColumn = ""
	assert.Error(t, noKey.Validate())

	badDays := *valid
	badDays.AgeDaysPerYear = 0
	assert.Error(t, badDays.Validate())

	badThreshold := *valid
	badThreshold.AgeMaxYears = -1
	assert.Error(t, badThreshold.Validate())

	badRetries := *valid
	badRetries.RetryAttempts = -1
	assert.Error(t, badRetries.Validate())
}
