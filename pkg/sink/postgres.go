// pkg/sink/postgres.go
package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/clinops/cohort-ingress/pkg/config"
	"github.com/clinops/cohort-ingress/pkg/converter"
	"github.com/clinops/cohort-ingress/pkg/model"
)

// PostgresSink persists the reconciled dataset and the cleaning audit trail
// to PostgreSQL. The sink is optional; the pipeline runs without one.
type PostgresSink struct {
	db        *sqlx.DB
	cfg       *config.PostgresConfig
	valueConv *converter.ValueConverter
	logger    *zap.Logger
}

// NewPostgresSink creates and verifies a PostgreSQL sink
func NewPostgresSink(ctx context.Context, cfg *config.PostgresConfig, valueConv *converter.ValueConverter, logger *zap.Logger) (*PostgresSink, error) {
	named := logger.Named("postgres-sink")

	named.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	db, err := sqlx.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Verify connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	sink := &PostgresSink{
		db:        db,
		cfg:       cfg,
		valueConv: valueConv,
		logger:    named,
	}

	if err := sink.setupAuditTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup audit table: %w", err)
	}

	return sink, nil
}

// Close closes the connection and releases resources
func (s *PostgresSink) Close() error {
	return s.db.Close()
}

// setupAuditTable ensures the cleaned_on_ingress tracking table exists
func (s *PostgresSink) setupAuditTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS public.cleaned_on_ingress (
			id SERIAL PRIMARY KEY,
			column_name TEXT,
			original_value TEXT,
			new_value TEXT,
			row_key TEXT NOT NULL,
			cleaning_operation TEXT NOT NULL,
			cleaning_reason TEXT NOT NULL,
			cleaned_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	s.logger.Info("Ensured cleaned_on_ingress table exists")
	return nil
}

// WriteDataset creates the target table from the dataset schema and inserts
// every row inside one transaction
func (s *PostgresSink) WriteDataset(ctx context.Context, tableName string, ds *model.Dataset) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StatementTimeout)
	defer cancel()

	definitions, err := s.valueConv.GenerateColumnDefinitions(ds.Schema)
	if err != nil {
		return fmt.Errorf("failed to generate column definitions: %w", err)
	}

	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		converter.QuoteIdentifier(tableName),
		strings.Join(definitions, ", "))
	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create target table: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.Error(err))
			}
		}
	}()

	insertSQL := buildInsertStatement(tableName, ds.Schema)
	stmt, err := tx.PreparexContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range ds.Rows {
		args := make([]interface{}, len(ds.Schema.Columns))
		for i, col := range ds.Schema.Columns {
			args[i] = row[col.Name]
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Wrote reconciled dataset",
		zap.String("table", tableName),
		zap.Int("rows", ds.Len()))
	return nil
}

// RecordCleaningOperations batch inserts cleaning operations into the
// tracking table
func (s *PostgresSink) RecordCleaningOperations(ctx context.Context, operations []model.CleaningOperation) error {
	if len(operations) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.Error(err))
			}
		}
	}()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO public.cleaned_on_ingress
		(column_name, original_value, new_value, row_key, cleaning_operation, cleaning_reason, cleaned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, op := range operations {
		_, err = stmt.ExecContext(ctx,
			op.ColumnName,
			toNullableString(op.OriginalValue),
			op.NewValue,
			op.RowKey,
			op.CleaningOperation,
			op.CleaningReason,
			op.CleanedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert cleaning operation: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Recorded cleaning operations", zap.Int("count", len(operations)))
	return nil
}

// buildInsertStatement builds a positional insert for the schema's columns
func buildInsertStatement(tableName string, schema model.Schema) string {
	columns := make([]string, len(schema.Columns))
	placeholders := make([]string, len(schema.Columns))
	for i, col := range schema.Columns {
		columns[i] = converter.QuoteIdentifier(col.Name)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		converter.QuoteIdentifier(tableName),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "))
}

// toNullableString safely converts a cell value to a nullable string
func toNullableString(v interface{}) *string {
	if v == nil {
		return nil
	}
	s := converter.ToString(v)
	return &s
}
