// pkg/converter/converter.go
package converter

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/clinops/cohort-ingress/pkg/model"
)

// ValueConverter handles coercion of raw cell text into declared scalar types
type ValueConverter struct {
	logger *zap.Logger
	// Configuration options
	config ValueConverterConfig
}

// ValueConverterConfig provides configuration options for value conversion
type ValueConverterConfig struct {
	// Whether to treat empty strings as the missing marker
	EmptyStringAsNull bool
	// Whether to trim surrounding whitespace before coercion
	TrimWhitespace bool
	// Date formats tried in order when coercing date columns
	DateFormats []string
}

// DefaultConfig returns the default configuration
func DefaultConfig() ValueConverterConfig {
	return ValueConverterConfig{
		EmptyStringAsNull: true,
		TrimWhitespace:    true,
		DateFormats: []string{
			"2006-01-02T15:04:05Z07:00",
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"2006-01-02",
			"01/02/2006",
		},
	}
}

// NewValueConverter creates a new ValueConverter with default configuration
func NewValueConverter(logger *zap.Logger) *ValueConverter {
	return NewValueConverterWithConfig(logger, DefaultConfig())
}

// NewValueConverterWithConfig creates a ValueConverter with custom configuration
func NewValueConverterWithConfig(logger *zap.Logger, config ValueConverterConfig) *ValueConverter {
	return &ValueConverter{
		logger: logger,
		config: config,
	}
}

// Coerce converts a raw cell string into the declared column type.
// An empty cell coerces to the missing marker when EmptyStringAsNull is set.
func (c *ValueConverter) Coerce(raw string, colType model.ColumnType) (interface{}, error) {
	if c.config.TrimWhitespace {
		raw = strings.TrimSpace(raw)
	}
	if raw == "" && c.config.EmptyStringAsNull {
		return nil, nil
	}

	switch colType {
	case model.TypeString:
		return raw, nil
	case model.TypeInteger:
		return toInt(raw)
	case model.TypeFloat:
		return toFloat(raw)
	case model.TypeDate:
		return c.toTime(raw)
	default:
		return nil, fmt.Errorf("unknown column type: %s", colType)
	}
}

// MapColumnTypeToPostgres converts a declared column type to PostgreSQL
func (c *ValueConverter) MapColumnTypeToPostgres(colType model.ColumnType) (string, error) {
	switch colType {
	case model.TypeString:
		return "TEXT", nil
	case model.TypeInteger:
		return "BIGINT", nil
	case model.TypeFloat:
		return "DOUBLE PRECISION", nil
	case model.TypeDate:
		return "TIMESTAMP", nil
	default:
		// Log unexpected type and fall back to TEXT
		c.logger.Warn("Unknown column type encountered",
			zap.String("columnType", string(colType)))
		return "TEXT", fmt.Errorf("unknown column type: %s (mapped to TEXT as fallback)", colType)
	}
}

// GenerateColumnDefinitions creates PostgreSQL column definitions for a schema
func (c *ValueConverter) GenerateColumnDefinitions(schema model.Schema) ([]string, error) {
	definitions := make([]string, 0, len(schema.Columns))

	for _, col := range schema.Columns {
		pgType, err := c.MapColumnTypeToPostgres(col.Type)
		if err != nil {
			return nil, err
		}

		definitions = append(definitions, fmt.Sprintf("%s %s NULL",
			QuoteIdentifier(col.Name),
			pgType))
	}

	return definitions, nil
}

// QuoteIdentifier properly quotes and escapes a PostgreSQL identifier
func QuoteIdentifier(name string) string {
	// Handle case sensitivity by quoting lowercase table/column names
	return fmt.Sprintf("\"%s\"", strings.ToLower(strings.ReplaceAll(name, "\"", "\"\"")))
}
