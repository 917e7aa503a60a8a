// pkg/model/schema.go
package model

import (
	"fmt"
	"strings"
)

// ColumnType identifies the declared scalar type of a column
type ColumnType string

const (
	TypeString  ColumnType = "string"
	TypeInteger ColumnType = "integer"
	TypeFloat   ColumnType = "float"
	TypeDate    ColumnType = "date"
)

// ParseColumnType converts a type name into a ColumnType
// Returns an error for unrecognized type names
func ParseColumnType(name string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string", "text", "varchar":
		return TypeString, nil
	case "integer", "int", "bigint":
		return TypeInteger, nil
	case "float", "double", "numeric":
		return TypeFloat, nil
	case "date", "timestamp", "datetime":
		return TypeDate, nil
	default:
		return "", fmt.Errorf("unknown column type: %s", name)
	}
}

// Column represents the declared definition of a dataset column
type Column struct {
	Name string     // Column name as it appears in the file header
	Type ColumnType // Declared scalar type
}

// Schema is the ordered set of columns a dataset conforms to.
// It is fixed once at ingestion time and validated on every record.
type Schema struct {
	Columns []Column
}

// NewSchema builds a schema from header names and an optional map of
// declared types. Columns without a declared type default to string.
func NewSchema(header []string, declaredTypes map[string]ColumnType) Schema {
	columns := make([]Column, 0, len(header))
	for _, name := range header {
		colType := TypeString
		if declared, ok := declaredTypes[normalizeColumnName(name)]; ok {
			colType = declared
		}
		columns = append(columns, Column{Name: name, Type: colType})
	}
	return Schema{Columns: columns}
}

// ColumnNames returns the ordered column names
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
	}
	return names
}

// ColumnByName returns a column by name (case-insensitive)
// Returns nil if the column is not part of the schema
func (s Schema) ColumnByName(name string) *Column {
	normalized := normalizeColumnName(name)
	for i, col := range s.Columns {
		if normalizeColumnName(col.Name) == normalized {
			return &s.Columns[i]
		}
	}
	return nil
}

// HasColumn reports whether the schema declares the named column
func (s Schema) HasColumn(name string) bool {
	return s.ColumnByName(name) != nil
}

// Equal reports whether two schemas declare the same columns, in order,
// with the same types
func (s Schema) Equal(other Schema) bool {
	if len(s.Columns) != len(other.Columns) {
		return false
	}
	for i, col := range s.Columns {
		if normalizeColumnName(col.Name) != normalizeColumnName(other.Columns[i].Name) {
			return false
		}
		if col.Type != other.Columns[i].Type {
			return false
		}
	}
	return true
}

// ValidateRecord checks a record's field set against the schema.
// A missing or extra field is a structural error and surfaces as a
// SchemaMismatchError; the pipeline never processes such a record partially.
func (s Schema) ValidateRecord(rec Record) error {
	if len(rec) != len(s.Columns) {
		return &SchemaMismatchError{
			Expected: s.ColumnNames(),
			Actual:   rec.FieldNames(),
			Reason:   fmt.Sprintf("record has %d fields, schema declares %d", len(rec), len(s.Columns)),
		}
	}
	for _, col := range s.Columns {
		if _, ok := rec[col.Name]; !ok {
			return &SchemaMismatchError{
				Expected: s.ColumnNames(),
				Actual:   rec.FieldNames(),
				Reason:   fmt.Sprintf("record is missing declared column %q", col.Name),
			}
		}
	}
	return nil
}

// SchemaMismatchError indicates a record whose field set differs from the
// declared schema. This is fatal: the stage aborts and surfaces it to the
// caller.
type SchemaMismatchError struct {
	Expected []string
	Actual   []string
	Reason   string
}

// Error implements the error interface
func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: %s (expected columns: %s)",
		e.Reason, strings.Join(e.Expected, ", "))
}

// normalizeColumnName lowercases a column name for comparison
func normalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
