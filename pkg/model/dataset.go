// pkg/model/dataset.go
package model

import (
	"time"
)

// Record is one row of a dataset: an ordered mapping (via the schema) from
// column name to cell value. A nil cell is the canonical missing marker;
// every other spelling of missingness ("Unknown" tokens, empty strings in
// typed columns) is normalized to nil before the record enters the pipeline.
type Record map[string]interface{}

// FieldNames returns the record's field names in unspecified order.
// Used for diagnostics only; ordering comes from the schema.
func (r Record) FieldNames() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	return names
}

// Clone returns a shallow copy of the record.
// Cell values are scalars, so a shallow copy is a full copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for name, value := range r {
		out[name] = value
	}
	return out
}

// IsMissing reports whether a cell value is the canonical missing marker
func IsMissing(value interface{}) bool {
	return value == nil
}

// CellsEqual compares two cell values, treating the missing marker as equal
// only to itself
func CellsEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	return a == b
}

// Dataset is an immutable collection of records with a uniform schema.
// Pipeline stages never mutate a dataset in place; each stage produces a new
// one.
type Dataset struct {
	Schema Schema
	Rows   []Record
}

// NewDataset creates an empty dataset with the given schema
func NewDataset(schema Schema) *Dataset {
	return &Dataset{
		Schema: schema,
		Rows:   make([]Record, 0),
	}
}

// Append validates a record against the schema and adds it to the dataset
func (d *Dataset) Append(rec Record) error {
	if err := d.Schema.ValidateRecord(rec); err != nil {
		return err
	}
	d.Rows = append(d.Rows, rec)
	return nil
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Clone returns a deep copy of the dataset
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Schema: d.Schema,
		Rows:   make([]Record, 0, len(d.Rows)),
	}
	for _, row := range d.Rows {
		out.Rows = append(out.Rows, row.Clone())
	}
	return out
}

// Empty returns a new dataset with the same schema and no rows,
// pre-sized for the expected row count
func (d *Dataset) Empty(capacity int) *Dataset {
	return &Dataset{
		Schema: d.Schema,
		Rows:   make([]Record, 0, capacity),
	}
}
