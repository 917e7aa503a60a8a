// pkg/model/audit.go
package model

import (
	"time"
)

// CleaningOperation represents a single data cleaning operation
type CleaningOperation struct {
	ColumnName        string      // Column that was cleaned
	OriginalValue     interface{} // Original value (may be nil)
	NewValue          string      // New value after cleaning, rendered as text
	RowKey            string      // Grouping-key value identifying the row
	CleaningOperation string      // Type of cleaning performed (e.g., "missing_normalization")
	CleaningReason    string      // Reason for cleaning (e.g., "unknown_token")
	CleanedAt         time.Time   // When the cleaning occurred
}

// Well-known cleaning operation names recorded by pipeline stages
const (
	OpMissingNormalization = "missing_normalization"
	OpDuplicateRemoval     = "duplicate_removal"
	OpUnitConversion       = "unit_conversion"
	OpOutlierExclusion     = "outlier_exclusion"
)
