// pkg/reconciler/conflict.go
package reconciler

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ConflictWarning records a genuine conflict: two records in the same group
// holding differing non-missing values for the same column. The first-seen
// value still wins, but the discarded value is reported rather than silently
// dropped.
type ConflictWarning struct {
	Key        string      // Grouping-key value of the affected group
	Column     string      // Column where the conflict occurred
	Kept       interface{} // Value that won (first non-missing in group order)
	Discarded  interface{} // Differing value that lost
	OccurredAt time.Time
}

// String returns a formatted conflict message
func (w ConflictWarning) String() string {
	return fmt.Sprintf("conflict on column %s for key %s: kept %v, discarded %v",
		w.Column, w.Key, w.Kept, w.Discarded)
}

// ConflictRecorder collects conflict warnings during reconciliation.
// Conflicts are data-quality diagnostics, never fatal: every one is counted
// and retained, with a bounded sample per column logged for inspection.
type ConflictRecorder struct {
	logger       *zap.Logger
	mu           sync.Mutex
	warnings     []ConflictWarning
	columnCounts map[string]int
	samples      map[string][]ConflictWarning
	maxSamples   int
}

// NewConflictRecorder creates a new conflict recorder
func NewConflictRecorder(logger *zap.Logger) *ConflictRecorder {
	return &ConflictRecorder{
		logger:       logger,
		warnings:     make([]ConflictWarning, 0),
		columnCounts: make(map[string]int),
		samples:      make(map[string][]ConflictWarning),
		maxSamples:   5, // Store up to 5 sample conflicts per column
	}
}

// Record saves a conflict warning
func (cr *ConflictRecorder) Record(warning ConflictWarning) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	cr.warnings = append(cr.warnings, warning)
	cr.columnCounts[warning.Column]++

	if samples := cr.samples[warning.Column]; len(samples) < cr.maxSamples {
		cr.samples[warning.Column] = append(samples, warning)
	}

	if cr.logger != nil {
		cr.logger.Warn("Reconciliation conflict",
			zap.String("key", warning.Key),
			zap.String("column", warning.Column),
			zap.Any("kept", warning.Kept),
			zap.Any("discarded", warning.Discarded))
	}
}

// RecordAll saves a batch of conflict warnings
func (cr *ConflictRecorder) RecordAll(warnings []ConflictWarning) {
	for _, warning := range warnings {
		cr.Record(warning)
	}
}

// Warnings returns a copy of every recorded conflict
func (cr *ConflictRecorder) Warnings() []ConflictWarning {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	out := make([]ConflictWarning, len(cr.warnings))
	copy(out, cr.warnings)
	return out
}

// Count returns the total number of recorded conflicts
func (cr *ConflictRecorder) Count() int {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return len(cr.warnings)
}

// ColumnCounts returns conflict counts by column
func (cr *ConflictRecorder) ColumnCounts() map[string]int {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	counts := make(map[string]int, len(cr.columnCounts))
	for column, count := range cr.columnCounts {
		counts[column] = count
	}
	return counts
}

// Samples returns up to maxSamples conflicts per column
func (cr *ConflictRecorder) Samples() map[string][]ConflictWarning {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	samples := make(map[string][]ConflictWarning, len(cr.samples))
	for column, records := range cr.samples {
		columnSamples := make([]ConflictWarning, len(records))
		copy(columnSamples, records)
		samples[column] = columnSamples
	}
	return samples
}
