// pkg/reconciler/reconciler.go
package reconciler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/clinops/cohort-ingress/pkg/model"
)

// Reconciler coalesces groups of partial records sharing a grouping key into
// one complete record per key. Per column, the first non-missing value in
// group order wins; the policy is explicit and auditable, with every
// discarded differing value surfaced as a ConflictWarning.
type Reconciler struct {
	logger      *zap.Logger
	keyColumn   string
	workerCount int
	conflicts   *ConflictRecorder
}

// NewReconciler creates a reconciler for the given grouping-key column.
// A workerCount of zero or one selects the serial path.
func NewReconciler(logger *zap.Logger, keyColumn string, workerCount int) (*Reconciler, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if keyColumn == "" {
		return nil, errors.New("grouping key column cannot be empty")
	}

	named := logger.Named("reconciler")
	return &Reconciler{
		logger:      named,
		keyColumn:   keyColumn,
		workerCount: workerCount,
		conflicts:   NewConflictRecorder(named),
	}, nil
}

// Conflicts returns the conflict recorder
func (r *Reconciler) Conflicts() *ConflictRecorder {
	return r.conflicts
}

// Reconcile produces a new dataset with exactly one record per distinct key
// value. Groups are emitted in first-seen order; a group of size one passes
// through unchanged, so reconciling an already-deduplicated dataset is the
// identity. Conflicts are recorded, never fatal.
func (r *Reconciler) Reconcile(ctx context.Context, ds *model.Dataset) (*model.Dataset, error) {
	startTime := time.Now()

	groups, err := GroupRecords(ds, r.keyColumn)
	if err != nil {
		return nil, err
	}

	var reconciled []model.Record
	if r.workerCount > 1 && len(groups) > 1 {
		reconciled, err = r.reconcileParallel(ctx, groups, ds.Schema)
		if err != nil {
			return nil, err
		}
	} else {
		reconciled = make([]model.Record, 0, len(groups))
		for _, group := range groups {
			record, warnings := reconcileGroup(group, ds.Schema, r.keyColumn)
			r.conflicts.RecordAll(warnings)
			reconciled = append(reconciled, record)
		}
	}

	out := ds.Empty(len(reconciled))
	out.Rows = reconciled

	r.logger.Info("Reconciliation completed",
		zap.Int("rowsIn", ds.Len()),
		zap.Int("groups", len(groups)),
		zap.Int("conflicts", r.conflicts.Count()),
		zap.Duration("duration", time.Since(startTime)))

	return out, nil
}

// reconcileGroup coalesces one group into a single record. For each non-key
// column the group's records are scanned in order and the first non-missing
// value is selected; if every record is missing the column, the reconciled
// value stays missing. A later non-missing value that differs from the kept
// one yields a ConflictWarning. The rule generalizes to N-way groups with no
// special casing for pairs.
func reconcileGroup(group Group, schema model.Schema, keyColumn string) (model.Record, []ConflictWarning) {
	// Size-one groups reconcile to themselves unchanged
	if group.Size() == 1 {
		return group.Records[0].Clone(), nil
	}

	record := make(model.Record, len(schema.Columns))
	record[keyColumn] = group.Key

	var warnings []ConflictWarning

	for _, col := range schema.Columns {
		if col.Name == keyColumn {
			continue
		}

		var kept interface{}
		found := false

		for _, row := range group.Records {
			value := row[col.Name]
			if model.IsMissing(value) {
				continue
			}
			if !found {
				kept = value
				found = true
				continue
			}
			if !model.CellsEqual(kept, value) {
				warnings = append(warnings, ConflictWarning{
					Key:        group.KeyText,
					Column:     col.Name,
					Kept:       kept,
					Discarded:  value,
					OccurredAt: time.Now(),
				})
			}
		}

		record[col.Name] = kept
	}

	return record, warnings
}
