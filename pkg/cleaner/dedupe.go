// pkg/cleaner/dedupe.go
package cleaner

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/clinops/cohort-ingress/pkg/converter"
	"github.com/clinops/cohort-ingress/pkg/model"
)

// DropExactDuplicates returns a new dataset with one representative of each
// group of field-wise identical records, preserving first-occurrence order.
// Two records are duplicates iff every cell, including its missing state,
// compares equal. Must run before reconciliation: remaining multiplicity per
// key has to reflect genuine complementary partial records, not exact copies.
func (c *DataCleaner) DropExactDuplicates(ds *model.Dataset, keyColumn string) (*model.Dataset, []model.CleaningOperation) {
	out := ds.Empty(ds.Len())
	seen := make(map[string]struct{}, ds.Len())
	var operations []model.CleaningOperation

	for _, row := range ds.Rows {
		signature := rowSignature(ds.Schema, row)

		if _, dup := seen[signature]; dup {
			operations = append(operations, model.CleaningOperation{
				ColumnName:        "",
				OriginalValue:     nil,
				NewValue:          "",
				RowKey:            converter.ToString(row[keyColumn]),
				CleaningOperation: model.OpDuplicateRemoval,
				CleaningReason:    "exact_duplicate_row",
				CleanedAt:         time.Now(),
			})
			continue
		}

		seen[signature] = struct{}{}
		out.Rows = append(out.Rows, row.Clone())
	}

	c.logger.Info("Removed exact duplicate rows",
		zap.Int("rowsIn", ds.Len()),
		zap.Int("rowsOut", out.Len()),
		zap.Int("duplicates", len(operations)))

	return out, operations
}

// rowSignature renders a record into a comparison key over the schema's
// column order. The missing marker and cell type are part of the signature,
// so nil never collides with an empty string and 5 never collides with "5".
func rowSignature(schema model.Schema, row model.Record) string {
	var sb strings.Builder
	for _, col := range schema.Columns {
		value := row[col.Name]
		if model.IsMissing(value) {
			sb.WriteString("\x00missing")
		} else {
			fmt.Fprintf(&sb, "\x00%T:%v", value, value)
		}
	}
	return sb.String()
}
