// pkg/cleaner/normalize.go
package cleaner

import (
	"time"

	"go.uber.org/zap"

	"github.com/clinops/cohort-ingress/pkg/converter"
	"github.com/clinops/cohort-ingress/pkg/model"
)

// NormalizeMissing returns a new dataset where every string cell equal to one
// of the configured missing tokens is replaced with the canonical missing
// marker. Non-string cells and values not matching a token pass through
// unchanged. An empty token set is a valid no-op.
func (c *DataCleaner) NormalizeMissing(ds *model.Dataset, keyColumn string) (*model.Dataset, []model.CleaningOperation) {
	out := ds.Empty(ds.Len())
	var operations []model.CleaningOperation

	if len(c.missingTokens) == 0 {
		for _, row := range ds.Rows {
			out.Rows = append(out.Rows, row.Clone())
		}
		return out, nil
	}

	for _, row := range ds.Rows {
		normalized := row.Clone()
		rowKey := converter.ToString(row[keyColumn])

		for _, col := range ds.Schema.Columns {
			// The grouping key is never treated as missing
			if col.Name == keyColumn {
				continue
			}

			strValue, ok := normalized[col.Name].(string)
			if !ok {
				continue
			}

			if _, isToken := c.missingTokens[strValue]; isToken {
				normalized[col.Name] = nil
				operations = append(operations, model.CleaningOperation{
					ColumnName:        col.Name,
					OriginalValue:     strValue,
					NewValue:          "",
					RowKey:            rowKey,
					CleaningOperation: model.OpMissingNormalization,
					CleaningReason:    "missing_token",
					CleanedAt:         time.Now(),
				})
			}
		}

		out.Rows = append(out.Rows, normalized)
	}

	c.logger.Info("Normalized missing-value tokens",
		zap.Int("rows", out.Len()),
		zap.Int("replacements", len(operations)))

	return out, operations
}
