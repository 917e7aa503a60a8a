// pkg/converter/age.go
package converter

import (
	"time"

	"go.uber.org/zap"

	"github.com/clinops/cohort-ingress/pkg/model"
)

// AgeConverter converts a day-count age column to years and applies the
// documented outlier-clipping policy: records at or above MaxYears are
// excluded from the output dataset, with each exclusion audited.
type AgeConverter struct {
	logger      *zap.Logger
	Column      string // Column holding the day-count age
	DaysPerYear int
	MaxYears    int
}

// NewAgeConverter creates an age converter for the given column
func NewAgeConverter(logger *zap.Logger, column string, daysPerYear, maxYears int) *AgeConverter {
	return &AgeConverter{
		logger:      logger.Named("age-converter"),
		Column:      column,
		DaysPerYear: daysPerYear,
		MaxYears:    maxYears,
	}
}

// Convert returns a new dataset with the age column converted from days to
// years (integer division) and rows at or above MaxYears removed. Missing
// ages pass through unchanged. Values that cannot be read as integers keep
// their original value and are recorded as failed conversions.
func (a *AgeConverter) Convert(ds *model.Dataset, keyColumn string) (*model.Dataset, []model.CleaningOperation, error) {
	if a.Column == "" || !ds.Schema.HasColumn(a.Column) {
		return ds.Clone(), nil, nil
	}

	out := ds.Empty(ds.Len())
	var operations []model.CleaningOperation

	for _, row := range ds.Rows {
		rowKey := ToString(row[keyColumn])
		value := row[a.Column]

		if model.IsMissing(value) {
			out.Rows = append(out.Rows, row.Clone())
			continue
		}

		days, err := ToInt(value)
		if err != nil {
			operations = append(operations, model.CleaningOperation{
				ColumnName:        a.Column,
				OriginalValue:     value,
				NewValue:          ToString(value),
				RowKey:            rowKey,
				CleaningOperation: model.OpUnitConversion,
				CleaningReason:    "cannot_convert_to_int",
				CleanedAt:         time.Now(),
			})
			out.Rows = append(out.Rows, row.Clone())
			continue
		}

		years := days / int64(a.DaysPerYear)

		if years >= int64(a.MaxYears) {
			a.logger.Debug("Excluding record above age threshold",
				zap.String("rowKey", rowKey),
				zap.Int64("days", days),
				zap.Int64("years", years),
				zap.Int("threshold", a.MaxYears))
			operations = append(operations, model.CleaningOperation{
				ColumnName:        a.Column,
				OriginalValue:     value,
				NewValue:          "",
				RowKey:            rowKey,
				CleaningOperation: model.OpOutlierExclusion,
				CleaningReason:    "age_at_or_above_threshold",
				CleanedAt:         time.Now(),
			})
			continue
		}

		converted := row.Clone()
		converted[a.Column] = years
		out.Rows = append(out.Rows, converted)

		operations = append(operations, model.CleaningOperation{
			ColumnName:        a.Column,
			OriginalValue:     value,
			NewValue:          ToString(years),
			RowKey:            rowKey,
			CleaningOperation: model.OpUnitConversion,
			CleaningReason:    "days_to_years",
			CleanedAt:         time.Now(),
		})
	}

	a.logger.Info("Age conversion completed",
		zap.Int("rowsIn", ds.Len()),
		zap.Int("rowsOut", out.Len()),
		zap.Int("operations", len(operations)))

	return out, operations, nil
}
