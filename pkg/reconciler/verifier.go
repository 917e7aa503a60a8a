// pkg/reconciler/verifier.go
package reconciler

import (
	"time"

	"go.uber.org/zap"

	"github.com/clinops/cohort-ingress/pkg/model"
)

// Violation identifies a column where more than one record in a group holds
// a non-missing value, breaking the complementary-records assumption
type Violation struct {
	Column        string
	RecordIndices []int // Positions within the group, in ingestion order
}

// GroupReport contains the complementarity result for one key group
type GroupReport struct {
	Key                string
	GroupSize          int
	FullyComplementary bool
	Violations         []Violation
}

// VerificationReport contains the results of a dataset-wide complementarity
// check, run before trusting the first-non-missing coalescing policy
type VerificationReport struct {
	VerificationTime    time.Time
	TotalGroups         int
	ComplementaryGroups int
	ViolatingGroups     []GroupReport // Only groups with violations
	Duration            time.Duration
}

// FullyComplementary reports whether every group passed
func (r *VerificationReport) FullyComplementary() bool {
	return len(r.ViolatingGroups) == 0
}

// Verifier checks the dataset-wide assumption that records sharing a key are
// complementary: their non-missing fields never overlap. It is a diagnostic
// and never alters data.
type Verifier struct {
	logger    *zap.Logger
	keyColumn string
}

// NewVerifier creates a new verifier
func NewVerifier(logger *zap.Logger, keyColumn string) *Verifier {
	return &Verifier{
		logger:    logger.Named("verifier"),
		keyColumn: keyColumn,
	}
}

// VerifyGroup computes, for every non-key column, whether at most one record
// in the group has a non-missing value. Returns the fully-complementary flag
// plus the list of violations, if any.
func (v *Verifier) VerifyGroup(group Group, schema model.Schema) (bool, []Violation) {
	var violations []Violation

	for _, col := range schema.Columns {
		if col.Name == v.keyColumn {
			continue
		}

		var indices []int
		for i, row := range group.Records {
			if !model.IsMissing(row[col.Name]) {
				indices = append(indices, i)
			}
		}

		if len(indices) > 1 {
			violations = append(violations, Violation{
				Column:        col.Name,
				RecordIndices: indices,
			})
		}
	}

	return len(violations) == 0, violations
}

// VerifyDataset runs the complementarity check over every key group
func (v *Verifier) VerifyDataset(ds *model.Dataset) (*VerificationReport, error) {
	startTime := time.Now()

	groups, err := GroupRecords(ds, v.keyColumn)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		VerificationTime: startTime,
		TotalGroups:      len(groups),
	}

	for _, group := range groups {
		complementary, violations := v.VerifyGroup(group, ds.Schema)
		if complementary {
			report.ComplementaryGroups++
			continue
		}

		report.ViolatingGroups = append(report.ViolatingGroups, GroupReport{
			Key:                group.KeyText,
			GroupSize:          group.Size(),
			FullyComplementary: false,
			Violations:         violations,
		})
	}

	report.Duration = time.Since(startTime)

	if report.FullyComplementary() {
		v.logger.Info("Complementarity verification passed",
			zap.Int("groups", report.TotalGroups),
			zap.Duration("duration", report.Duration))
	} else {
		v.logger.Warn("Complementarity verification found violations",
			zap.Int("groups", report.TotalGroups),
			zap.Int("violatingGroups", len(report.ViolatingGroups)),
			zap.Duration("duration", report.Duration))
	}

	return report, nil
}
