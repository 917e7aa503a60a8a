package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clinops/cohort-ingress/pkg/config"
	"github.com/clinops/cohort-ingress/pkg/model"
)

func testConfig() *config.Config {
	return &config.Config{
		KeyColumn:      "case_id",
		MissingTokens:  []string{"Unknown"},
		AgeColumn:      "age_days",
		AgeDaysPerYear: 365,
		AgeMaxYears:    89,
		WorkerPoolSize: 1,
	}
}

func testDataset(t *testing.T, columns []string, rows []model.Record) *model.Dataset {
	t.Helper()
	ds := model.NewDataset(model.NewSchema(columns, nil))
	for _, row := range rows {
		require.NoError(t, ds.Append(row))
	}
	return ds
}

func TestNewPipelineValidation(t *testing.T) {
	_, err := NewPipeline(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewPipeline(testConfig(), nil)
	assert.Error(t, err)
}

func TestPipelineRunEndToEnd(t *testing.T) {
	columns := []string{"case_id", "gender", "age_days"}
	ds := testDataset(t, columns, []model.Record{
		// K1: complementary pair, merges without conflict
		{"case_id": "K1", "gender": "female", "age_days": nil},
		{"case_id": "K1", "gender": "Unknown", "age_days": int64(6947)},
		// K2: exact duplicate collapses before reconciliation
		{"case_id": "K2", "gender": "male", "age_days": int64(365)},
		{"case_id": "K2", "gender": "male", "age_days": int64(365)},
		// K3: outlier age, excluded after reconciliation
		{"case_id": "K3", "gender": "female", "age_days": int64(32493)},
	})

	p, err := NewPipeline(testConfig(), zap.NewNop())
	require.NoError(t, err)

	result, err := p.Run(context.Background(), ds)
	require.NoError(t, err)

	require.Equal(t, 2, result.Dataset.Len())
	assert.Equal(t, "K1", result.Dataset.Rows[0]["case_id"])
	assert.Equal(t, "female", result.Dataset.Rows[0]["gender"])
	assert.Equal(t, int64(19), result.Dataset.Rows[0]["age_days"])
	assert.Equal(t, "K2", result.Dataset.Rows[1]["case_id"])
	assert.Equal(t, int64(1), result.Dataset.Rows[1]["age_days"])

	assert.Empty(t, result.Conflicts)
	assert.True(t, result.Verification.FullyComplementary())

	// One token normalized, one duplicate removed, two conversions, one exclusion
	require.NotNil(t, result.Summary)
	assert.Equal(t, 5, result.Summary.RowsLoaded)
	assert.Equal(t, 2, result.Summary.RowsFinal)
	assert.Equal(t, 3, result.Summary.GroupsReconciled)
	assert.Equal(t, 5, result.Summary.TotalOperations)
}

func TestPipelineRunReportsConflicts(t *testing.T) {
	ds := testDataset(t, []string{"case_id", "x"}, []model.Record{
		{"case_id": "K2", "x": int64(5)},
		{"case_id": "K2", "x": int64(7)},
	})

	cfg := testConfig()
	cfg.AgeColumn = ""
	p, err := NewPipeline(cfg, zap.NewNop())
	require.NoError(t, err)

	result, err := p.Run(context.Background(), ds)
	require.NoError(t, err)

	require.Equal(t, 1, result.Dataset.Len())
	assert.Equal(t, int64(5), result.Dataset.Rows[0]["x"])

	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "x", result.Conflicts[0].Column)

	// The overlapping column also fails the complementarity check
	assert.False(t, result.Verification.FullyComplementary())
	assert.Equal(t, 1, result.Summary.TotalConflicts)
}

func TestPipelineRunMissingKeyAborts(t *testing.T) {
	ds := testDataset(t, []string{"case_id", "x"}, []model.Record{
		{"case_id": nil, "x": int64(1)},
	})

	p, err := NewPipeline(testConfig(), zap.NewNop())
	require.NoError(t, err)

	_, err = p.Run(context.Background(), ds)
	assert.Error(t, err)
}

func TestPipelineRunIsIdempotent(t *testing.T) {
	ds := testDataset(t, []string{"case_id", "gender", "age_days"}, []model.Record{
		{"case_id": "K1", "gender": "female", "age_days": nil},
		{"case_id": "K1", "gender": "Unknown", "age_days": int64(6947)},
	})

	first, err := NewPipeline(testConfig(), zap.NewNop())
	require.NoError(t, err)
	once, err := first.Run(context.Background(), ds)
	require.NoError(t, err)

	// Rerunning the cleaning stages over already-clean data changes nothing.
	// Unit conversion is excluded: it is not idempotent and runs once per
	// ingestion by construction.
	cfg := testConfig()
	cfg.AgeColumn = ""
	second, err := NewPipeline(cfg, zap.NewNop())
	require.NoError(t, err)
	twice, err := second.Run(context.Background(), once.Dataset)
	require.NoError(t, err)

	require.Equal(t, once.Dataset.Len(), twice.Dataset.Len())
	for i := range once.Dataset.Rows {
		assert.Equal(t, once.Dataset.Rows[i], twice.Dataset.Rows[i])
	}
	assert.Empty(t, twice.Conflicts)
}

func TestPipelineMetricsStages(t *testing.T) {
	ds := testDataset(t, []string{"case_id", "x"}, []model.Record{
		{"case_id": "K1", "x": "a"},
		{"case_id": "K1", "x": "a"},
	})

	p, err := NewPipeline(testConfig(), zap.NewNop())
	require.NoError(t, err)

	_, err = p.Run(context.Background(), ds)
	require.NoError(t, err)

	stages := p.Metrics().Stages
	require.Len(t, stages, 5)
	assert.Equal(t, StageNormalize, stages[0].Name)
	assert.Equal(t, StageDedupe, stages[1].Name)
	assert.Equal(t, StageVerify, stages[2].Name)
	assert.Equal(t, StageReconcile, stages[3].Name)
	assert.Equal(t, StageConvert, stages[4].Name)

	assert.Equal(t, 1, stages[1].RowsDropped())

	report := p.Metrics().GenerateMetricsReport()
	assert.Contains(t, report, "Pipeline Metrics Report")
	assert.Contains(t, report, StageDedupe)
}
