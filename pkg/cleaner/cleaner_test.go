package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clinops/cohort-ingress/pkg/model"
)

func testDataset(t *testing.T, columns []string, rows []model.Record) *model.Dataset {
	t.Helper()
	ds := model.NewDataset(model.NewSchema(columns, nil))
	for _, row := range rows {
		require.NoError(t, ds.Append(row))
	}
	return ds
}

func newTestCleaner(t *testing.T, tokens []string) *DataCleaner {
	t.Helper()
	c, err := NewDataCleaner(zap.NewNop(), tokens)
	require.NoError(t, err)
	return c
}

func TestNewDataCleanerRequiresLogger(t *testing.T) {
	_, err := NewDataCleaner(nil, []string{"Unknown"})
	assert.Error(t, err)
}

func TestNormalizeMissingReplacesTokens(t *testing.T) {
	ds := testDataset(t, []string{"case_id", "gender", "stage"}, []model.Record{
		{"case_id": "C1", "gender": "Unknown", "stage": "II"},
		{"case_id": "C2", "gender": "female", "stage": "Unknown"},
		{"case_id": "C3", "gender": nil, "stage": "Unknown"},
	})

	c := newTestCleaner(t, []string{"Unknown"})
	out, ops := c.NormalizeMissing(ds, "case_id")

	require.Equal(t, 3, out.Len())
	assert.Nil(t, out.Rows[0]["gender"])
	assert.Equal(t, "II", out.Rows[0]["stage"])
	assert.Equal(t, "female", out.Rows[1]["gender"])
	assert.Nil(t, out.Rows[1]["stage"])
	assert.Nil(t, out.Rows[2]["gender"])
	assert.Nil(t, out.Rows[2]["stage"])

	require.Len(t, ops, 3)
	for _, op := range ops {
		assert.Equal(t, model.OpMissingNormalization, op.CleaningOperation)
		assert.Equal(t, "Unknown", op.OriginalValue)
	}
}

// After normalization all missing values present one way: tokens plus native
// missing cells add up, and no token survives anywhere in the dataset.
func TestNormalizeMissingUnifiedRepresentation(t *testing.T) {
	columns := []string{"case_id", "a", "b"}
	rows := make([]model.Record, 0, 10)
	for i := 0; i < 10; i++ {
		key := string(rune('A' + i))
		row := model.Record{"case_id": key, "a": "value", "b": "value"}
		if i < 6 {
			row["a"] = "Unknown" // 6 tokens
		}
		if i < 3 {
			row["b"] = "Unknown" // 3 tokens
		}
		if i >= 6 && i < 9 {
			row["b"] = nil // 3 native missing
		}
		rows = append(rows, row)
	}
	ds := testDataset(t, columns, rows)

	c := newTestCleaner(t, []string{"Unknown"})
	out, ops := c.NormalizeMissing(ds, "case_id")

	assert.Len(t, ops, 9)

	missing := 0
	for _, row := range out.Rows {
		for _, col := range []string{"a", "b"} {
			assert.NotEqual(t, "Unknown", row[col])
			if model.IsMissing(row[col]) {
				missing++
			}
		}
	}
	assert.Equal(t, 12, missing)
}

func TestNormalizeMissingSkipsKeyColumn(t *testing.T) {
	ds := testDataset(t, []string{"case_id", "v"}, []model.Record{
		{"case_id": "Unknown", "v": "x"},
	})

	c := newTestCleaner(t, []string{"Unknown"})
	out, ops := c.NormalizeMissing(ds, "case_id")

	assert.Equal(t, "Unknown", out.Rows[0]["case_id"])
	assert.Empty(t, ops)
}

func TestNormalizeMissingIgnoresNonStringCells(t *testing.T) {
	ds := testDataset(t, []string{"case_id", "age"}, []model.Record{
		{"case_id": "C1", "age": int64(6947)},
	})

	c := newTestCleaner(t, []string{"6947"})
	out, ops := c.NormalizeMissing(ds, "case_id")

	assert.Equal(t, int64(6947), out.Rows[0]["age"])
	assert.Empty(t, ops)
}

func TestNormalizeMissingEmptyTokenSetIsNoOp(t *testing.T) {
	ds := testDataset(t, []string{"case_id", "v"}, []model.Record{
		{"case_id": "C1", "v": "Unknown"},
	})

	c := newTestCleaner(t, nil)
	out, ops := c.NormalizeMissing(ds, "case_id")

	assert.Equal(t, "Unknown", out.Rows[0]["v"])
	assert.Empty(t, ops)
}

func TestNormalizeMissingIsIdempotent(t *testing.T) {
	ds := testDataset(t, []string{"case_id", "v"}, []model.Record{
		{"case_id": "C1", "v": "Unknown"},
		{"case_id": "C2", "v": "kept"},
	})

	c := newTestCleaner(t, []string{"Unknown"})
	once, ops := c.NormalizeMissing(ds, "case_id")
	require.Len(t, ops, 1)

	twice, ops := c.NormalizeMissing(once, "case_id")
	assert.Empty(t, ops)
	for i := range once.Rows {
		assert.Equal(t, once.Rows[i], twice.Rows[i])
	}
}

func TestNormalizeMissingDoesNotMutateInput(t *testing.T) {
	ds := testDataset(t, []string{"case_id", "v"}, []model.Record{
		{"case_id": "C1", "v": "Unknown"},
	})

	c := newTestCleaner(t, []string{"Unknown"})
	_, _ = c.NormalizeMissing(ds, "case_id")

	assert.Equal(t, "Unknown", ds.Rows[0]["v"])
}

func TestDropExactDuplicates(t *testing.T) {
	ds := testDataset(t, []string{"case_id", "v"}, []model.Record{
		{"case_id": "C1", "v": "a"},
		{"case_id": "C2", "v": "b"},
		{"case_id": "C1", "v": "a"},
		{"case_id": "C1", "v": "a"},
	})

	c := newTestCleaner(t, nil)
	out, ops := c.DropExactDuplicates(ds, "case_id")

	require.Equal(t, 2, out.Len())
	assert.Equal(t, "C1", out.Rows[0]["case_id"])
	assert.Equal(t, "C2", out.Rows[1]["case_id"])

	require.Len(t, ops, 2)
	for _, op := range ops {
		assert.Equal(t, model.OpDuplicateRemoval, op.CleaningOperation)
		assert.Equal(t, "C1", op.RowKey)
	}
}

// Records differing only in which cells are missing are not duplicates
func TestDropExactDuplicatesRespectsMissingState(t *testing.T) {
	ds := testDataset(t, []string{"case_id", "v"}, []model.Record{
		{"case_id": "C1", "v": "a"},
		{"case_id": "C1", "v": nil},
		{"case_id": "C1", "v": ""},
	})

	c := newTestCleaner(t, nil)
	out, ops := c.DropExactDuplicates(ds, "case_id")

	assert.Equal(t, 3, out.Len())
	assert.Empty(t, ops)
}

func TestDropExactDuplicatesDistinguishesCellTypes(t *testing.T) {
	ds := testDataset(t, []string{"case_id", "v"}, []model.Record{
		{"case_id": "C1", "v": int64(5)},
		{"case_id": "C1", "v": "5"},
	})

	c := newTestCleaner(t, nil)
	out, ops := c.DropExactDuplicates(ds, "case_id")

	assert.Equal(t, 2, out.Len())
	assert.Empty(t, ops)
}

func TestDropExactDuplicatesIsIdempotent(t *testing.T) {
	ds := testDataset(t, []string{"case_id", "v"}, []model.Record{
		{"case_id": "C1", "v": "a"},
		{"case_id": "C1", "v": "a"},
		{"case_id": "C2", "v": "b"},
	})

	c := newTestCleaner(t, nil)
	once, ops := c.DropExactDuplicates(ds, "case_id")
	require.Len(t, ops, 1)

	twice, ops := c.DropExactDuplicates(once, "case_id")
	assert.Empty(t, ops)
	assert.Equal(t, once.Len(), twice.Len())
}
