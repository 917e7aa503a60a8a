// pkg/report/report.go
package report

import (
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/clinops/cohort-ingress/pkg/converter"
	"github.com/clinops/cohort-ingress/pkg/model"
)

// MissingLabel is how the missing marker is rendered in reports
const MissingLabel = "<missing>"

// ValueCount is one entry of a frequency table
type ValueCount struct {
	Value string
	Count int
}

// ValueCounts computes a frequency table for one column. Entries appear in
// first-seen order; the missing marker is counted under MissingLabel.
func ValueCounts(ds *model.Dataset, column string) []ValueCount {
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, row := range ds.Rows {
		label := MissingLabel
		if value := row[column]; !model.IsMissing(value) {
			label = converter.ToString(value)
		}
		if _, seen := counts[label]; !seen {
			order = append(order, label)
		}
		counts[label]++
	}

	out := make([]ValueCount, 0, len(order))
	for _, label := range order {
		out = append(out, ValueCount{Value: label, Count: counts[label]})
	}
	return out
}

// MissingCount returns how many rows have the missing marker in a column
func MissingCount(ds *model.Dataset, column string) int {
	count := 0
	for _, row := range ds.Rows {
		if model.IsMissing(row[column]) {
			count++
		}
	}
	return count
}

// ColumnMissingness summarizes missing counts per column, in schema order
type ColumnMissingness struct {
	Column  string
	Missing int
	Present int
}

// Missingness computes per-column missing/present counts for the dataset
func Missingness(ds *model.Dataset) []ColumnMissingness {
	out := make([]ColumnMissingness, 0, len(ds.Schema.Columns))
	for _, col := range ds.Schema.Columns {
		missing := MissingCount(ds, col.Name)
		out = append(out, ColumnMissingness{
			Column:  col.Name,
			Missing: missing,
			Present: ds.Len() - missing,
		})
	}
	return out
}

// KeyGroupSizes computes the per-key record count, in group first-seen order
func KeyGroupSizes(ds *model.Dataset, keyColumn string) []ValueCount {
	return ValueCounts(ds, keyColumn)
}

// RenderValueCounts renders a frequency table as text
func RenderValueCounts(column string, counts []ValueCount) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{column, "Count"})
	for _, vc := range counts {
		t.AppendRow(table.Row{vc.Value, vc.Count})
	}
	return t.Render()
}

// RenderMissingness renders the per-column missingness summary as text
func RenderMissingness(missingness []ColumnMissingness) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Column", "Present", "Missing"})
	for _, cm := range missingness {
		t.AppendRow(table.Row{cm.Column, cm.Present, cm.Missing})
	}
	return t.Render()
}
