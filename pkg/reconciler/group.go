// pkg/reconciler/group.go
package reconciler

import (
	"fmt"

	"github.com/clinops/cohort-ingress/pkg/converter"
	"github.com/clinops/cohort-ingress/pkg/model"
)

// Group is the set of all records sharing one grouping-key value, with
// insertion order preserved. Within-group order reflects original ingestion
// order, which decides ties during coalescing.
type Group struct {
	Key     interface{}    // Grouping-key value, shared by every record
	KeyText string         // Text rendering of the key, for diagnostics
	Records []model.Record // Records in original ingestion order
}

// Size returns the number of records in the group
func (g Group) Size() int {
	return len(g.Records)
}

// GroupRecords partitions a dataset into groups by exact equality of the key
// column, preserving the original relative order of records within each group
// and the original first-seen order of groups. A record with a missing
// grouping key is a structural defect and aborts the partition.
func GroupRecords(ds *model.Dataset, keyColumn string) ([]Group, error) {
	if !ds.Schema.HasColumn(keyColumn) {
		return nil, &model.SchemaMismatchError{
			Expected: ds.Schema.ColumnNames(),
			Actual:   ds.Schema.ColumnNames(),
			Reason:   fmt.Sprintf("grouping key column %q is not part of the schema", keyColumn),
		}
	}

	groups := make([]Group, 0)
	index := make(map[string]int)

	for i, row := range ds.Rows {
		keyValue := row[keyColumn]
		if model.IsMissing(keyValue) {
			return nil, fmt.Errorf("record %d has a missing grouping key in column %q", i, keyColumn)
		}

		signature := keySignature(keyValue)
		if pos, ok := index[signature]; ok {
			groups[pos].Records = append(groups[pos].Records, row)
			continue
		}

		index[signature] = len(groups)
		groups = append(groups, Group{
			Key:     keyValue,
			KeyText: converter.ToString(keyValue),
			Records: []model.Record{row},
		})
	}

	return groups, nil
}

// keySignature renders a key value for exact-equality grouping.
// The cell type is part of the signature so int64(5) never groups with "5".
func keySignature(value interface{}) string {
	return fmt.Sprintf("%T:%v", value, value)
}
