package tablectx

import (
	"context"
	"iter"
	"strings"

	"github.com/jamie-davis/AzureTableSpike/tablestorage/edm"
	"github.com/jamie-davis/AzureTableSpike/tablestorage/filterexpr"
	"github.com/jamie-davis/AzureTableSpike/tablestorage/filterexpr/ast"
	"github.com/jamie-davis/AzureTableSpike/tablestorage/tablestore"
)

// Query returns the entities matching filter. An empty filter matches every
// row. When columns are given only those properties are returned; keys are
// always set.
//
// A filter that does not parse fails up front with *InvalidFilterError. A
// row the filter cannot be evaluated against ends the sequence with a
// *QueryFailedError.
func (t *Table) Query(ctx context.Context, filter string, columns ...string) (iter.Seq2[Entity, error], error) {
	t.logger.Debug("query", "table", t.name, "filter", filter)

	var root ast.Clause
	if strings.TrimSpace(filter) != "" {
		result := filterexpr.Parse(filter)
		if !result.Success() {
			return nil, &InvalidFilterError{Filter: filter, Reason: result.Error}
		}
		root = result.Root
	}

	return func(yield func(Entity, error) bool) {
		for row := range t.store.GetAllRows(ctx, t.name) {
			if root != nil {
				ok, err := filterexpr.Eval(root, row)
				if err != nil {
					pk, rk := keysOf(row)
					yield(Entity{}, &QueryFailedError{Filter: filter, PartitionKey: pk, RowKey: rk, Err: err})
					return
				}
				if !ok {
					continue
				}
			}
			if !yield(toEntity(row, columns), nil) {
				return
			}
		}
	}, nil
}

// QueryAll collects every entity a query yields.
func (t *Table) QueryAll(ctx context.Context, filter string, columns ...string) ([]Entity, error) {
	seq, err := t.Query(ctx, filter, columns...)
	if err != nil {
		return nil, err
	}
	var out []Entity
	for e, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func keysOf(row edm.Row) (string, string) {
	var pk, rk string
	if v, ok := row[tablestore.PartitionKeyField].(edm.String); ok {
		pk = string(v)
	}
	if v, ok := row[tablestore.RowKeyField].(edm.String); ok {
		rk = string(v)
	}
	return pk, rk
}

func toEntity(row edm.Row, columns []string) Entity {
	pk, rk := keysOf(row)
	props := make(edm.Row, len(row))
	for name, v := range row {
		if name == tablestore.PartitionKeyField || name == tablestore.RowKeyField {
			continue
		}
		props[name] = v
	}
	if len(columns) > 0 {
		selected := make(edm.Row, len(columns))
		for _, c := range columns {
			if v, ok := props[c]; ok {
				selected[c] = v
			}
		}
		props = selected
	}
	return Entity{PartitionKey: pk, RowKey: rk, Properties: props}
}
