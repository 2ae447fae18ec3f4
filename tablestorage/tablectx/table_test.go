package tablectx

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/jamie-davis/AzureTableSpike/tablestorage/edm"
	"github.com/jamie-davis/AzureTableSpike/tablestorage/tablestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T, opts ...Option) *Table {
	t.Helper()
	return New(tablestore.New(), "orders", opts...)
}

func order(pk, rk string, total float64) Entity {
	return Entity{PartitionKey: pk, RowKey: rk, Properties: edm.Row{"Total": edm.Double(total)}}
}

// ===== Entity operations =====

func TestTable_Entities(t *testing.T) {
	t.Run("add get update delete", func(t *testing.T) {
		tbl := newTestTable(t)
		ctx := context.Background()

		require.NoError(t, tbl.Add(ctx, order("c1", "o1", 10)))
		assert.ErrorIs(t, tbl.Add(ctx, order("c1", "o1", 11)), tablestore.ErrRowAlreadyExists)

		require.NoError(t, tbl.Update(ctx, Entity{PartitionKey: "c1", RowKey: "o1", Properties: edm.Row{"Paid": edm.Boolean(true)}}))
		got, ok := tbl.Get(ctx, "c1", "o1")
		require.True(t, ok)
		assert.Equal(t, edm.Row{"Total": edm.Double(10), "Paid": edm.Boolean(true)}, got.Properties)

		require.NoError(t, tbl.Delete(ctx, order("c1", "o1", 0)))
		_, ok = tbl.Get(ctx, "c1", "o1")
		assert.False(t, ok)
		assert.ErrorIs(t, tbl.Delete(ctx, order("c1", "o1", 0)), tablestore.ErrRowNotFound)
	})

	t.Run("add or replace", func(t *testing.T) {
		tbl := newTestTable(t)
		ctx := context.Background()

		require.NoError(t, tbl.AddOrReplace(ctx, order("c1", "o1", 10)))
		require.NoError(t, tbl.AddOrReplace(ctx, Entity{PartitionKey: "c1", RowKey: "o1", Properties: edm.Row{"Note": edm.String("x")}}))

		got, _ := tbl.Get(ctx, "c1", "o1")
		assert.Equal(t, edm.Row{"Note": edm.String("x")}, got.Properties)
	})

	t.Run("update missing row", func(t *testing.T) {
		tbl := newTestTable(t)
		assert.ErrorIs(t, tbl.Update(context.Background(), order("c1", "o1", 1)), tablestore.ErrRowNotFound)
	})

	t.Run("default keys", func(t *testing.T) {
		tbl := newTestTable(t, WithDefaultKeys(func(e *Entity) {
			if e.PartitionKey == "" {
				e.PartitionKey = "default"
			}
			if e.RowKey == "" {
				e.RowKey = "row"
			}
		}))
		ctx := context.Background()

		require.NoError(t, tbl.Add(ctx, Entity{Properties: edm.Row{}}))
		_, ok := tbl.Get(ctx, "default", "row")
		assert.True(t, ok)
	})
}

// ===== Batches =====

func TestTable_Batch(t *testing.T) {
	t.Run("commits all actions", func(t *testing.T) {
		tbl := newTestTable(t)
		ctx := context.Background()
		require.NoError(t, tbl.Add(ctx, order("c1", "old", 1)))

		require.NoError(t, tbl.BatchAdd(order("c1", "o1", 10)))
		require.NoError(t, tbl.BatchAdd(order("c1", "o2", 20)))
		require.NoError(t, tbl.BatchDelete(order("c1", "old", 0)))
		assert.Equal(t, 3, tbl.Pending())

		require.NoError(t, tbl.BatchExecute(ctx))
		assert.Equal(t, 0, tbl.Pending())

		all, err := tbl.QueryAll(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"o1", "o2"}, rowKeys(all))
	})

	t.Run("mismatched partition is rejected when queued", func(t *testing.T) {
		tbl := newTestTable(t)
		ctx := context.Background()

		require.NoError(t, tbl.BatchAdd(order("c1", "o1", 10)))
		err := tbl.BatchAdd(order("c2", "o2", 20))
		assert.ErrorIs(t, err, ErrPartitionKeyMismatch)
		require.NoError(t, tbl.BatchAdd(order("c1", "o3", 30)))
		assert.Equal(t, 2, tbl.Pending())

		// Nothing has been written yet.
		all, err := tbl.QueryAll(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("duplicate row is rejected", func(t *testing.T) {
		tbl := newTestTable(t)
		require.NoError(t, tbl.BatchAdd(order("c1", "o1", 10)))
		assert.ErrorIs(t, tbl.BatchUpdate(order("c1", "o1", 11)), ErrDuplicateBatchRow)
	})

	t.Run("batch size limit", func(t *testing.T) {
		tbl := newTestTable(t)
		for i := range MaxBatchSize {
			require.NoError(t, tbl.BatchAdd(order("c1", fmt.Sprint(i), 1)))
		}
		assert.ErrorIs(t, tbl.BatchAdd(order("c1", "extra", 1)), ErrBatchFull)
	})

	t.Run("failing action rolls back", func(t *testing.T) {
		tbl := newTestTable(t)
		ctx := context.Background()
		require.NoError(t, tbl.Add(ctx, order("c1", "keep", 5)))
		before, err := tbl.QueryAll(ctx, "")
		require.NoError(t, err)

		require.NoError(t, tbl.BatchAdd(order("c1", "o1", 10)))
		require.NoError(t, tbl.BatchUpdate(order("c1", "keep", 50)))
		require.NoError(t, tbl.BatchUpdate(order("c1", "missing", 1)))
		require.NoError(t, tbl.BatchAdd(order("c1", "o4", 40)))

		err = tbl.BatchExecute(ctx)
		assert.ErrorIs(t, err, tablestore.ErrRowNotFound)
		assert.Contains(t, err.Error(), "batch action 2")

		after, err := tbl.QueryAll(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, before, after)
		assert.Equal(t, 0, tbl.Pending())

		// The table is usable again after the rollback.
		require.NoError(t, tbl.Add(ctx, order("c1", "o9", 1)))
	})

	t.Run("queue survives a unit of work that cannot begin", func(t *testing.T) {
		tbl := newTestTable(t)
		ctx := tablestore.WithOwner(context.Background())
		require.NoError(t, tbl.BatchAdd(order("c1", "o1", 10)))
		require.NoError(t, tbl.BatchAdd(order("c1", "o2", 20)))

		require.NoError(t, tbl.store.BeginUnitOfWork(ctx, tbl.Name()))
		err := tbl.BatchExecute(ctx)
		assert.ErrorIs(t, err, tablestore.ErrUnitOfWorkInProgress)
		assert.Equal(t, 2, tbl.Pending())

		require.NoError(t, tbl.store.Rollback(ctx, tbl.Name()))
		require.NoError(t, tbl.BatchExecute(ctx))
		assert.Equal(t, 0, tbl.Pending())

		all, err := tbl.QueryAll(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"o1", "o2"}, rowKeys(all))
	})

	t.Run("empty batch", func(t *testing.T) {
		tbl := newTestTable(t)
		assert.NoError(t, tbl.BatchExecute(context.Background()))
	})
}

// ===== Queries =====

func TestTable_Query(t *testing.T) {
	tbl := newTestTable(t)
	ctx := context.Background()
	for _, e := range []Entity{
		{PartitionKey: "c1", RowKey: "o1", Properties: edm.Row{"Total": edm.Double(10), "Status": edm.String("open")}},
		{PartitionKey: "c1", RowKey: "o2", Properties: edm.Row{"Total": edm.Double(250), "Status": edm.String("open")}},
		{PartitionKey: "c2", RowKey: "o3", Properties: edm.Row{"Total": edm.Double(99.5), "Status": edm.String("closed")}},
	} {
		require.NoError(t, tbl.Add(ctx, e))
	}

	tests := []struct {
		filter string
		want   []string
	}{
		{"", []string{"o1", "o2", "o3"}},
		{"PartitionKey eq 'c1'", []string{"o1", "o2"}},
		{"Total gt 50", []string{"o2", "o3"}},
		{"Status eq 'open' and Total lt 100", []string{"o1"}},
		{"(PartitionKey eq 'c2') or RowKey eq 'o1'", []string{"o1", "o3"}},
		{"RowKey ge 'o2'", []string{"o2", "o3"}},
		{"Status ne 'open'", []string{"o3"}},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			got, err := tbl.QueryAll(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rowKeys(got))
		})
	}

	t.Run("select columns", func(t *testing.T) {
		got, err := tbl.QueryAll(ctx, "RowKey eq 'o1'", "Status", "Nope")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, Entity{PartitionKey: "c1", RowKey: "o1", Properties: edm.Row{"Status": edm.String("open")}}, got[0])
	})

	t.Run("invalid filter", func(t *testing.T) {
		_, err := tbl.Query(ctx, "Total gt")
		var invalid *InvalidFilterError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "unable to parse filter string", invalid.Reason)

		_, err = tbl.Query(ctx, "Total gt 1.")
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, `"1." is not a valid token`, invalid.Reason)
	})

	t.Run("evaluation failure", func(t *testing.T) {
		_, err := tbl.QueryAll(ctx, "Total eq 'ten'")
		var failed *QueryFailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, "c1", failed.PartitionKey)
		assert.Equal(t, "o1", failed.RowKey)
		assert.EqualError(t, failed.Err, "cannot convert String to Double")
	})

	t.Run("stops early", func(t *testing.T) {
		seq, err := tbl.Query(ctx, "")
		require.NoError(t, err)
		n := 0
		for range seq {
			n++
			break
		}
		assert.Equal(t, 1, n)
	})
}

func rowKeys(entities []Entity) []string {
	keys := make([]string, 0, len(entities))
	for _, e := range entities {
		keys = append(keys, e.RowKey)
	}
	slices.Sort(keys)
	return keys
}
