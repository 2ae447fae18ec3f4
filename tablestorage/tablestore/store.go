// Package tablestore is an in-memory partitioned table store.
//
// Tables hold partitions, partitions hold rows, and rows are edm.Row values
// keyed by row key. Each table is guarded by one coarse lock held per owner
// (see WithOwner), which also lets a unit of work keep other callers out of
// the table until it commits or rolls back.
package tablestore

import (
	"context"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/jamie-davis/AzureTableSpike/tablestorage/edm"
	"github.com/prometheus/client_golang/prometheus"
)

// Store holds named tables, created on first use.
type Store struct {
	mu      sync.Mutex
	tables  map[string]*table
	logger  *slog.Logger
	metrics *metrics
}

type options struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
}

type Option func(*options)

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics registers operation counters and lock wait histograms on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

func New(opts ...Option) *Store {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{
		tables: make(map[string]*table),
		logger: o.logger,
	}
	if o.registerer != nil {
		s.metrics = newMetrics(o.registerer)
	}
	return s
}

func (s *Store) table(name string) *table {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		t = newTable(name)
		s.tables[name] = t
		s.logger.Debug("created table", "table", name)
	}
	return t
}

// Lock takes a hold on a table for the owner on ctx, blocking until any
// other owner lets go. The caller must Close the returned Ownership.
func (s *Store) Lock(ctx context.Context, tableName string) *Ownership {
	t := s.table(tableName)
	return s.own(ctx, t)
}

func (s *Store) own(ctx context.Context, t *table) *Ownership {
	o := callerOf(ctx)
	s.metrics.waited(t.name, t.lock.acquire(o))
	return &Ownership{lock: t.lock, owner: o}
}

// with runs fn while holding the table lock.
func (s *Store) with(ctx context.Context, tableName, op string, fn func(t *table) error) error {
	return s.withOwnership(ctx, tableName, op, func(t *table, _ *Ownership) error {
		return fn(t)
	})
}

func (s *Store) withOwnership(ctx context.Context, tableName, op string, fn func(t *table, g *Ownership) error) error {
	t := s.table(tableName)
	g := s.own(ctx, t)
	defer g.Close()
	err := fn(t, g)
	s.metrics.observe(tableName, op, err)
	return err
}

// StoreNew inserts a row. It fails with ErrRowAlreadyExists if the row is
// already present.
func (s *Store) StoreNew(ctx context.Context, tableName, partitionKey, rowKey string, fields edm.Row) error {
	return s.with(ctx, tableName, "store_new", func(t *table) error {
		return t.storeNew(partitionKey, rowKey, fields)
	})
}

// Update merges fields into an existing row, keeping fields it does not
// name. It fails with ErrRowNotFound if the row is absent.
func (s *Store) Update(ctx context.Context, tableName, partitionKey, rowKey string, fields edm.Row) error {
	return s.with(ctx, tableName, "update", func(t *table) error {
		return t.update(partitionKey, rowKey, fields)
	})
}

// StoreOrReplace inserts the row or replaces all of its fields.
func (s *Store) StoreOrReplace(ctx context.Context, tableName, partitionKey, rowKey string, fields edm.Row) error {
	return s.with(ctx, tableName, "store_or_replace", func(t *table) error {
		t.storeOrReplace(partitionKey, rowKey, fields)
		return nil
	})
}

func (s *Store) Delete(ctx context.Context, tableName, partitionKey, rowKey string) error {
	return s.with(ctx, tableName, "delete", func(t *table) error {
		return t.delete(partitionKey, rowKey)
	})
}

// GetFields returns a copy of the row's fields, or nil and false when the
// row does not exist.
func (s *Store) GetFields(ctx context.Context, tableName, partitionKey, rowKey string) (edm.Row, bool) {
	var (
		row   edm.Row
		found bool
	)
	_ = s.with(ctx, tableName, "get", func(t *table) error {
		row, found = t.getFields(partitionKey, rowKey)
		return nil
	})
	return row, found
}

// GetAllRows yields every row of the table with PartitionKey and RowKey
// added as String fields. The rows are copied under the table lock when
// iteration starts, so the sequence reflects one consistent state and the
// lock is not held while the caller consumes it.
func (s *Store) GetAllRows(ctx context.Context, tableName string) iter.Seq[edm.Row] {
	return func(yield func(edm.Row) bool) {
		var rows []edm.Row
		_ = s.with(ctx, tableName, "scan", func(t *table) error {
			rows = t.allRows()
			return nil
		})
		for _, row := range rows {
			if !yield(row) {
				return
			}
		}
	}
}

// RowCount returns the number of rows in the table.
func (s *Store) RowCount(ctx context.Context, tableName string) int {
	var n int
	_ = s.with(ctx, tableName, "count", func(t *table) error {
		n = t.rowCount()
		return nil
	})
	return n
}

// Tables lists the names of every table created so far.
func (s *Store) Tables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.tables))
}

// BeginUnitOfWork snapshots the table and pins its lock to the owner on ctx
// until Commit or Rollback. Other owners block on the table meanwhile.
func (s *Store) BeginUnitOfWork(ctx context.Context, tableName string) error {
	if _, ok := ownerFrom(ctx); !ok {
		return ErrOwnerRequired
	}
	return s.withOwnership(ctx, tableName, "begin", func(t *table, g *Ownership) error {
		if err := t.begin(); err != nil {
			return err
		}
		g.Extend()
		s.logger.Debug("began unit of work", "table", tableName)
		return nil
	})
}

// Commit keeps the writes made since BeginUnitOfWork.
func (s *Store) Commit(ctx context.Context, tableName string) error {
	return s.withOwnership(ctx, tableName, "commit", func(t *table, g *Ownership) error {
		if err := t.commit(); err != nil {
			return err
		}
		g.Release()
		s.logger.Debug("committed unit of work", "table", tableName)
		return nil
	})
}

// Rollback restores the table to its state at BeginUnitOfWork.
func (s *Store) Rollback(ctx context.Context, tableName string) error {
	return s.withOwnership(ctx, tableName, "rollback", func(t *table, g *Ownership) error {
		if err := t.rollback(); err != nil {
			return err
		}
		g.Release()
		s.logger.Debug("rolled back unit of work", "table", tableName)
		return nil
	})
}
