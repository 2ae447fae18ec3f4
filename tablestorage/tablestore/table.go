package tablestore

import (
	"fmt"
	"maps"
	"slices"

	"github.com/jamie-davis/AzureTableSpike/tablestorage/edm"
)

// Field names injected into rows produced for queries.
const (
	PartitionKeyField = "PartitionKey"
	RowKeyField       = "RowKey"
)

// partition maps row keys to rows. Stored rows are private copies.
type partition struct {
	rows map[string]edm.Row
}

func newPartition() *partition {
	return &partition{rows: make(map[string]edm.Row)}
}

func (p *partition) storeNew(rowKey string, fields edm.Row) error {
	if _, ok := p.rows[rowKey]; ok {
		return ErrRowAlreadyExists
	}
	p.rows[rowKey] = fields.Clone()
	return nil
}

// update merges fields into an existing row. Fields not supplied are kept.
func (p *partition) update(rowKey string, fields edm.Row) error {
	row, ok := p.rows[rowKey]
	if !ok {
		return ErrRowNotFound
	}
	merged := row.Clone()
	if merged == nil {
		merged = make(edm.Row, len(fields))
	}
	maps.Copy(merged, fields.Clone())
	p.rows[rowKey] = merged
	return nil
}

func (p *partition) storeOrReplace(rowKey string, fields edm.Row) {
	p.rows[rowKey] = fields.Clone()
}

func (p *partition) delete(rowKey string) error {
	if _, ok := p.rows[rowKey]; !ok {
		return ErrRowNotFound
	}
	delete(p.rows, rowKey)
	return nil
}

func (p *partition) getFields(rowKey string) (edm.Row, bool) {
	row, ok := p.rows[rowKey]
	if !ok {
		return nil, false
	}
	if row == nil {
		row = edm.Row{}
	}
	return row.Clone(), true
}

func (p *partition) clone() *partition {
	c := &partition{rows: make(map[string]edm.Row, len(p.rows))}
	for k, row := range p.rows {
		c.rows[k] = row.Clone()
	}
	return c
}

// table maps partition keys to partitions. All access goes through lock.
type table struct {
	name       string
	lock       *ownershipLock
	partitions map[string]*partition
	// snapshot holds the partitions as they were when the current unit of
	// work began. It is nil outside a unit of work.
	snapshot map[string]*partition
}

func newTable(name string) *table {
	return &table{
		name:       name,
		lock:       newOwnershipLock(),
		partitions: make(map[string]*partition),
	}
}

func (t *table) partition(key string, create bool) *partition {
	p, ok := t.partitions[key]
	if !ok && create {
		p = newPartition()
		t.partitions[key] = p
	}
	return p
}

func (t *table) wrap(err error, partitionKey, rowKey string) error {
	return fmt.Errorf("table %s: partition %q row %q: %w", t.name, partitionKey, rowKey, err)
}

func (t *table) storeNew(partitionKey, rowKey string, fields edm.Row) error {
	if err := t.partition(partitionKey, true).storeNew(rowKey, fields); err != nil {
		return t.wrap(err, partitionKey, rowKey)
	}
	return nil
}

func (t *table) update(partitionKey, rowKey string, fields edm.Row) error {
	p := t.partition(partitionKey, false)
	if p == nil {
		return t.wrap(ErrRowNotFound, partitionKey, rowKey)
	}
	if err := p.update(rowKey, fields); err != nil {
		return t.wrap(err, partitionKey, rowKey)
	}
	return nil
}

func (t *table) storeOrReplace(partitionKey, rowKey string, fields edm.Row) {
	t.partition(partitionKey, true).storeOrReplace(rowKey, fields)
}

func (t *table) delete(partitionKey, rowKey string) error {
	p := t.partition(partitionKey, false)
	if p == nil {
		return t.wrap(ErrRowNotFound, partitionKey, rowKey)
	}
	if err := p.delete(rowKey); err != nil {
		return t.wrap(err, partitionKey, rowKey)
	}
	return nil
}

func (t *table) getFields(partitionKey, rowKey string) (edm.Row, bool) {
	p := t.partition(partitionKey, false)
	if p == nil {
		return nil, false
	}
	return p.getFields(rowKey)
}

// allRows copies every row with its keys injected, ordered by partition key
// then row key.
func (t *table) allRows() []edm.Row {
	var out []edm.Row
	for _, pk := range slices.Sorted(maps.Keys(t.partitions)) {
		p := t.partitions[pk]
		for _, rk := range slices.Sorted(maps.Keys(p.rows)) {
			row := p.rows[rk].Clone()
			if row == nil {
				row = make(edm.Row, 2)
			}
			row[PartitionKeyField] = edm.String(pk)
			row[RowKeyField] = edm.String(rk)
			out = append(out, row)
		}
	}
	return out
}

func (t *table) rowCount() int {
	n := 0
	for _, p := range t.partitions {
		n += len(p.rows)
	}
	return n
}

func (t *table) begin() error {
	if t.snapshot != nil {
		return fmt.Errorf("table %s: %w", t.name, ErrUnitOfWorkInProgress)
	}
	t.snapshot = make(map[string]*partition, len(t.partitions))
	for k, p := range t.partitions {
		t.snapshot[k] = p.clone()
	}
	return nil
}

func (t *table) commit() error {
	if t.snapshot == nil {
		return fmt.Errorf("table %s: %w", t.name, ErrNoUnitOfWork)
	}
	t.snapshot = nil
	return nil
}

func (t *table) rollback() error {
	if t.snapshot == nil {
		return fmt.Errorf("table %s: %w", t.name, ErrNoUnitOfWork)
	}
	t.partitions, t.snapshot = t.snapshot, nil
	return nil
}
