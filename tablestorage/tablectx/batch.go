package tablectx

import (
	"context"
	"errors"
	"fmt"

	"github.com/jamie-davis/AzureTableSpike/tablestorage/tablestore"
)

// MaxBatchSize is the most actions one batch may carry.
const MaxBatchSize = 100

type batchOp string

const (
	opAdd    batchOp = "add"
	opUpdate batchOp = "update"
	opDelete batchOp = "delete"
)

type batchAction struct {
	op     batchOp
	entity Entity
}

type batch struct {
	partitionKey string
	actions      []batchAction
	rows         map[string]struct{}
}

// BatchAdd queues an insert for the next BatchExecute.
func (t *Table) BatchAdd(e Entity) error {
	return t.queue(opAdd, e)
}

func (t *Table) BatchUpdate(e Entity) error {
	return t.queue(opUpdate, e)
}

func (t *Table) BatchDelete(e Entity) error {
	return t.queue(opDelete, e)
}

// Pending returns the number of queued batch actions.
func (t *Table) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.batch == nil {
		return 0
	}
	return len(t.batch.actions)
}

// queue checks the action against the batch so far. A rejected action is
// not queued and leaves the batch as it was.
func (t *Table) queue(op batchOp, e Entity) error {
	e = t.withKeys(e)
	e.Properties = e.Properties.Clone()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.batch == nil {
		t.batch = &batch{partitionKey: e.PartitionKey, rows: make(map[string]struct{})}
	}
	b := t.batch
	if e.PartitionKey != b.partitionKey {
		return fmt.Errorf("%s %q: %w (batch partition %q)", op, e.PartitionKey, ErrPartitionKeyMismatch, b.partitionKey)
	}
	if _, ok := b.rows[e.RowKey]; ok {
		return fmt.Errorf("%s row %q: %w", op, e.RowKey, ErrDuplicateBatchRow)
	}
	if len(b.actions) == MaxBatchSize {
		return ErrBatchFull
	}
	b.rows[e.RowKey] = struct{}{}
	b.actions = append(b.actions, batchAction{op: op, entity: e})
	return nil
}

// BatchExecute applies the queued actions as one unit of work. If any
// action fails the table is rolled back and the error returned. Once the
// unit of work has begun the queue is emptied, whatever the outcome; if it
// cannot begin the queue is kept for a later attempt.
func (t *Table) BatchExecute(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	b := t.batch
	if b == nil || len(b.actions) == 0 {
		return nil
	}

	ctx = tablestore.WithOwner(ctx)
	if err := t.store.BeginUnitOfWork(ctx, t.name); err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	t.batch = nil

	for i, a := range b.actions {
		if err := t.apply(ctx, a); err != nil {
			err = fmt.Errorf("batch action %d (%s): %w", i, a.op, err)
			if rbErr := t.store.Rollback(ctx, t.name); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
			t.logger.Debug("batch rolled back", "table", t.name, "partition", b.partitionKey, "error", err)
			return err
		}
	}

	if err := t.store.Commit(ctx, t.name); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	t.logger.Debug("batch committed", "table", t.name, "partition", b.partitionKey, "actions", len(b.actions))
	return nil
}

func (t *Table) apply(ctx context.Context, a batchAction) error {
	e := a.entity
	switch a.op {
	case opAdd:
		return t.store.StoreNew(ctx, t.name, e.PartitionKey, e.RowKey, e.Properties)
	case opUpdate:
		return t.store.Update(ctx, t.name, e.PartitionKey, e.RowKey, e.Properties)
	case opDelete:
		return t.store.Delete(ctx, t.name, e.PartitionKey, e.RowKey)
	default:
		return fmt.Errorf("unknown batch operation %q", a.op)
	}
}
