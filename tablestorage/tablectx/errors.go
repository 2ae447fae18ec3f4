package tablectx

import (
	"errors"
	"fmt"
)

var (
	// ErrPartitionKeyMismatch is returned when a batch action names a
	// different partition from the actions already queued.
	ErrPartitionKeyMismatch = errors.New("batch actions must share one partition key")
	ErrDuplicateBatchRow    = errors.New("row already appears in batch")
	ErrBatchFull            = fmt.Errorf("batch cannot hold more than %d actions", MaxBatchSize)
)

// InvalidFilterError is returned by Query when the filter does not parse.
type InvalidFilterError struct {
	Filter string
	Reason string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid filter string %q: %s", e.Filter, e.Reason)
}

// QueryFailedError is yielded by a query whose filter could not be
// evaluated against a row.
type QueryFailedError struct {
	Filter       string
	PartitionKey string
	RowKey       string
	Err          error
}

func (e *QueryFailedError) Error() string {
	return fmt.Sprintf("query %q failed on partition %q row %q: %v", e.Filter, e.PartitionKey, e.RowKey, e.Err)
}

func (e *QueryFailedError) Unwrap() error {
	return e.Err
}
