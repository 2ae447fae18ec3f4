package tablestore

import "errors"

var (
	ErrRowAlreadyExists     = errors.New("row already exists")
	ErrRowNotFound          = errors.New("row not found")
	ErrNoUnitOfWork         = errors.New("no unit of work in progress")
	ErrUnitOfWorkInProgress = errors.New("unit of work already in progress")
	// ErrOwnerRequired is returned by BeginUnitOfWork for a context without
	// an owner. An anonymous caller could never commit its own unit of work.
	ErrOwnerRequired = errors.New("context has no owner, use WithOwner")
)
