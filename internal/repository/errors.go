package repository

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the repositories. Callers match them with errors.Is.
var (
	// ErrStorageUnavailable means the database could not be opened or the schema
	// could not be created. Nothing else works until the process is restarted.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrQuery is returned when a read fails.
	ErrQuery = errors.New("query failed")

	// ErrWrite is returned when a create, update or delete fails.
	ErrWrite = errors.New("write failed")

	// ErrInvalidTask is returned when a task is rejected before reaching the database.
	ErrInvalidTask = errors.New("invalid task")
)

// StoreError carries the failed operation, its kind and the underlying cause.
type StoreError struct {
	Operation string
	Kind      error
	Err       error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Operation, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Operation, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newStoreError(op string, kind, err error) *StoreError {
	return &StoreError{Operation: op, Kind: kind, Err: err}
}
