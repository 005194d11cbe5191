package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no todo has the requested id.
	ErrNotFound = errors.New("todo not found")

	// ErrMalformedInput marks input that fails to parse or validate.
	// Callers wrap it with detail: fmt.Errorf("%w: ...", ErrMalformedInput).
	ErrMalformedInput = errors.New("malformed input")

	// ErrNoSnapshot is returned by a Persister when nothing has been saved yet.
	ErrNoSnapshot = errors.New("no persisted snapshot")
)

// PersistenceError wraps a failure to read or write the durable mirror.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist todos after %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
