package service

import (
	"errors"
	"fmt"
)

// ErrEventNotFound is returned when no event carries the requested share id.
// It is an expected outcome for stale or mistyped links.
var ErrEventNotFound = errors.New("event not found")

// ValidationError reports a malformed or missing field in caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// StorageError wraps a persistence failure. Callers should treat it as a
// server-side fault and not expose Err.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
