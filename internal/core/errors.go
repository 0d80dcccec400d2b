package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when an operation is not allowed in the
	// current lifecycle state, e.g. starting a trip while one is active.
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNotFound          = errors.New("not found")
	// ErrUsageCapExceeded is returned when an intention is attached to more
	// trips than UsageCap allows.
	ErrUsageCapExceeded = errors.New("usage cap exceeded")
	ErrValidation       = errors.New("validation failed")
	ErrPersistence      = errors.New("persistence failed")
)

// ValidationError describes malformed input rejected at the boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// PersistenceError reports a failed write. The in-memory state it was
// persisting is kept; callers decide whether to retry or warn.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save %s: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// IsPersistence reports whether err only signals a failed write, meaning the
// operation itself took effect in memory.
func IsPersistence(err error) bool {
	return err != nil && errors.Is(err, ErrPersistence)
}
