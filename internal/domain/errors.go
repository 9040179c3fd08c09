package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across engines and stores.
var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotFinal is returned when settlement is requested for a match that
	// has not reached a final result (scheduled, live, postponed, or
	// cancelled). Cancelled matches never settle.
	ErrNotFinal = errors.New("match result not final")

	// ErrConflict is returned when two writers raced on the same aggregate
	// key and the losing retry also failed.
	ErrConflict = errors.New("concurrent update conflict")
)

// ValidationError describes malformed input rejected synchronously, before
// any state changes.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IntegrityError describes stored facts that contradict an invariant, e.g.
// a finished match without goal counts. The offending record is excluded
// from derived-state computation until corrected; callers see "not ready",
// not a crash.
type IntegrityError struct {
	Entity string
	ID     int64
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Entity, e.ID, e.Reason)
}

// IsIntegrity reports whether err is an IntegrityError.
func IsIntegrity(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
