package sequence

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDate = errors.New("invalid deed date")
	ErrPersistence = errors.New("deed persistence failed")
)

// ValidationError reports a rejected deed before anything is saved.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a failed deed save. The local snapshot already
// holds the deed.
type PersistenceError struct {
	Op     string
	DeedID string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("sequence: %s failed to save deed %s: %v", e.Op, e.DeedID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
