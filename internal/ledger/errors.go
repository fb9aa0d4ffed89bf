package ledger

import (
	"errors"
	"fmt"
)

// Common ledger errors
var (
	// ErrInvalidAmount is returned when a payment amount is zero or negative.
	ErrInvalidAmount = errors.New("payment amount must be greater than zero")

	// ErrPaymentNotFound is returned when an edit or delete names a payment
	// that is not part of the invoice's effective history.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrMissingPaymentID is returned when a submitted payment record has no id.
	ErrMissingPaymentID = errors.New("payment id is required")

	// ErrDuplicatePaymentID is returned when two submitted payment records
	// share an id.
	ErrDuplicatePaymentID = errors.New("payment id is used more than once")

	// ErrDuplicateLegacyPayment is returned when a submitted history holds
	// more than one legacy-payment record.
	ErrDuplicateLegacyPayment = errors.New("only one legacy payment record is allowed")

	// ErrInvoiceNotFound is returned when the invoice is neither in the
	// local view nor in the store.
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrPersistence is matched by every PersistenceError.
	ErrPersistence = errors.New("failed to persist invoice")
)

// ValidationError is returned when payment input is rejected. No state is
// changed when it is returned.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap returns the sentinel the validation failure corresponds to.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: err.Error(),
		Err:     err,
	}
}

// PersistenceError reports a failed store write. The in-memory view already
// holds the new invoice when it is returned; it is not rolled back.
type PersistenceError struct {
	// Op is the ledger operation that produced the write (e.g. "AddPayment").
	Op string

	// InvoiceID is the invoice that could not be saved.
	InvoiceID string

	// Err is the store error.
	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ledger: %s failed to save invoice %s: %v", e.Op, e.InvoiceID, e.Err)
}

// Unwrap returns the underlying store error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is matches ErrPersistence as well as the wrapped error.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
