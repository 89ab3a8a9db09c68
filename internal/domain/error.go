package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrMissingPaymentInput = errors.New("missing payment details")
	ErrAmountMismatch      = errors.New("mismatched amount")
	ErrNoPaymentMethod     = errors.New("no available payment method")
	ErrCheckoutInProgress  = errors.New("checkout already in progress for this order")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInvalidExecContext  = errors.New("invalid execution context")
	ErrOperationFailed     = errors.New("operation failed")
	ErrReadDatabaseRow     = errors.New("failed to read database row")
)

// TransactionDeclinedError is a processor-reported decline. It is recoverable:
// the order stays unpaid and the shopper may retry with different details.
type TransactionDeclinedError struct {
	Description string
}

func (e *TransactionDeclinedError) Error() string {
	if e.Description == "" {
		return "transaction declined"
	}
	return fmt.Sprintf("transaction declined: %s", e.Description)
}

// IsDeclined reports whether err wraps a TransactionDeclinedError.
func IsDeclined(err error) bool {
	var d *TransactionDeclinedError
	return errors.As(err, &d)
}
