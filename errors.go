package bookstore

import (
	"errors"
	"fmt"
)

// Error is a failure surfaced to the user by a write or validation path.
// Read failures never produce an Error; they are collected in ReadFailures.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	ItemID  ItemID `json:"itemId,omitempty"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Error codes
const (
	ErrCodeNotConnected        = "not_connected"
	ErrCodePurchasePending     = "purchase_pending"
	ErrCodePriceUnknown        = "price_unknown"
	ErrCodeInsufficientBalance = "insufficient_balance"
	ErrCodeNotAdmin            = "not_admin"
	ErrCodeInvalidInput        = "invalid_input"
	ErrCodeAborted             = "aborted"
	ErrCodeTxRejected          = "transaction_rejected"
	ErrCodeTxFailed            = "transaction_failed"
	ErrCodeSnapshotFailed      = "snapshot_failed"
)

// Sentinels for errors.Is checks.
var (
	ErrNotConnected        = &Error{Code: ErrCodeNotConnected}
	ErrPurchasePending     = &Error{Code: ErrCodePurchasePending}
	ErrPriceUnknown        = &Error{Code: ErrCodePriceUnknown}
	ErrInsufficientBalance = &Error{Code: ErrCodeInsufficientBalance}
	ErrNotAdmin            = &Error{Code: ErrCodeNotAdmin}
	ErrInvalidInput        = &Error{Code: ErrCodeInvalidInput}
	ErrAborted             = &Error{Code: ErrCodeAborted}
	ErrTxRejected          = &Error{Code: ErrCodeTxRejected}
	ErrTxFailed            = &Error{Code: ErrCodeTxFailed}
	ErrSnapshotFailed      = &Error{Code: ErrCodeSnapshotFailed}
)

// NewError creates a new Error
func NewError(code, message string, id ItemID, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		ItemID:  id,
		Err:     err,
	}
}
