package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable classification of an error exposed to callers.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindConflict          ErrorKind = "conflict"
	KindInvalidAmount     ErrorKind = "invalid_amount"
	KindAccountInactive   ErrorKind = "account_inactive"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindInvalidInput      ErrorKind = "invalid_input"
	KindStoreFailure      ErrorKind = "store_failure"
)

var (
	// Taxonomy roots. Every error returned by the services wraps one of these.
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrAccountInactive   = errors.New("account is not active")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidInput      = errors.New("invalid input")
	ErrStoreFailure      = errors.New("store failure")

	// Not found
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrAccountNotFound = fmt.Errorf("account %w", ErrNotFound)
	ErrPaymentNotFound = fmt.Errorf("payment %w", ErrNotFound)

	// Conflicts
	ErrEmailTaken         = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrAccountNumberTaken = fmt.Errorf("%w: account number already in use", ErrConflict)

	// Payment errors
	ErrSameAccount              = fmt.Errorf("%w: cannot transfer to same account", ErrInvalidInput)
	ErrInvalidPaymentTransition = fmt.Errorf("%w: payment is already in a terminal state", ErrInvalidInput)

	// Account errors
	ErrInvalidStatusTransition = fmt.Errorf("%w: account status can only move from active to closed", ErrInvalidInput)
	ErrInvalidAccountStatus    = fmt.Errorf("%w: unknown account status", ErrInvalidInput)
)

// KindOf classifies err. Anything outside the taxonomy is a store failure.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrInvalidAmount):
		return KindInvalidAmount
	case errors.Is(err, ErrAccountInactive):
		return KindAccountInactive
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	default:
		return KindStoreFailure
	}
}
