package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the outcome of a transfer attempt.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// IsValid reports whether s is a known status.
func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusPending || s.IsTerminal()
}

// IsTerminal reports whether no further transition is allowed.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

// Payment is the write-once audit record of a transfer attempt.
type Payment struct {
	ID              string
	FromAccountID   string
	ToAccountID     string
	Amount          decimal.Decimal
	Status          PaymentStatus
	FailureReason   string
	TransactionDate time.Time
}

// Validate validates transfer request.
func (p *Payment) Validate() error {
	if err := ValidateAmount(p.Amount); err != nil {
		return err
	}

	if p.FromAccountID == p.ToAccountID {
		return ErrSameAccount
	}

	return nil
}

// Complete moves a pending payment to completed.
func (p *Payment) Complete(at time.Time) error {
	if p.Status.IsTerminal() {
		return ErrInvalidPaymentTransition
	}
	p.Status = PaymentStatusCompleted
	p.TransactionDate = at
	return nil
}

// Fail moves a pending payment to failed, recording why.
func (p *Payment) Fail(reason ErrorKind, at time.Time) error {
	if p.Status.IsTerminal() {
		return ErrInvalidPaymentTransition
	}
	p.Status = PaymentStatusFailed
	p.FailureReason = string(reason)
	p.TransactionDate = at
	return nil
}
