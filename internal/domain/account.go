package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	AccountStatusClosed AccountStatus = "closed"
)

// IsValid reports whether s is a known status.
func (s AccountStatus) IsValid() bool {
	return s == AccountStatusActive || s == AccountStatusClosed
}

// Account is a customer account holding a balance.
type Account struct {
	ID             string
	Number         string
	UserID         string
	Balance        decimal.Decimal
	OpeningBalance decimal.Decimal
	Status         AccountStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ClosedAt       *time.Time
}

// IsActive reports whether the account may take part in transfers.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// ValidateDebit checks if account can be debited by amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if !a.IsActive() {
		return ErrAccountInactive
	}
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// ValidateCredit checks if account can be credited.
func (a *Account) ValidateCredit() error {
	if !a.IsActive() {
		return ErrAccountInactive
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// TransitionTo moves the account to status. Setting the current status is a
// no-op and reports false. Closed accounts are never reopened.
func (a *Account) TransitionTo(status AccountStatus, at time.Time) (bool, error) {
	if !status.IsValid() {
		return false, ErrInvalidAccountStatus
	}
	if a.Status == status {
		return false, nil
	}
	if a.Status == AccountStatusClosed {
		return false, ErrInvalidStatusTransition
	}

	a.Status = status
	a.UpdatedAt = at
	if status == AccountStatusClosed {
		a.ClosedAt = &at
	}
	return true, nil
}
