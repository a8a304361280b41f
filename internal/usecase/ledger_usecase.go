package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInconsistentLedger is returned when transfers did not conserve money.
var ErrInconsistentLedger = errors.New("ledger is inconsistent: balances do not match opening balances")

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// ConsistencyReport is the outcome of a ledger-wide balance check.
type ConsistencyReport struct {
	TotalBalance        decimal.Decimal
	TotalOpeningBalance decimal.Decimal
	Difference          decimal.Decimal
	Consistent          bool
	CheckedAt           time.Time
}

// CheckConsistency verifies that internal transfers conserved money: the sum
// of all balances equals the sum of all opening balances.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	totalBalance, totalOpening, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	return &ConsistencyReport{
		TotalBalance:        totalBalance,
		TotalOpeningBalance: totalOpening,
		Difference:          totalBalance.Sub(totalOpening),
		Consistent:          totalBalance.Equal(totalOpening),
		CheckedAt:           time.Now().UTC(),
	}, nil
}
