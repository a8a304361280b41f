package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/infrastructure/postgres/generated"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return newLedgerRepository(pool)
}

func newLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// CheckConsistency returns the sum of all balances and of all opening balances.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (totalBalance decimal.Decimal, totalOpening decimal.Decimal, err error) {
	result, err := r.queries.CheckLedgerConsistency(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, convertErr(err, nil, "ledger.check")
	}

	totalBalance, err = numericToDecimal(result.TotalBalance)
	if err != nil {
		return decimal.Zero, decimal.Zero, convertErr(err, nil, "ledger.check")
	}

	totalOpening, err = numericToDecimal(result.TotalOpeningBalance)
	if err != nil {
		return decimal.Zero, decimal.Zero, convertErr(err, nil, "ledger.check")
	}

	return totalBalance, totalOpening, nil
}
