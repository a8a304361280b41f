package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
	"github.com/iho/gobank/internal/usecase/mocks"
)

func newReconciliationUseCase(store *mocks.Store) *usecase.ReconciliationUseCase {
	return usecase.NewReconciliationUseCase(store.Accounts, store.Payments, store.Ledger)
}

func TestReconcileAccount(t *testing.T) {
	t.Parallel()

	store := mocks.NewStore()
	seedAccount(store, "acc-a", 1000, domain.AccountStatusActive)
	seedAccount(store, "acc-b", 0, domain.AccountStatusActive)

	transfers := newTransferUseCase(store)
	ctx := context.Background()
	for _, in := range []usecase.ExecuteTransferInput{
		{FromAccountID: "acc-a", ToAccountID: "acc-b", Amount: decimal.NewFromInt(300)},
		{FromAccountID: "acc-b", ToAccountID: "acc-a", Amount: decimal.NewFromInt(50)},
		{FromAccountID: "acc-b", ToAccountID: "acc-a", Amount: decimal.NewFromInt(9999)},
	} {
		_, _ = transfers.ExecuteTransfer(ctx, in)
	}

	result, err := newReconciliationUseCase(store).ReconcileAccount(ctx, "acc-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsReconciled {
		t.Fatalf("expected reconciled account, got %+v", result)
	}
	if !result.CalculatedBalance.Equal(decimal.NewFromInt(750)) {
		t.Errorf("expected calculated 750, got %s", result.CalculatedBalance)
	}
	if !result.Difference.IsZero() {
		t.Errorf("expected zero difference, got %s", result.Difference)
	}
}

func TestReconcileAccount_DetectsDrift(t *testing.T) {
	t.Parallel()

	store := mocks.NewStore()
	seedAccount(store, "acc-a", 1000, domain.AccountStatusActive)
	store.Accounts.GetByIDFunc = func(ctx context.Context, id string) (*domain.Account, error) {
		return &domain.Account{
			ID:             id,
			Balance:        decimal.NewFromInt(990),
			OpeningBalance: decimal.NewFromInt(1000),
		}, nil
	}

	result, err := newReconciliationUseCase(store).ReconcileAccount(context.Background(), "acc-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsReconciled {
		t.Fatal("expected discrepancy")
	}
	if !result.Difference.Equal(decimal.NewFromInt(-10)) {
		t.Errorf("expected difference -10, got %s", result.Difference)
	}
}

func TestReconcileAccount_PropagatesError(t *testing.T) {
	t.Parallel()

	store := mocks.NewStore()
	_, err := newReconciliationUseCase(store).ReconcileAccount(context.Background(), "missing")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	seedAccount(store, "acc-a", 10, domain.AccountStatusActive)
	sumErr := errors.New("sum failed")
	store.Payments.SumCompletedByAccountFunc = func(ctx context.Context, id string) (decimal.Decimal, decimal.Decimal, error) {
		return decimal.Zero, decimal.Zero, sumErr
	}
	_, err = newReconciliationUseCase(store).ReconcileAccount(context.Background(), "acc-a")
	if !errors.Is(err, sumErr) {
		t.Fatalf("expected sum error, got %v", err)
	}
}

func TestReconcileAllAccounts(t *testing.T) {
	t.Parallel()

	store := mocks.NewStore()
	seedAccount(store, "acc-a", 10, domain.AccountStatusActive)
	seedAccount(store, "acc-b", 20, domain.AccountStatusActive)
	seedAccount(store, "acc-c", 30, domain.AccountStatusClosed)

	results, err := newReconciliationUseCase(store).ReconcileAllAccounts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.IsReconciled {
			t.Errorf("expected %s reconciled", r.AccountID)
		}
	}
}

func TestReconcileAllAccounts_Pages(t *testing.T) {
	t.Parallel()

	store := mocks.NewStore()
	var offsets []int
	store.Accounts.ListFunc = func(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
		offsets = append(offsets, offset)
		if offset > 0 {
			return nil, nil
		}
		accounts := make([]*domain.Account, limit)
		for i := range accounts {
			accounts[i] = &domain.Account{ID: "acc"}
		}
		return accounts, nil
	}
	store.Accounts.GetByIDFunc = func(ctx context.Context, id string) (*domain.Account, error) {
		return &domain.Account{ID: id}, nil
	}

	results, err := newReconciliationUseCase(store).ReconcileAllAccounts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offsets) != 2 || offsets[1] != len(results) {
		t.Errorf("expected a second page at offset %d, got %v", len(results), offsets)
	}
}

func TestGenerateReconciliationReport(t *testing.T) {
	t.Parallel()

	store := mocks.NewStore()
	seedAccount(store, "acc-a", 100, domain.AccountStatusActive)
	seedAccount(store, "acc-b", 100, domain.AccountStatusActive)

	if _, err := newTransferUseCase(store).ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
		FromAccountID: "acc-a",
		ToAccountID:   "acc-b",
		Amount:        decimal.NewFromInt(40),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := newReconciliationUseCase(store).GenerateReconciliationReport(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalAccounts != 2 || report.ReconciledAccounts != 2 {
		t.Errorf("expected 2/2 reconciled, got %d/%d", report.ReconciledAccounts, report.TotalAccounts)
	}
	if len(report.Discrepancies) != 0 {
		t.Errorf("expected no discrepancies, got %d", len(report.Discrepancies))
	}
	if !report.LedgerConsistent {
		t.Error("expected ledger consistent")
	}
}

func TestGenerateReconciliationReport_LedgerError(t *testing.T) {
	t.Parallel()

	store := mocks.NewStore()
	ledgerErr := errors.New("ledger failed")
	store.Ledger.CheckConsistencyFunc = func(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
		return decimal.Zero, decimal.Zero, ledgerErr
	}

	_, err := newReconciliationUseCase(store).GenerateReconciliationReport(context.Background())
	if !errors.Is(err, ledgerErr) {
		t.Fatalf("expected ledger error, got %v", err)
	}
}
