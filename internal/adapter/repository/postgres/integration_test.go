package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gobank/internal/domain"
	pginfra "github.com/iho/gobank/internal/infrastructure/postgres"
	"github.com/iho/gobank/internal/usecase"
)

// newIntegrationPool connects to DATABASE_URL, migrates it and empties every
// table. Tests are skipped when DATABASE_URL is unset.
func newIntegrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" || testing.Short() {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	require.NoError(t, pginfra.NewMigrator(dbURL, "../../../infrastructure/postgres/migrations", zerolog.Nop()).Up())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, dbURL, 20, 2)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE TABLE audit_logs, outbox_events, payments, accounts, users CASCADE`)
	require.NoError(t, err)

	return pool
}

type integrationStack struct {
	users    *usecase.UserUseCase
	accounts *usecase.AccountUseCase
	transfer *usecase.TransferUseCase
	ledger   *usecase.LedgerUseCase
	accRepo  *AccountRepository
	payRepo  *PaymentRepository
}

func newIntegrationStack(pool *pgxpool.Pool) *integrationStack {
	txManager := NewTxManager(pool)
	userRepo := NewUserRepository(pool)
	accountRepo := NewAccountRepository(pool)
	paymentRepo := NewPaymentRepository(pool)
	auditRepo := NewAuditRepository(pool)
	outboxRepo := NewNullOutboxRepository()
	idGen := NewULIDGenerator()

	return &integrationStack{
		users:    usecase.NewUserUseCase(userRepo, auditRepo, nil, 0, idGen, nil),
		accounts: usecase.NewAccountUseCase(txManager, accountRepo, userRepo, outboxRepo, auditRepo, idGen, idGen, nil),
		transfer: usecase.NewTransferUseCase(txManager, accountRepo, paymentRepo, outboxRepo, auditRepo, idGen, NewRetrier(zerolog.Nop()), nil),
		ledger:   usecase.NewLedgerUseCase(NewLedgerRepository(pool)),
		accRepo:  accountRepo,
		payRepo:  paymentRepo,
	}
}

func (s *integrationStack) openAccount(t *testing.T, ctx context.Context, email string, balance int64) *domain.Account {
	t.Helper()

	user, err := s.users.CreateUser(ctx, usecase.CreateUserInput{
		FirstName:   "Test",
		LastName:    "Customer",
		Email:       email,
		DateOfBirth: time.Date(1985, 5, 17, 0, 0, 0, 0, time.UTC),
		Address:     domain.Address{Street: "1 Main St", City: "Springfield", Country: "US", PostalCode: "12345"},
	})
	require.NoError(t, err)

	account, err := s.accounts.CreateAccount(ctx, usecase.CreateAccountInput{
		UserID:         user.ID,
		InitialBalance: decimal.NewFromInt(balance),
	})
	require.NoError(t, err)
	return account
}

func TestIntegration_ConcurrentTransfersNoOverdraft(t *testing.T) {
	pool := newIntegrationPool(t)
	ctx := context.Background()
	s := newIntegrationStack(pool)

	source := s.openAccount(t, ctx, "source@example.com", 1000)
	dest := s.openAccount(t, ctx, "dest@example.com", 0)

	const numTransfers = 120
	var (
		wg           sync.WaitGroup
		successCount atomic.Int32
		rejectCount  atomic.Int32
	)

	wg.Add(numTransfers)
	for range numTransfers {
		go func() {
			defer wg.Done()

			_, err := s.transfer.ExecuteTransfer(ctx, usecase.ExecuteTransferInput{
				FromAccountID: source.ID,
				ToAccountID:   dest.ID,
				Amount:        decimal.NewFromInt(10),
			})
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrInsufficientFunds):
				rejectCount.Add(1)
			default:
				t.Errorf("unexpected transfer error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(100), successCount.Load())
	assert.Equal(t, int32(20), rejectCount.Load())

	src, err := s.accRepo.GetByID(ctx, source.ID)
	require.NoError(t, err)
	dst, err := s.accRepo.GetByID(ctx, dest.ID)
	require.NoError(t, err)
	assert.True(t, src.Balance.IsZero(), "source balance %s", src.Balance)
	assert.True(t, dst.Balance.Equal(decimal.NewFromInt(1000)), "destination balance %s", dst.Balance)

	report, err := s.ledger.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
}

func TestIntegration_OpposingTransfersDoNotDeadlock(t *testing.T) {
	pool := newIntegrationPool(t)
	ctx := context.Background()
	s := newIntegrationStack(pool)

	a := s.openAccount(t, ctx, "a@example.com", 500)
	b := s.openAccount(t, ctx, "b@example.com", 500)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			from, to := a.ID, b.ID
			if i%2 == 1 {
				from, to = to, from
			}
			_, err := s.transfer.ExecuteTransfer(ctx, usecase.ExecuteTransferInput{
				FromAccountID: from,
				ToAccountID:   to,
				Amount:        decimal.NewFromInt(5),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	report, err := s.ledger.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.True(t, report.TotalBalance.Equal(decimal.NewFromInt(1000)))
}

func TestIntegration_RejectedTransferPersistsFailedPayment(t *testing.T) {
	pool := newIntegrationPool(t)
	ctx := context.Background()
	s := newIntegrationStack(pool)

	a := s.openAccount(t, ctx, "poor@example.com", 10)
	b := s.openAccount(t, ctx, "rich@example.com", 0)

	_, err := s.transfer.ExecuteTransfer(ctx, usecase.ExecuteTransferInput{
		FromAccountID: a.ID,
		ToAccountID:   b.ID,
		Amount:        decimal.RequireFromString("10.01"),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	payments, err := s.payRepo.ListByAccount(ctx, a.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, domain.PaymentStatusFailed, payments[0].Status)

	src, err := s.accRepo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, src.Balance.Equal(decimal.NewFromInt(10)))
}

func TestIntegration_DeleteUserKeepsAccountsAndPayments(t *testing.T) {
	pool := newIntegrationPool(t)
	ctx := context.Background()
	s := newIntegrationStack(pool)

	source := s.openAccount(t, ctx, "orphan-src@example.com", 100)
	dest := s.openAccount(t, ctx, "orphan-dst@example.com", 0)

	payment, err := s.transfer.ExecuteTransfer(ctx, usecase.ExecuteTransferInput{
		FromAccountID: source.ID,
		ToAccountID:   dest.ID,
		Amount:        decimal.NewFromInt(40),
	})
	require.NoError(t, err)

	require.NoError(t, s.users.DeleteUser(ctx, source.UserID))

	orphan, err := s.accRepo.GetByID(ctx, source.ID)
	require.NoError(t, err)
	assert.Empty(t, orphan.UserID)
	assert.True(t, orphan.Balance.Equal(decimal.NewFromInt(60)), "balance %s", orphan.Balance)

	stored, err := s.payRepo.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, stored.Status)

	report, err := s.ledger.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
}
