package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/usecase"
	"github.com/iho/gobank/internal/usecase/mocks"
)

func newTransferUseCase(store *mocks.Store) *usecase.TransferUseCase {
	return usecase.NewTransferUseCase(
		store.TxManager,
		store.Accounts,
		store.Payments,
		store.Outbox,
		store.Audit,
		mocks.NewMockIDGenerator(),
		nil,
		nil,
	)
}

func seedAccount(store *mocks.Store, id string, balance int64, status domain.AccountStatus) {
	now := time.Now().UTC()
	store.SeedAccount(&domain.Account{
		ID:             id,
		Number:         "0000000" + id,
		UserID:         "user-1",
		Balance:        decimal.NewFromInt(balance),
		OpeningBalance: decimal.NewFromInt(balance),
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

func TestTransferUseCase_ExecuteTransfer(t *testing.T) {
	tests := []struct {
		name        string
		from        int64
		fromStatus  domain.AccountStatus
		to          int64
		toStatus    domain.AccountStatus
		amount      string
		wantErr     error
		wantFrom    int64
		wantTo      int64
		wantPayment domain.PaymentStatus
	}{
		{
			name:        "moves money between active accounts",
			from:        1000,
			fromStatus:  domain.AccountStatusActive,
			to:          0,
			toStatus:    domain.AccountStatusActive,
			amount:      "500",
			wantFrom:    500,
			wantTo:      500,
			wantPayment: domain.PaymentStatusCompleted,
		},
		{
			name:        "allows draining the source to zero",
			from:        250,
			fromStatus:  domain.AccountStatusActive,
			to:          10,
			toStatus:    domain.AccountStatusActive,
			amount:      "250",
			wantFrom:    0,
			wantTo:      260,
			wantPayment: domain.PaymentStatusCompleted,
		},
		{
			name:        "rejects insufficient funds",
			from:        100,
			fromStatus:  domain.AccountStatusActive,
			to:          0,
			toStatus:    domain.AccountStatusActive,
			amount:      "500",
			wantErr:     domain.ErrInsufficientFunds,
			wantFrom:    100,
			wantTo:      0,
			wantPayment: domain.PaymentStatusFailed,
		},
		{
			name:        "rejects closed source",
			from:        1000,
			fromStatus:  domain.AccountStatusClosed,
			to:          0,
			toStatus:    domain.AccountStatusActive,
			amount:      "10",
			wantErr:     domain.ErrAccountInactive,
			wantFrom:    1000,
			wantTo:      0,
			wantPayment: domain.PaymentStatusFailed,
		},
		{
			name:        "rejects closed destination",
			from:        1000,
			fromStatus:  domain.AccountStatusActive,
			to:          0,
			toStatus:    domain.AccountStatusClosed,
			amount:      "10",
			wantErr:     domain.ErrAccountInactive,
			wantFrom:    1000,
			wantTo:      0,
			wantPayment: domain.PaymentStatusFailed,
		},
		{
			name:        "reports inactive before insufficient funds",
			from:        5,
			fromStatus:  domain.AccountStatusClosed,
			to:          0,
			toStatus:    domain.AccountStatusActive,
			amount:      "10",
			wantErr:     domain.ErrAccountInactive,
			wantFrom:    5,
			wantTo:      0,
			wantPayment: domain.PaymentStatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewStore()
			seedAccount(store, "acc-a", tt.from, tt.fromStatus)
			seedAccount(store, "acc-b", tt.to, tt.toStatus)

			uc := newTransferUseCase(store)
			payment, err := uc.ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
				FromAccountID: "acc-a",
				ToAccountID:   "acc-b",
				Amount:        decimal.RequireFromString(tt.amount),
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if payment != nil {
					t.Errorf("expected nil payment on error, got %+v", payment)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if payment.Status != domain.PaymentStatusCompleted {
					t.Errorf("expected completed payment, got %s", payment.Status)
				}
				if payment.TransactionDate.IsZero() {
					t.Error("expected transaction date to be set")
				}
			}

			if got := store.Account("acc-a").Balance; !got.Equal(decimal.NewFromInt(tt.wantFrom)) {
				t.Errorf("source balance: expected %d, got %s", tt.wantFrom, got)
			}
			if got := store.Account("acc-b").Balance; !got.Equal(decimal.NewFromInt(tt.wantTo)) {
				t.Errorf("destination balance: expected %d, got %s", tt.wantTo, got)
			}

			payments := store.AllPayments()
			if len(payments) != 1 {
				t.Fatalf("expected 1 payment row, got %d", len(payments))
			}
			if payments[0].Status != tt.wantPayment {
				t.Errorf("expected payment status %s, got %s", tt.wantPayment, payments[0].Status)
			}
			if tt.wantErr != nil && payments[0].FailureReason != string(domain.KindOf(tt.wantErr)) {
				t.Errorf("expected failure reason %s, got %s", domain.KindOf(tt.wantErr), payments[0].FailureReason)
			}
		})
	}
}

func TestTransferUseCase_InvalidRequestsWriteNothing(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		amount  decimal.Decimal
		wantErr error
	}{
		{"zero amount", "acc-a", "acc-b", decimal.Zero, domain.ErrInvalidAmount},
		{"negative amount", "acc-a", "acc-b", decimal.NewFromInt(-5), domain.ErrInvalidAmount},
		{"below minimum", "acc-a", "acc-b", decimal.RequireFromString("0.001"), domain.ErrInvalidAmount},
		{"same account", "acc-a", "acc-a", decimal.NewFromInt(5), domain.ErrSameAccount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewStore()
			seedAccount(store, "acc-a", 100, domain.AccountStatusActive)
			seedAccount(store, "acc-b", 100, domain.AccountStatusActive)

			_, err := newTransferUseCase(store).ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
				FromAccountID: tt.from,
				ToAccountID:   tt.to,
				Amount:        tt.amount,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			if n := len(store.AllPayments()); n != 0 {
				t.Errorf("expected no payment rows, got %d", n)
			}
			if n := len(store.AuditLogs()); n != 0 {
				t.Errorf("expected no audit rows, got %d", n)
			}
		})
	}
}

func TestTransferUseCase_AccountNotFound(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
	}{
		{"missing source", "acc-missing", "acc-b"},
		{"missing destination", "acc-a", "acc-missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewStore()
			seedAccount(store, "acc-a", 100, domain.AccountStatusActive)
			seedAccount(store, "acc-b", 100, domain.AccountStatusActive)

			_, err := newTransferUseCase(store).ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
				FromAccountID: tt.from,
				ToAccountID:   tt.to,
				Amount:        decimal.NewFromInt(10),
			})
			if !errors.Is(err, domain.ErrAccountNotFound) {
				t.Fatalf("expected ErrAccountNotFound, got %v", err)
			}

			if n := len(store.AllPayments()); n != 0 {
				t.Errorf("expected no payment rows, got %d", n)
			}

			logs := store.AuditLogs()
			if len(logs) != 1 || logs[0].Status != domain.AuditStatusFailure {
				t.Fatalf("expected one failed audit row, got %+v", logs)
			}
			if !store.Account("acc-a").Balance.Equal(decimal.NewFromInt(100)) {
				t.Error("expected source balance unchanged")
			}
		})
	}
}

func TestTransferUseCase_WritesOutboxAndAudit(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-a", 1000, domain.AccountStatusActive)
	seedAccount(store, "acc-b", 0, domain.AccountStatusActive)

	payment, err := newTransferUseCase(store).ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
		FromAccountID: "acc-a",
		ToAccountID:   "acc-b",
		Amount:        decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := store.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 outbox event, got %d", len(events))
	}
	if events[0].EventType != domain.EventTypePaymentCompleted || events[0].AggregateID != payment.ID {
		t.Errorf("unexpected event: %+v", events[0])
	}

	logs := store.AuditLogs()
	if len(logs) != 1 || logs[0].Action != domain.AuditActionPaymentCreate || logs[0].Status != domain.AuditStatusSuccess {
		t.Errorf("unexpected audit logs: %+v", logs)
	}
}

func TestTransferUseCase_FailedWriteLeavesBalancesUnchanged(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-a", 1000, domain.AccountStatusActive)
	seedAccount(store, "acc-b", 0, domain.AccountStatusActive)

	storeErr := errors.New("connection reset")
	store.Payments.CreateFunc = func(ctx context.Context, tx usecase.Transaction, p *domain.Payment) error {
		return storeErr
	}

	_, err := newTransferUseCase(store).ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
		FromAccountID: "acc-a",
		ToAccountID:   "acc-b",
		Amount:        decimal.NewFromInt(300),
	})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}

	if !store.Account("acc-a").Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected source balance 1000, got %s", store.Account("acc-a").Balance)
	}
	if !store.Account("acc-b").Balance.IsZero() {
		t.Errorf("expected destination balance 0, got %s", store.Account("acc-b").Balance)
	}
	if n := len(store.Events()); n != 0 {
		t.Errorf("expected no outbox events, got %d", n)
	}
}

func TestTransferUseCase_CommitFailure(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-a", 1000, domain.AccountStatusActive)
	seedAccount(store, "acc-b", 0, domain.AccountStatusActive)

	commitErr := errors.New("commit failed")
	store.TxManager.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
		tx := store.NewTransaction()
		tx.CommitFunc = func(ctx context.Context) error { return commitErr }
		return tx, nil
	}

	_, err := newTransferUseCase(store).ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
		FromAccountID: "acc-a",
		ToAccountID:   "acc-b",
		Amount:        decimal.NewFromInt(1),
	})
	if !errors.Is(err, commitErr) {
		t.Fatalf("expected commit error, got %v", err)
	}
	if domain.KindOf(err) != domain.KindStoreFailure {
		t.Errorf("expected store_failure kind, got %s", domain.KindOf(err))
	}
	if !store.Account("acc-a").Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected source balance 1000, got %s", store.Account("acc-a").Balance)
	}
}

func TestTransferUseCase_RecordingFailureIsJoined(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-a", 10, domain.AccountStatusActive)
	seedAccount(store, "acc-b", 0, domain.AccountStatusActive)

	recordErr := errors.New("outbox unavailable")
	store.Outbox.CreateFunc = func(ctx context.Context, tx usecase.Transaction, e *domain.OutboxEvent) error {
		return recordErr
	}

	_, err := newTransferUseCase(store).ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
		FromAccountID: "acc-a",
		ToAccountID:   "acc-b",
		Amount:        decimal.NewFromInt(50),
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if !strings.Contains(err.Error(), recordErr.Error()) {
		t.Errorf("expected recording error in message, got %v", err)
	}
	if domain.KindOf(err) != domain.KindInsufficientFunds {
		t.Errorf("expected insufficient_funds kind, got %s", domain.KindOf(err))
	}
	if n := len(store.AllPayments()); n != 0 {
		t.Errorf("expected failed row to be rolled back, got %d rows", n)
	}
}

func TestTransferUseCase_RecordingFailureKeepsRejectionKind(t *testing.T) {
	tests := []struct {
		name      string
		recordErr error
		from      string
		wantKind  domain.ErrorKind
	}{
		{"conflict while recording insufficient funds", domain.ErrConflict, "acc-a", domain.KindInsufficientFunds},
		{"not found while recording insufficient funds", domain.ErrAccountNotFound, "acc-a", domain.KindInsufficientFunds},
		{"conflict while recording inactive source", domain.ErrConflict, "acc-c", domain.KindAccountInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewStore()
			seedAccount(store, "acc-a", 10, domain.AccountStatusActive)
			seedAccount(store, "acc-b", 0, domain.AccountStatusActive)
			seedAccount(store, "acc-c", 100, domain.AccountStatusClosed)

			store.Payments.CreateFunc = func(ctx context.Context, tx usecase.Transaction, p *domain.Payment) error {
				return tt.recordErr
			}

			_, err := newTransferUseCase(store).ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
				FromAccountID: tt.from,
				ToAccountID:   "acc-b",
				Amount:        decimal.NewFromInt(50),
			})
			if got := domain.KindOf(err); got != tt.wantKind {
				t.Fatalf("expected %s, got %s (%v)", tt.wantKind, got, err)
			}
			if !errors.Is(err, domain.ErrStoreFailure) {
				t.Errorf("expected recording failure to be marked as store failure, got %v", err)
			}
		})
	}
}

func TestTransferUseCase_RetriesTransientErrors(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-a", 1000, domain.AccountStatusActive)
	seedAccount(store, "acc-b", 0, domain.AccountStatusActive)

	transient := errors.New("deadlock detected")
	calls := 0
	store.Accounts.GetByIDsForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
		calls++
		if calls == 1 {
			return nil, transient
		}
		return []*domain.Account{store.Account("acc-a"), store.Account("acc-b")}, nil
	}

	m := metrics.New(prometheus.NewRegistry())
	uc := usecase.NewTransferUseCase(
		store.TxManager, store.Accounts, store.Payments, store.Outbox, store.Audit,
		mocks.NewMockIDGenerator(),
		&mocks.MockRetrier{Attempts: 2, Retryable: func(err error) bool { return errors.Is(err, transient) }},
		m,
	)

	payment, err := uc.ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
		FromAccountID: "acc-a",
		ToAccountID:   "acc-b",
		Amount:        decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.Status != domain.PaymentStatusCompleted {
		t.Errorf("expected completed, got %s", payment.Status)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
	if got := testutil.ToFloat64(m.TransferRetries); got != 1 {
		t.Errorf("expected 1 retry recorded, got %v", got)
	}
	if got := testutil.ToFloat64(m.PaymentsCompleted); got != 1 {
		t.Errorf("expected 1 completed payment recorded, got %v", got)
	}
}

func TestTransferUseCase_FailureMetrics(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-a", 10, domain.AccountStatusActive)
	seedAccount(store, "acc-b", 0, domain.AccountStatusActive)

	m := metrics.New(prometheus.NewRegistry())
	uc := usecase.NewTransferUseCase(
		store.TxManager, store.Accounts, store.Payments, store.Outbox, store.Audit,
		mocks.NewMockIDGenerator(), nil, m,
	)

	_, _ = uc.ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
		FromAccountID: "acc-a",
		ToAccountID:   "acc-b",
		Amount:        decimal.NewFromInt(50),
	})

	if got := testutil.ToFloat64(m.PaymentsFailed.WithLabelValues(string(domain.KindInsufficientFunds))); got != 1 {
		t.Errorf("expected 1 insufficient_funds failure, got %v", got)
	}
}

func TestTransferUseCase_ConcurrentTransfersNeverOverdraw(t *testing.T) {
	const (
		workers = 20
		amount  = 10
	)

	store := mocks.NewStore()
	// One short of covering every transfer.
	seedAccount(store, "acc-a", workers*amount-1, domain.AccountStatusActive)
	seedAccount(store, "acc-b", 0, domain.AccountStatusActive)

	uc := newTransferUseCase(store)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
				FromAccountID: "acc-a",
				ToAccountID:   "acc-b",
				Amount:        decimal.NewFromInt(amount),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientFunds):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != workers-1 || rejected != 1 {
		t.Errorf("expected %d successes and 1 rejection, got %d and %d", workers-1, succeeded, rejected)
	}

	from := store.Account("acc-a").Balance
	to := store.Account("acc-b").Balance
	if from.IsNegative() {
		t.Fatalf("source overdrawn: %s", from)
	}
	if !from.Add(to).Equal(decimal.NewFromInt(workers*amount - 1)) {
		t.Errorf("money not conserved: %s + %s", from, to)
	}
}

func TestTransferUseCase_OpposingTransfersDoNotDeadlock(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-a", 1000, domain.AccountStatusActive)
	seedAccount(store, "acc-b", 1000, domain.AccountStatusActive)

	uc := newTransferUseCase(store)

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				from, to := "acc-a", "acc-b"
				if i%2 == 1 {
					from, to = to, from
				}
				_, _ = uc.ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
					FromAccountID: from,
					ToAccountID:   to,
					Amount:        decimal.NewFromInt(1),
				})
			}()
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("transfers deadlocked")
	}

	total := store.Account("acc-a").Balance.Add(store.Account("acc-b").Balance)
	if !total.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("expected total 2000, got %s", total)
	}
}

func TestTransferUseCase_RoundTrip(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-a", 1000, domain.AccountStatusActive)
	seedAccount(store, "acc-b", 0, domain.AccountStatusActive)

	uc := newTransferUseCase(store)
	ctx := context.Background()

	if _, err := uc.ExecuteTransfer(ctx, usecase.ExecuteTransferInput{FromAccountID: "acc-a", ToAccountID: "acc-b", Amount: decimal.RequireFromString("123.45")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uc.ExecuteTransfer(ctx, usecase.ExecuteTransferInput{FromAccountID: "acc-b", ToAccountID: "acc-a", Amount: decimal.RequireFromString("123.45")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !store.Account("acc-a").Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected 1000, got %s", store.Account("acc-a").Balance)
	}
	if !store.Account("acc-b").Balance.IsZero() {
		t.Errorf("expected 0, got %s", store.Account("acc-b").Balance)
	}
	if n := len(store.AllPayments()); n != 2 {
		t.Errorf("expected 2 payments, got %d", n)
	}
}
