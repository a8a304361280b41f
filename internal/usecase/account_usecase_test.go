package usecase_test

import (
	"context"
	"errors"
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

func newAccountUseCase(store *mocks.Store, numberGen usecase.AccountNumberGenerator) *usecase.AccountUseCase {
	if numberGen == nil {
		numberGen = &mocks.MockAccountNumberGenerator{}
	}
	return usecase.NewAccountUseCase(
		store.TxManager,
		store.Accounts,
		store.Users,
		store.Outbox,
		store.Audit,
		mocks.NewMockIDGenerator(),
		numberGen,
		nil,
	)
}

func seedUser(store *mocks.Store, id, email string) {
	now := time.Now().UTC()
	store.SeedUser(&domain.User{
		ID:          id,
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       email,
		DateOfBirth: time.Date(1990, 12, 10, 0, 0, 0, 0, time.UTC),
		Address:     domain.Address{Street: "1 Main St", City: "London", Country: "UK", PostalCode: "N1"},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func TestAccountUseCase_CreateAccount(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.CreateAccountInput
		wantErr error
	}{
		{
			name:  "opens active account with opening balance",
			input: usecase.CreateAccountInput{UserID: "user-1", InitialBalance: decimal.NewFromInt(250)},
		},
		{
			name:  "allows zero opening balance",
			input: usecase.CreateAccountInput{UserID: "user-1", InitialBalance: decimal.Zero},
		},
		{
			name:    "rejects negative opening balance",
			input:   usecase.CreateAccountInput{UserID: "user-1", InitialBalance: decimal.NewFromInt(-1)},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "rejects missing user id",
			input:   usecase.CreateAccountInput{InitialBalance: decimal.NewFromInt(10)},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "rejects unknown user",
			input:   usecase.CreateAccountInput{UserID: "user-404", InitialBalance: decimal.NewFromInt(10)},
			wantErr: domain.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewStore()
			seedUser(store, "user-1", "ada@example.com")

			account, err := newAccountUseCase(store, nil).CreateAccount(context.Background(), tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if account.Status != domain.AccountStatusActive {
				t.Errorf("expected active, got %s", account.Status)
			}
			if !account.Balance.Equal(tt.input.InitialBalance) || !account.OpeningBalance.Equal(tt.input.InitialBalance) {
				t.Errorf("expected balance and opening balance %s, got %s / %s", tt.input.InitialBalance, account.Balance, account.OpeningBalance)
			}
			if len(account.Number) != 12 {
				t.Errorf("expected 12 digit account number, got %q", account.Number)
			}

			stored := store.Account(account.ID)
			if stored == nil {
				t.Fatal("expected account to be committed")
			}

			events := store.Events()
			if len(events) != 1 || events[0].EventType != domain.EventTypeAccountCreated {
				t.Errorf("expected account.created event, got %+v", events)
			}
		})
	}
}

func TestAccountUseCase_CreateAccount_RetriesNumberCollision(t *testing.T) {
	store := mocks.NewStore()
	seedUser(store, "user-1", "ada@example.com")
	seedAccount(store, "existing", 0, domain.AccountStatusActive)

	numbers := []string{"0000000existing", "000000000042"}
	calls := 0
	gen := &mocks.MockAccountNumberGenerator{
		GenerateAccountNumberFunc: func() string {
			n := numbers[calls]
			calls++
			return n
		},
	}

	account, err := newAccountUseCase(store, gen).CreateAccount(context.Background(), usecase.CreateAccountInput{
		UserID:         "user-1",
		InitialBalance: decimal.NewFromInt(5),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Number != "000000000042" {
		t.Errorf("expected second number, got %s", account.Number)
	}
	if calls != 2 {
		t.Errorf("expected 2 generator calls, got %d", calls)
	}
}

func TestAccountUseCase_CreateAccount_GivesUpOnPersistentCollision(t *testing.T) {
	store := mocks.NewStore()
	seedUser(store, "user-1", "ada@example.com")
	seedAccount(store, "existing", 0, domain.AccountStatusActive)

	gen := &mocks.MockAccountNumberGenerator{
		GenerateAccountNumberFunc: func() string { return "0000000existing" },
	}

	_, err := newAccountUseCase(store, gen).CreateAccount(context.Background(), usecase.CreateAccountInput{
		UserID:         "user-1",
		InitialBalance: decimal.NewFromInt(5),
	})
	if !errors.Is(err, domain.ErrAccountNumberTaken) {
		t.Fatalf("expected ErrAccountNumberTaken, got %v", err)
	}
	if domain.KindOf(err) != domain.KindConflict {
		t.Errorf("expected conflict kind, got %s", domain.KindOf(err))
	}
}

func TestAccountUseCase_CreateAccount_Metrics(t *testing.T) {
	store := mocks.NewStore()
	seedUser(store, "user-1", "ada@example.com")

	m := metrics.New(prometheus.NewRegistry())
	uc := usecase.NewAccountUseCase(
		store.TxManager, store.Accounts, store.Users, store.Outbox, store.Audit,
		mocks.NewMockIDGenerator(), &mocks.MockAccountNumberGenerator{}, m,
	)

	if _, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{UserID: "user-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := testutil.ToFloat64(m.AccountsCreated); got != 1 {
		t.Errorf("expected 1 account created, got %v", got)
	}
}

func TestAccountUseCase_GetAccount(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-1", 100, domain.AccountStatusActive)
	uc := newAccountUseCase(store, nil)

	account, err := uc.GetAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !account.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected balance 100, got %s", account.Balance)
	}

	_, err = uc.GetAccount(context.Background(), "acc-404")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountUseCase_ListAccountsByUser(t *testing.T) {
	store := mocks.NewStore()
	seedUser(store, "user-1", "ada@example.com")
	seedUser(store, "user-2", "bob@example.com")
	seedAccount(store, "acc-1", 100, domain.AccountStatusActive)
	seedAccount(store, "acc-2", 100, domain.AccountStatusClosed)

	uc := newAccountUseCase(store, nil)

	accounts, err := uc.ListAccountsByUser(context.Background(), "user-1", usecase.ListAccountsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 2 {
		t.Errorf("expected 2 accounts, got %d", len(accounts))
	}

	accounts, err = uc.ListAccountsByUser(context.Background(), "user-2", usecase.ListAccountsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("expected no accounts, got %d", len(accounts))
	}

	_, err = uc.ListAccountsByUser(context.Background(), "user-404", usecase.ListAccountsInput{})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAccountUseCase_CloseAccount(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-1", 100, domain.AccountStatusActive)
	uc := newAccountUseCase(store, nil)

	account, err := uc.CloseAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Status != domain.AccountStatusClosed || account.ClosedAt == nil {
		t.Fatalf("expected closed account with closed_at, got %+v", account)
	}
	if stored := store.Account("acc-1"); stored.Status != domain.AccountStatusClosed {
		t.Errorf("expected stored account closed, got %s", stored.Status)
	}

	// Closing again is a no-op.
	if _, err := uc.CloseAccount(context.Background(), "acc-1"); err != nil {
		t.Fatalf("unexpected error on repeated close: %v", err)
	}
	if n := len(store.Events()); n != 1 {
		t.Errorf("expected 1 account.closed event, got %d", n)
	}
}

func TestAccountUseCase_UpdateAccountStatus_Errors(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		status  domain.AccountStatus
		wantErr error
	}{
		{"reopen closed account", "acc-closed", domain.AccountStatusActive, domain.ErrInvalidStatusTransition},
		{"unknown status", "acc-active", domain.AccountStatus("frozen"), domain.ErrInvalidAccountStatus},
		{"unknown account", "acc-404", domain.AccountStatusClosed, domain.ErrAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewStore()
			seedAccount(store, "acc-active", 0, domain.AccountStatusActive)
			seedAccount(store, "acc-closed", 0, domain.AccountStatusClosed)

			_, err := newAccountUseCase(store, nil).UpdateAccountStatus(context.Background(), tt.id, tt.status)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
