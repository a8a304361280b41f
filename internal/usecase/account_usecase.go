package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	userRepo    UserRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	numberGen   AccountNumberGenerator
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	userRepo UserRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	numberGen AccountNumberGenerator,
	metrics *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		userRepo:    userRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		numberGen:   numberGen,
		metrics:     metrics,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	UserID         string
	InitialBalance decimal.Decimal
}

// CreateAccount opens an active account for an existing user.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateRequired("user_id", input.UserID); err != nil {
		return nil, err
	}

	if err := domain.ValidateOpeningBalance(input.InitialBalance); err != nil {
		return nil, err
	}

	if _, err := uc.userRepo.GetByID(ctx, input.UserID); err != nil {
		return nil, err
	}

	var lastErr error
	for range accountNumberAttempts {
		account, err := uc.createAccount(ctx, input)
		if errors.Is(err, domain.ErrAccountNumberTaken) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}

		if uc.metrics != nil {
			uc.metrics.AccountsCreated.Inc()
		}
		return account, nil
	}

	return nil, lastErr
}

func (uc *AccountUseCase) createAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	now := time.Now().UTC()

	account := &domain.Account{
		ID:             uc.idGen.Generate(),
		Number:         uc.numberGen.GenerateAccountNumber(),
		UserID:         input.UserID,
		Balance:        input.InitialBalance,
		OpeningBalance: input.InitialBalance,
		Status:         domain.AccountStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.accountRepo.CreateTx(txCtx, tx, account); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   account.ID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeAccountCreated,
		Payload: map[string]any{
			"account_id":      account.ID,
			"account_number":  account.Number,
			"user_id":         account.UserID,
			"opening_balance": account.OpeningBalance.String(),
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := uc.audit(txCtx, tx, domain.AuditActionAccountCreate, account); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccountsByUser lists the accounts a user owns.
func (uc *AccountUseCase) ListAccountsByUser(ctx context.Context, userID string, input ListAccountsInput) ([]*domain.Account, error) {
	if _, err := uc.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	limit, offset, _ := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.accountRepo.ListByUser(ctx, userID, limit, offset)
}

// UpdateAccountStatus changes the account status. Only active -> closed is
// allowed; repeating the current status is a no-op.
func (uc *AccountUseCase) UpdateAccountStatus(ctx context.Context, id string, status domain.AccountStatus) (*domain.Account, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	changed, err := account.TransitionTo(status, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return account, nil
	}

	if err := uc.accountRepo.UpdateStatus(txCtx, tx, account); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   account.ID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeAccountClosed,
		Payload: map[string]any{
			"account_id": account.ID,
			"balance":    account.Balance.String(),
			"closed_at":  now.Format(time.RFC3339Nano),
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := uc.audit(txCtx, tx, domain.AuditActionAccountClose, account); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsClosed.Inc()
	}

	return account, nil
}

// CloseAccount closes an account. Closing a closed account succeeds.
func (uc *AccountUseCase) CloseAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.UpdateAccountStatus(ctx, id, domain.AccountStatusClosed)
}

func (uc *AccountUseCase) audit(ctx context.Context, tx Transaction, action domain.AuditAction, account *domain.Account) error {
	if uc.auditRepo == nil {
		return nil
	}

	return uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		Action:       action,
		ResourceType: domain.AggregateTypeAccount,
		ResourceID:   account.ID,
		State: domain.JSON{
			"account_number": account.Number,
			"user_id":        account.UserID,
			"balance":        account.Balance.String(),
			"status":         string(account.Status),
		},
		Status:    domain.AuditStatusSuccess,
		CreatedAt: time.Now().UTC(),
	})
}
