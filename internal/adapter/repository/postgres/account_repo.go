package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/postgres/generated"
	"github.com/iho/gobank/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return newAccountRepository(pool)
}

func newAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{
		queries: generated.New(db),
	}
}

// CreateTx inserts a new account within a transaction.
func (r *AccountRepository) CreateTx(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	queries := r.queries.WithTx(tx.(*Tx).PgxTx())

	_, err := queries.CreateAccount(ctx, generated.CreateAccountParams{
		ID:             account.ID,
		AccountNumber:  account.Number,
		UserID:         pgtype.Text{String: account.UserID, Valid: account.UserID != ""},
		Balance:        decimalToNumeric(account.Balance),
		OpeningBalance: decimalToNumeric(account.OpeningBalance),
		Status:         string(account.Status),
		CreatedAt:      timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:      timeToPgTimestamptz(account.UpdatedAt),
	})

	return convertErr(err, nil, "accounts.create %s", account.ID)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, id)
	if err != nil {
		return nil, convertErr(err, domain.ErrAccountNotFound, "accounts.get %s", id)
	}

	return accountFromRow(row, "accounts.get %s", id)
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	queries := r.queries.WithTx(tx.(*Tx).PgxTx())

	row, err := queries.GetAccountByIDForUpdate(ctx, id)
	if err != nil {
		return nil, convertErr(err, domain.ErrAccountNotFound, "accounts.lock %s", id)
	}

	return accountFromRow(row, "accounts.lock %s", id)
}

// GetByIDsForUpdate locks the accounts in id order. Missing IDs are simply
// absent from the result.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	queries := r.queries.WithTx(tx.(*Tx).PgxTx())

	rows, err := queries.GetAccountsByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, convertErr(err, nil, "accounts.lock_many")
	}

	return accountsFromRows(rows, "accounts.lock_many")
}

// UpdateBalance updates the balance of an account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	queries := r.queries.WithTx(tx.(*Tx).PgxTx())

	err := queries.UpdateAccountBalance(ctx, generated.UpdateAccountBalanceParams{
		ID:        id,
		Balance:   decimalToNumeric(balance),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})

	return convertErr(err, nil, "accounts.update_balance %s", id)
}

// UpdateStatus persists the account's status and closed_at.
func (r *AccountRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	queries := r.queries.WithTx(tx.(*Tx).PgxTx())

	var closedAt pgtype.Timestamptz
	if account.ClosedAt != nil {
		closedAt = timeToPgTimestamptz(*account.ClosedAt)
	}

	err := queries.UpdateAccountStatus(ctx, generated.UpdateAccountStatusParams{
		ID:        account.ID,
		Status:    string(account.Status),
		ClosedAt:  closedAt,
		UpdatedAt: timeToPgTimestamptz(account.UpdatedAt),
	})

	return convertErr(err, nil, "accounts.update_status %s", account.ID)
}

// ListByUser lists a user's accounts, oldest first.
func (r *AccountRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccountsByUser(ctx, generated.ListAccountsByUserParams{
		UserID: pgtype.Text{String: userID, Valid: true},
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, convertErr(err, nil, "accounts.list_by_user %s", userID)
	}

	return accountsFromRows(rows, "accounts.list_by_user %s", userID)
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, convertErr(err, nil, "accounts.list")
	}

	return accountsFromRows(rows, "accounts.list")
}

func accountFromRow(row generated.Account, format string, formatArgs ...any) (*domain.Account, error) {
	account, err := rowToAccount(row)
	if err != nil {
		return nil, convertErr(err, nil, format, formatArgs...)
	}

	return account, nil
}

func accountsFromRows(rows []generated.Account, format string, formatArgs ...any) ([]*domain.Account, error) {
	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		account, err := accountFromRow(row, format, formatArgs...)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

// rowToAccount rejects rows that do not describe a valid account. A NULL
// user_id is an account whose owner was deleted.
func rowToAccount(row generated.Account) (*domain.Account, error) {
	balance, err := numericToDecimal(row.Balance)
	if err != nil {
		return nil, fmt.Errorf("balance of %s: %w", row.ID, err)
	}

	opening, err := numericToDecimal(row.OpeningBalance)
	if err != nil {
		return nil, fmt.Errorf("opening_balance of %s: %w", row.ID, err)
	}

	status := domain.AccountStatus(row.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: account %s has status %q", errMalformedRow, row.ID, row.Status)
	}

	account := &domain.Account{
		ID:             row.ID,
		Number:         row.AccountNumber,
		UserID:         row.UserID.String,
		Balance:        balance,
		OpeningBalance: opening,
		Status:         status,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
	if row.ClosedAt.Valid {
		closedAt := row.ClosedAt.Time
		account.ClosedAt = &closedAt
	}

	return account, nil
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

// numericToDecimal converts a NOT NULL numeric column. NULL, NaN and
// infinities are malformed.
func numericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, fmt.Errorf("%w: NULL numeric", errMalformedRow)
	}

	if n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return decimal.Zero, fmt.Errorf("%w: non-finite numeric", errMalformedRow)
	}

	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
