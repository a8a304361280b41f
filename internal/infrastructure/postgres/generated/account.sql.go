package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const checkLedgerConsistency = `-- name: CheckLedgerConsistency :one
SELECT COALESCE(SUM(balance), 0)::numeric AS total_balance,
       COALESCE(SUM(opening_balance), 0)::numeric AS total_opening_balance
FROM accounts
`

type CheckLedgerConsistencyRow struct {
	TotalBalance        pgtype.Numeric `json:"total_balance"`
	TotalOpeningBalance pgtype.Numeric `json:"total_opening_balance"`
}

func (q *Queries) CheckLedgerConsistency(ctx context.Context) (CheckLedgerConsistencyRow, error) {
	row := q.db.QueryRow(ctx, checkLedgerConsistency)
	var i CheckLedgerConsistencyRow
	err := row.Scan(&i.TotalBalance, &i.TotalOpeningBalance)
	return i, err
}

const createAccount = `-- name: CreateAccount :one
INSERT INTO accounts (id, account_number, user_id, balance, opening_balance, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, account_number, user_id, balance, opening_balance, status, created_at, updated_at, closed_at
`

type CreateAccountParams struct {
	ID             string             `json:"id"`
	AccountNumber  string             `json:"account_number"`
	UserID         pgtype.Text        `json:"user_id"`
	Balance        pgtype.Numeric     `json:"balance"`
	OpeningBalance pgtype.Numeric     `json:"opening_balance"`
	Status         string             `json:"status"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error) {
	row := q.db.QueryRow(ctx, createAccount,
		arg.ID,
		arg.AccountNumber,
		arg.UserID,
		arg.Balance,
		arg.OpeningBalance,
		arg.Status,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.AccountNumber,
		&i.UserID,
		&i.Balance,
		&i.OpeningBalance,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.ClosedAt,
	)
	return i, err
}

const getAccountByID = `-- name: GetAccountByID :one
SELECT id, account_number, user_id, balance, opening_balance, status, created_at, updated_at, closed_at
FROM accounts WHERE id = $1
`

func (q *Queries) GetAccountByID(ctx context.Context, id string) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByID, id)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.AccountNumber,
		&i.UserID,
		&i.Balance,
		&i.OpeningBalance,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.ClosedAt,
	)
	return i, err
}

const getAccountByIDForUpdate = `-- name: GetAccountByIDForUpdate :one
SELECT id, account_number, user_id, balance, opening_balance, status, created_at, updated_at, closed_at
FROM accounts WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetAccountByIDForUpdate(ctx context.Context, id string) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByIDForUpdate, id)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.AccountNumber,
		&i.UserID,
		&i.Balance,
		&i.OpeningBalance,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.ClosedAt,
	)
	return i, err
}

const getAccountsByIDsForUpdate = `-- name: GetAccountsByIDsForUpdate :many
SELECT id, account_number, user_id, balance, opening_balance, status, created_at, updated_at, closed_at
FROM accounts WHERE id = ANY($1::text[]) ORDER BY id FOR UPDATE
`

func (q *Queries) GetAccountsByIDsForUpdate(ctx context.Context, dollar_1 []string) ([]Account, error) {
	rows, err := q.db.Query(ctx, getAccountsByIDsForUpdate, dollar_1)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Account{}
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.ID,
			&i.AccountNumber,
			&i.UserID,
			&i.Balance,
			&i.OpeningBalance,
			&i.Status,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.ClosedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listAccounts = `-- name: ListAccounts :many
SELECT id, account_number, user_id, balance, opening_balance, status, created_at, updated_at, closed_at
FROM accounts ORDER BY created_at, id LIMIT $1 OFFSET $2
`

type ListAccountsParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListAccounts(ctx context.Context, arg ListAccountsParams) ([]Account, error) {
	rows, err := q.db.Query(ctx, listAccounts, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Account{}
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.ID,
			&i.AccountNumber,
			&i.UserID,
			&i.Balance,
			&i.OpeningBalance,
			&i.Status,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.ClosedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listAccountsByUser = `-- name: ListAccountsByUser :many
SELECT id, account_number, user_id, balance, opening_balance, status, created_at, updated_at, closed_at
FROM accounts WHERE user_id = $1 ORDER BY created_at, id LIMIT $2 OFFSET $3
`

type ListAccountsByUserParams struct {
	UserID pgtype.Text `json:"user_id"`
	Limit  int32       `json:"limit"`
	Offset int32       `json:"offset"`
}

func (q *Queries) ListAccountsByUser(ctx context.Context, arg ListAccountsByUserParams) ([]Account, error) {
	rows, err := q.db.Query(ctx, listAccountsByUser, arg.UserID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Account{}
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.ID,
			&i.AccountNumber,
			&i.UserID,
			&i.Balance,
			&i.OpeningBalance,
			&i.Status,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.ClosedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateAccountBalance = `-- name: UpdateAccountBalance :exec
UPDATE accounts SET balance = $2, updated_at = $3 WHERE id = $1
`

type UpdateAccountBalanceParams struct {
	ID        string             `json:"id"`
	Balance   pgtype.Numeric     `json:"balance"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateAccountBalance(ctx context.Context, arg UpdateAccountBalanceParams) error {
	_, err := q.db.Exec(ctx, updateAccountBalance, arg.ID, arg.Balance, arg.UpdatedAt)
	return err
}

const updateAccountStatus = `-- name: UpdateAccountStatus :exec
UPDATE accounts SET status = $2, closed_at = $3, updated_at = $4 WHERE id = $1
`

type UpdateAccountStatusParams struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	ClosedAt  pgtype.Timestamptz `json:"closed_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateAccountStatus(ctx context.Context, arg UpdateAccountStatusParams) error {
	_, err := q.db.Exec(ctx, updateAccountStatus,
		arg.ID,
		arg.Status,
		arg.ClosedAt,
		arg.UpdatedAt,
	)
	return err
}
