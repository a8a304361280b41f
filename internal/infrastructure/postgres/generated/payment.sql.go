package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createPayment = `-- name: CreatePayment :exec
INSERT INTO payments (id, from_account_id, to_account_id, amount, status, failure_reason, transaction_date)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type CreatePaymentParams struct {
	ID              string             `json:"id"`
	FromAccountID   string             `json:"from_account_id"`
	ToAccountID     string             `json:"to_account_id"`
	Amount          pgtype.Numeric     `json:"amount"`
	Status          string             `json:"status"`
	FailureReason   string             `json:"failure_reason"`
	TransactionDate pgtype.Timestamptz `json:"transaction_date"`
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) error {
	_, err := q.db.Exec(ctx, createPayment,
		arg.ID,
		arg.FromAccountID,
		arg.ToAccountID,
		arg.Amount,
		arg.Status,
		arg.FailureReason,
		arg.TransactionDate,
	)
	return err
}

const getPaymentByID = `-- name: GetPaymentByID :one
SELECT id, from_account_id, to_account_id, amount, status, failure_reason, transaction_date
FROM payments WHERE id = $1
`

func (q *Queries) GetPaymentByID(ctx context.Context, id string) (Payment, error) {
	row := q.db.QueryRow(ctx, getPaymentByID, id)
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.FromAccountID,
		&i.ToAccountID,
		&i.Amount,
		&i.Status,
		&i.FailureReason,
		&i.TransactionDate,
	)
	return i, err
}

const listPayments = `-- name: ListPayments :many
SELECT id, from_account_id, to_account_id, amount, status, failure_reason, transaction_date
FROM payments ORDER BY transaction_date DESC, id DESC LIMIT $1 OFFSET $2
`

type ListPaymentsParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListPayments(ctx context.Context, arg ListPaymentsParams) ([]Payment, error) {
	rows, err := q.db.Query(ctx, listPayments, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Payment{}
	for rows.Next() {
		var i Payment
		if err := rows.Scan(
			&i.ID,
			&i.FromAccountID,
			&i.ToAccountID,
			&i.Amount,
			&i.Status,
			&i.FailureReason,
			&i.TransactionDate,
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

const listPaymentsByAccount = `-- name: ListPaymentsByAccount :many
SELECT id, from_account_id, to_account_id, amount, status, failure_reason, transaction_date
FROM payments WHERE from_account_id = $1 OR to_account_id = $1
ORDER BY transaction_date DESC, id DESC LIMIT $2 OFFSET $3
`

type ListPaymentsByAccountParams struct {
	FromAccountID string `json:"from_account_id"`
	Limit         int32  `json:"limit"`
	Offset        int32  `json:"offset"`
}

func (q *Queries) ListPaymentsByAccount(ctx context.Context, arg ListPaymentsByAccountParams) ([]Payment, error) {
	rows, err := q.db.Query(ctx, listPaymentsByAccount, arg.FromAccountID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Payment{}
	for rows.Next() {
		var i Payment
		if err := rows.Scan(
			&i.ID,
			&i.FromAccountID,
			&i.ToAccountID,
			&i.Amount,
			&i.Status,
			&i.FailureReason,
			&i.TransactionDate,
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

const listPaymentsByUser = `-- name: ListPaymentsByUser :many
SELECT p.id, p.from_account_id, p.to_account_id, p.amount, p.status, p.failure_reason, p.transaction_date
FROM payments p
WHERE EXISTS (
    SELECT 1 FROM accounts a
    WHERE a.user_id = $1 AND (a.id = p.from_account_id OR a.id = p.to_account_id)
)
ORDER BY p.transaction_date DESC, p.id DESC LIMIT $2 OFFSET $3
`

type ListPaymentsByUserParams struct {
	UserID pgtype.Text `json:"user_id"`
	Limit  int32       `json:"limit"`
	Offset int32       `json:"offset"`
}

func (q *Queries) ListPaymentsByUser(ctx context.Context, arg ListPaymentsByUserParams) ([]Payment, error) {
	rows, err := q.db.Query(ctx, listPaymentsByUser, arg.UserID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Payment{}
	for rows.Next() {
		var i Payment
		if err := rows.Scan(
			&i.ID,
			&i.FromAccountID,
			&i.ToAccountID,
			&i.Amount,
			&i.Status,
			&i.FailureReason,
			&i.TransactionDate,
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

const sumCompletedByAccount = `-- name: SumCompletedByAccount :one
SELECT COALESCE(SUM(amount) FILTER (WHERE to_account_id = $1), 0)::numeric AS credits,
       COALESCE(SUM(amount) FILTER (WHERE from_account_id = $1), 0)::numeric AS debits
FROM payments
WHERE status = 'completed' AND (from_account_id = $1 OR to_account_id = $1)
`

type SumCompletedByAccountRow struct {
	Credits pgtype.Numeric `json:"credits"`
	Debits  pgtype.Numeric `json:"debits"`
}

func (q *Queries) SumCompletedByAccount(ctx context.Context, toAccountID string) (SumCompletedByAccountRow, error) {
	row := q.db.QueryRow(ctx, sumCompletedByAccount, toAccountID)
	var i SumCompletedByAccountRow
	err := row.Scan(&i.Credits, &i.Debits)
	return i, err
}
