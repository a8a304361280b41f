package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/postgres/generated"
	"github.com/iho/gobank/internal/usecase"
)

// PaymentRepository implements usecase.PaymentRepository.
type PaymentRepository struct {
	queries *generated.Queries
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return newPaymentRepository(pool)
}

func newPaymentRepository(db generated.DBTX) *PaymentRepository {
	return &PaymentRepository{
		queries: generated.New(db),
	}
}

// Create inserts a payment within a transaction.
func (r *PaymentRepository) Create(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	queries := r.queries.WithTx(tx.(*Tx).PgxTx())

	err := queries.CreatePayment(ctx, generated.CreatePaymentParams{
		ID:              payment.ID,
		FromAccountID:   payment.FromAccountID,
		ToAccountID:     payment.ToAccountID,
		Amount:          decimalToNumeric(payment.Amount),
		Status:          string(payment.Status),
		FailureReason:   payment.FailureReason,
		TransactionDate: timeToPgTimestamptz(payment.TransactionDate),
	})

	return convertErr(err, nil, "payments.create %s", payment.ID)
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	row, err := r.queries.GetPaymentByID(ctx, id)
	if err != nil {
		return nil, convertErr(err, domain.ErrPaymentNotFound, "payments.get %s", id)
	}

	return paymentFromRow(row, "payments.get %s", id)
}

// List lists all payments, newest first.
func (r *PaymentRepository) List(ctx context.Context, limit, offset int) ([]*domain.Payment, error) {
	rows, err := r.queries.ListPayments(ctx, generated.ListPaymentsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, convertErr(err, nil, "payments.list")
	}

	return paymentsFromRows(rows, "payments.list")
}

// ListByAccount lists payments into or out of an account, newest first.
func (r *PaymentRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Payment, error) {
	rows, err := r.queries.ListPaymentsByAccount(ctx, generated.ListPaymentsByAccountParams{
		FromAccountID: accountID,
		Limit:         int32(limit),
		Offset:        int32(offset),
	})
	if err != nil {
		return nil, convertErr(err, nil, "payments.list_by_account %s", accountID)
	}

	return paymentsFromRows(rows, "payments.list_by_account %s", accountID)
}

// ListByUser lists payments touching any account the user owns, newest first.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Payment, error) {
	rows, err := r.queries.ListPaymentsByUser(ctx, generated.ListPaymentsByUserParams{
		UserID: pgtype.Text{String: userID, Valid: true},
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, convertErr(err, nil, "payments.list_by_user %s", userID)
	}

	return paymentsFromRows(rows, "payments.list_by_user %s", userID)
}

// SumCompletedByAccount totals completed payments into and out of an account.
func (r *PaymentRepository) SumCompletedByAccount(ctx context.Context, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	row, err := r.queries.SumCompletedByAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, decimal.Zero, convertErr(err, nil, "payments.sum %s", accountID)
	}

	credits, err := numericToDecimal(row.Credits)
	if err != nil {
		return decimal.Zero, decimal.Zero, convertErr(err, nil, "payments.sum %s", accountID)
	}

	debits, err := numericToDecimal(row.Debits)
	if err != nil {
		return decimal.Zero, decimal.Zero, convertErr(err, nil, "payments.sum %s", accountID)
	}

	return credits, debits, nil
}

func paymentFromRow(row generated.Payment, format string, formatArgs ...any) (*domain.Payment, error) {
	payment, err := rowToPayment(row)
	if err != nil {
		return nil, convertErr(err, nil, format, formatArgs...)
	}

	return payment, nil
}

func paymentsFromRows(rows []generated.Payment, format string, formatArgs ...any) ([]*domain.Payment, error) {
	payments := make([]*domain.Payment, 0, len(rows))
	for _, row := range rows {
		payment, err := paymentFromRow(row, format, formatArgs...)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	return payments, nil
}

func rowToPayment(row generated.Payment) (*domain.Payment, error) {
	amount, err := numericToDecimal(row.Amount)
	if err != nil {
		return nil, fmt.Errorf("amount of %s: %w", row.ID, err)
	}

	status := domain.PaymentStatus(row.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: payment %s has status %q", errMalformedRow, row.ID, row.Status)
	}

	return &domain.Payment{
		ID:              row.ID,
		FromAccountID:   row.FromAccountID,
		ToAccountID:     row.ToAccountID,
		Amount:          amount,
		Status:          status,
		FailureReason:   row.FailureReason,
		TransactionDate: row.TransactionDate.Time,
	}, nil
}
