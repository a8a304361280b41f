package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gobank/internal/usecase"
)

// ledgerTxOptions is used for every unit of work. Row locks taken with
// SELECT ... FOR UPDATE serialise transfers; READ COMMITTED is enough on top.
var ledgerTxOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

type txBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager over a pgx pool.
type TxManager struct {
	pool txBeginner
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return newTxManagerWithPool(pool)
}

func newTxManagerWithPool(pool txBeginner) *TxManager {
	return &TxManager{pool: pool}
}

// Begin starts a READ COMMITTED transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.BeginTx(ctx, ledgerTxOptions)
	if err != nil {
		return nil, convertErr(err, nil, "begin")
	}

	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx transaction. Repositories reach the driver through PgxTx.
type Tx struct {
	tx pgx.Tx
}

// Commit commits the transaction. Serialization failures and deadlocks
// reported at commit keep their SQLSTATE for the retrier.
func (t *Tx) Commit(ctx context.Context) error {
	return convertErr(t.tx.Commit(ctx), nil, "commit")
}

// Rollback aborts the transaction. Rolling back a finished transaction is a
// no-op, so callers may always defer it.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return convertErr(err, nil, "rollback")
}

// PgxTx returns the underlying pgx.Tx.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}
