package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/gobank/internal/domain"
)

const (
	uniqueViolationCode = "23505"
	checkViolationCode  = "23514"
)

// Constraint names from the schema migrations.
const (
	constraintUsersEmail         = "users_email_key"
	constraintAccountNumber      = "accounts_account_number_key"
	constraintBalanceNonNegative = "accounts_balance_non_negative"
)

// errMalformedRow marks a row that cannot be mapped onto a domain entity.
var errMalformedRow = errors.New("malformed row")

// convertErr maps a driver error onto the domain taxonomy. notFound is
// returned for pgx.ErrNoRows; anything unclassified becomes ErrStoreFailure
// with the driver error still reachable through errors.As.
func convertErr(err error, notFound error, format string, formatArgs ...any) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) && notFound != nil {
		return notFound
	}

	msg := fmt.Sprintf(format, formatArgs...)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			switch pgErr.ConstraintName {
			case constraintUsersEmail:
				return domain.ErrEmailTaken
			case constraintAccountNumber:
				return domain.ErrAccountNumberTaken
			}
			return fmt.Errorf("%s: %w: %s", msg, domain.ErrConflict, pgErr.ConstraintName)
		case checkViolationCode:
			if pgErr.ConstraintName == constraintBalanceNonNegative {
				return domain.ErrInsufficientFunds
			}
		}
	}

	return fmt.Errorf("[repository/%s] %w: %w", msg, domain.ErrStoreFailure, err)
}
