package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrAmountTooLarge = fmt.Errorf("%w: amount exceeds maximum allowed", ErrInvalidAmount)
	ErrAmountTooSmall = fmt.Errorf("%w: amount below minimum allowed", ErrInvalidAmount)
	ErrNegativeAmount = fmt.Errorf("%w: amount must not be negative", ErrInvalidAmount)
	ErrInvalidEmail   = fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	ErrInvalidDate    = fmt.Errorf("%w: date must be formatted as YYYY-MM-DD", ErrInvalidInput)
	ErrMissingField   = fmt.Errorf("%w: missing required field", ErrInvalidInput)
)

// Validation constants
const (
	MaxTransferAmount = "1000000000000" // 1 trillion
	MinTransferAmount = "0.01"
	MaxFieldLength    = 255
	DateLayout        = "2006-01-02"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateAmount validates a transfer amount
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if amount.LessThan(decimal.RequireFromString(MinTransferAmount)) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinTransferAmount)
	}

	if amount.GreaterThan(decimal.RequireFromString(MaxTransferAmount)) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransferAmount)
	}

	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: at most two decimal places", ErrInvalidAmount)
	}

	return nil
}

// ValidateOpeningBalance validates the balance an account is opened with.
// Zero is allowed.
func ValidateOpeningBalance(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}

	if amount.GreaterThan(decimal.RequireFromString(MaxTransferAmount)) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransferAmount)
	}

	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: at most two decimal places", ErrInvalidAmount)
	}

	return nil
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(NormalizeEmail(email)) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidateRequired rejects blank or oversized values
func ValidateRequired(field, value string) error {
	value = strings.TrimSpace(value)

	if value == "" {
		return fmt.Errorf("%w: %s", ErrMissingField, field)
	}

	if len(value) > MaxFieldLength {
		return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidInput, field, MaxFieldLength)
	}

	return nil
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}

	return t, nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
