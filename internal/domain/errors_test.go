package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, ""},
		{ErrUserNotFound, KindNotFound},
		{ErrAccountNotFound, KindNotFound},
		{fmt.Errorf("lookup: %w", ErrPaymentNotFound), KindNotFound},
		{ErrEmailTaken, KindConflict},
		{ErrAccountNumberTaken, KindConflict},
		{ErrInvalidAmount, KindInvalidAmount},
		{ErrAmountTooSmall, KindInvalidAmount},
		{ErrNegativeAmount, KindInvalidAmount},
		{ErrAccountInactive, KindAccountInactive},
		{ErrInsufficientFunds, KindInsufficientFunds},
		{ErrSameAccount, KindInvalidInput},
		{ErrInvalidEmail, KindInvalidInput},
		{ErrStoreFailure, KindStoreFailure},
		{errors.New("connection reset"), KindStoreFailure},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestNotFoundMessages(t *testing.T) {
	if ErrAccountNotFound.Error() != "account not found" {
		t.Fatalf("unexpected message %q", ErrAccountNotFound.Error())
	}
	if ErrUserNotFound.Error() != "user not found" {
		t.Fatalf("unexpected message %q", ErrUserNotFound.Error())
	}
}
