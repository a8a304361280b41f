package usecase

import (
	"context"

	"github.com/iho/gobank/internal/domain"
)

// PaymentUseCase answers payment history queries.
type PaymentUseCase struct {
	paymentRepo PaymentRepository
	accountRepo AccountRepository
	userRepo    UserRepository
}

// NewPaymentUseCase creates a new PaymentUseCase.
func NewPaymentUseCase(paymentRepo PaymentRepository, accountRepo AccountRepository, userRepo UserRepository) *PaymentUseCase {
	return &PaymentUseCase{
		paymentRepo: paymentRepo,
		accountRepo: accountRepo,
		userRepo:    userRepo,
	}
}

// ListPaymentsInput represents input for listing payments.
type ListPaymentsInput struct {
	Limit  int
	Offset int
}

// GetPayment retrieves a payment by ID.
func (uc *PaymentUseCase) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	return uc.paymentRepo.GetByID(ctx, id)
}

// ListPayments lists all payments, newest first.
func (uc *PaymentUseCase) ListPayments(ctx context.Context, input ListPaymentsInput) ([]*domain.Payment, error) {
	limit, offset, _ := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.paymentRepo.List(ctx, limit, offset)
}

// ListPaymentsByUser lists payments where the user owns either side.
func (uc *PaymentUseCase) ListPaymentsByUser(ctx context.Context, userID string, input ListPaymentsInput) ([]*domain.Payment, error) {
	if _, err := uc.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	limit, offset, _ := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.paymentRepo.ListByUser(ctx, userID, limit, offset)
}

// ListPaymentsByAccount lists payments into or out of an account.
func (uc *PaymentUseCase) ListPaymentsByAccount(ctx context.Context, accountID string, input ListPaymentsInput) ([]*domain.Payment, error) {
	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	limit, offset, _ := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.paymentRepo.ListByAccount(ctx, accountID, limit, offset)
}
