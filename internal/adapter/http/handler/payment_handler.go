package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// TransferService executes transfers.
type TransferService interface {
	ExecuteTransfer(ctx context.Context, input usecase.ExecuteTransferInput) (*domain.Payment, error)
}

// PaymentService reads payment history.
type PaymentService interface {
	GetPayment(ctx context.Context, id string) (*domain.Payment, error)
	ListPayments(ctx context.Context, input usecase.ListPaymentsInput) ([]*domain.Payment, error)
	ListPaymentsByUser(ctx context.Context, userID string, input usecase.ListPaymentsInput) ([]*domain.Payment, error)
	ListPaymentsByAccount(ctx context.Context, accountID string, input usecase.ListPaymentsInput) ([]*domain.Payment, error)
}

// PaymentHandler handles payment-related HTTP requests.
type PaymentHandler struct {
	transferUC TransferService
	paymentUC  PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(transferUC TransferService, paymentUC PaymentService) *PaymentHandler {
	return &PaymentHandler{
		transferUC: transferUC,
		paymentUC:  paymentUC,
	}
}

// Create executes a transfer and returns its receipt.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	payment, err := h.transferUC.ExecuteTransfer(r.Context(), req.ToUseCaseInput())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromDomain(payment))
}

// Get retrieves a payment by ID.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	payment, err := h.paymentUC.GetPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentFromDomain(payment))
}

// List lists all payments, newest first.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(ctx context.Context, in usecase.ListPaymentsInput) ([]*domain.Payment, error) {
		return h.paymentUC.ListPayments(ctx, in)
	})
}

// ListByUser lists payments touching any account of the user.
func (h *PaymentHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	h.list(w, r, func(ctx context.Context, in usecase.ListPaymentsInput) ([]*domain.Payment, error) {
		return h.paymentUC.ListPaymentsByUser(ctx, userID, in)
	})
}

// ListByAccount lists payments into or out of an account.
func (h *PaymentHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	h.list(w, r, func(ctx context.Context, in usecase.ListPaymentsInput) ([]*domain.Payment, error) {
		return h.paymentUC.ListPaymentsByAccount(ctx, accountID, in)
	})
}

func (h *PaymentHandler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context, usecase.ListPaymentsInput) ([]*domain.Payment, error)) {
	limit, offset := pagination(r)

	payments, err := fetch(r.Context(), usecase.ListPaymentsInput{Limit: limit, Offset: offset})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListPaymentsResponse{
		Payments: dto.PaymentsFromDomain(payments),
		Count:    len(payments),
	})
}
