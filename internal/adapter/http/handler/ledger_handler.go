package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/usecase"
)

// LedgerService checks that money was conserved.
type LedgerService interface {
	CheckConsistency(ctx context.Context) (*usecase.ConsistencyReport, error)
}

// ReconciliationService recomputes balances from payment history.
type ReconciliationService interface {
	ReconcileAccount(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error)
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// LedgerHandler handles ledger-wide operations.
type LedgerHandler struct {
	ledgerUC         LedgerService
	reconciliationUC ReconciliationService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService, reconciliationUC ReconciliationService) *LedgerHandler {
	return &LedgerHandler{
		ledgerUC:         ledgerUC,
		reconciliationUC: reconciliationUC,
	}
}

// CheckConsistency reports whether all balances add up to the opening
// balances. An inconsistent ledger answers 409.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledgerUC.CheckConsistency(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	status := http.StatusOK
	if !report.Consistent {
		status = http.StatusConflict
	}

	writeJSON(w, status, dto.ConsistencyFromReport(report))
}

// ReconcileAccount compares one account's stored balance with its history.
func (h *LedgerHandler) ReconcileAccount(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconciliationUC.ReconcileAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromResult(result))
}

// ReconciliationReport reconciles every account. Discrepancies or an
// inconsistent ledger answer 409 with the full report.
func (h *LedgerHandler) ReconciliationReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliationUC.GenerateReconciliationReport(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	status := http.StatusOK
	if len(report.Discrepancies) > 0 || !report.LedgerConsistent {
		status = http.StatusConflict
	}

	writeJSON(w, status, dto.ReconciliationReportFromUseCase(report))
}
