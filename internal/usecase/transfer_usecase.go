package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// TransferUseCase moves money between two accounts.
type TransferUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	paymentRepo PaymentRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	retrier     Retrier
	metrics     *metrics.Metrics
}

// NewTransferUseCase creates a new TransferUseCase. auditRepo, retrier and
// metrics may be nil.
func NewTransferUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	paymentRepo PaymentRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		paymentRepo: paymentRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		retrier:     retrier,
		metrics:     metrics,
	}
}

// ExecuteTransferInput represents input for a transfer.
type ExecuteTransferInput struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
}

// ExecuteTransfer debits the source, credits the destination and records a
// completed payment in one transaction. Every call is a new transfer.
func (uc *TransferUseCase) ExecuteTransfer(ctx context.Context, input ExecuteTransferInput) (*domain.Payment, error) {
	start := time.Now()

	// 0. Validate inputs before starting transaction
	request := &domain.Payment{
		FromAccountID: input.FromAccountID,
		ToAccountID:   input.ToAccountID,
		Amount:        input.Amount,
		Status:        domain.PaymentStatusPending,
	}
	if err := request.Validate(); err != nil {
		uc.observeFailure(err)
		return nil, err
	}

	var payment *domain.Payment
	attempt := 0
	err := uc.retry(ctx, func() error {
		attempt++
		if attempt > 1 && uc.metrics != nil {
			uc.metrics.TransferRetries.Inc()
		}

		p, err := uc.transfer(ctx, input)
		if err != nil {
			return err
		}
		payment = p
		return nil
	})
	if err != nil {
		if recErr := uc.recordRejection(ctx, input, err); recErr != nil {
			// Only the rejection is classified; the recording error is kept as text.
			err = errors.Join(err, fmt.Errorf("%w: recording rejection: %v", domain.ErrStoreFailure, recErr))
		}
		uc.observeFailure(err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PaymentsCompleted.Inc()
		uc.metrics.TransferDuration.Observe(time.Since(start).Seconds())
		uc.metrics.TransferAmount.Observe(input.Amount.InexactFloat64())
	}

	return payment, nil
}

func (uc *TransferUseCase) transfer(ctx context.Context, input ExecuteTransferInput) (*domain.Payment, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	// 1. Sort account IDs (DEADLOCK PREVENTION)
	accountIDs := []string{input.FromAccountID, input.ToAccountID}
	sort.Strings(accountIDs)

	// 2. Begin transaction
	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// 3. Lock accounts in sorted order
	accounts, err := uc.accountRepo.GetByIDsForUpdate(txCtx, tx, accountIDs)
	if err != nil {
		return nil, err
	}

	accountMap := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		accountMap[a.ID] = a
	}

	// 4. Preconditions, in order
	fromAccount := accountMap[input.FromAccountID]
	if fromAccount == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, input.FromAccountID)
	}
	if !fromAccount.IsActive() {
		return nil, fmt.Errorf("%w: source account %s is %s", domain.ErrAccountInactive, fromAccount.ID, fromAccount.Status)
	}

	toAccount := accountMap[input.ToAccountID]
	if toAccount == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, input.ToAccountID)
	}
	if err := toAccount.ValidateCredit(); err != nil {
		return nil, fmt.Errorf("%w: destination account %s is %s", err, toAccount.ID, toAccount.Status)
	}

	if err := fromAccount.ValidateDebit(input.Amount); err != nil {
		return nil, fmt.Errorf("%w: balance %s, requested %s", err, fromAccount.Balance, input.Amount)
	}

	// 5. Apply both legs and the payment record
	now := time.Now().UTC()

	payment := &domain.Payment{
		ID:            uc.idGen.Generate(),
		FromAccountID: fromAccount.ID,
		ToAccountID:   toAccount.ID,
		Amount:        input.Amount,
		Status:        domain.PaymentStatusPending,
	}
	if err := payment.Complete(now); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalance(txCtx, tx, fromAccount.ID, fromAccount.ApplyDebit(input.Amount), now); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalance(txCtx, tx, toAccount.ID, toAccount.ApplyCredit(input.Amount), now); err != nil {
		return nil, err
	}

	if err := uc.paymentRepo.Create(txCtx, tx, payment); err != nil {
		return nil, err
	}

	if err := uc.outboxRepo.Create(txCtx, tx, uc.paymentEvent(payment, domain.EventTypePaymentCompleted)); err != nil {
		return nil, err
	}

	if uc.auditRepo != nil {
		if err := uc.auditRepo.CreateTx(txCtx, tx, uc.paymentAudit(payment, nil)); err != nil {
			return nil, err
		}
	}

	// 6. Commit transaction
	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return payment, nil
}

// recordRejection persists the outcome of a rejected transfer. Attempts that
// failed a business precondition on existing accounts get a failed payment
// row; attempts naming an unknown account are only audited.
func (uc *TransferUseCase) recordRejection(ctx context.Context, input ExecuteTransferInput, cause error) error {
	kind := domain.KindOf(cause)

	switch kind {
	case domain.KindAccountInactive, domain.KindInsufficientFunds:
	case domain.KindNotFound:
		if uc.auditRepo == nil {
			return nil
		}
		attempt := &domain.Payment{
			FromAccountID: input.FromAccountID,
			ToAccountID:   input.ToAccountID,
			Amount:        input.Amount,
		}
		return uc.auditRepo.Create(ctx, uc.paymentAudit(attempt, cause))
	default:
		return nil
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	payment := &domain.Payment{
		ID:            uc.idGen.Generate(),
		FromAccountID: input.FromAccountID,
		ToAccountID:   input.ToAccountID,
		Amount:        input.Amount,
		Status:        domain.PaymentStatusPending,
	}
	if err := payment.Fail(kind, time.Now().UTC()); err != nil {
		return err
	}

	if err := uc.paymentRepo.Create(txCtx, tx, payment); err != nil {
		return err
	}

	if err := uc.outboxRepo.Create(txCtx, tx, uc.paymentEvent(payment, domain.EventTypePaymentFailed)); err != nil {
		return err
	}

	if uc.auditRepo != nil {
		if err := uc.auditRepo.CreateTx(txCtx, tx, uc.paymentAudit(payment, cause)); err != nil {
			return err
		}
	}

	return tx.Commit(txCtx)
}

func (uc *TransferUseCase) retry(ctx context.Context, operation func() error) error {
	if uc.retrier == nil {
		return operation()
	}
	return uc.retrier.Retry(ctx, operation)
}

func (uc *TransferUseCase) observeFailure(err error) {
	if uc.metrics != nil {
		uc.metrics.PaymentsFailed.WithLabelValues(string(domain.KindOf(err))).Inc()
	}
}

func (uc *TransferUseCase) paymentEvent(p *domain.Payment, eventType string) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   p.ID,
		AggregateType: domain.AggregateTypePayment,
		EventType:     eventType,
		Payload: map[string]any{
			"payment_id":      p.ID,
			"from_account_id": p.FromAccountID,
			"to_account_id":   p.ToAccountID,
			"amount":          p.Amount.String(),
			"status":          string(p.Status),
			"failure_reason":  p.FailureReason,
			"event_at":        p.TransactionDate.Format(time.RFC3339Nano),
		},
		CreatedAt: p.TransactionDate,
	}
}

func (uc *TransferUseCase) paymentAudit(p *domain.Payment, cause error) *domain.AuditLog {
	log := &domain.AuditLog{
		Action:       domain.AuditActionPaymentCreate,
		ResourceType: domain.AggregateTypePayment,
		ResourceID:   p.ID,
		State: domain.JSON{
			"from_account_id": p.FromAccountID,
			"to_account_id":   p.ToAccountID,
			"amount":          p.Amount.String(),
			"status":          string(p.Status),
		},
		Status:    domain.AuditStatusSuccess,
		CreatedAt: time.Now().UTC(),
	}
	if cause != nil {
		log.Status = domain.AuditStatusFailure
		log.ErrorMessage = cause.Error()
	}
	return log
}
