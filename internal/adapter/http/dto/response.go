package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// AddressResponse is a postal address in API responses.
type AddressResponse struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	UserID      string          `json:"userId"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	Email       string          `json:"email"`
	DateOfBirth string          `json:"dateOfBirth"`
	Address     AddressResponse `json:"address"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// UserFromDomain converts a domain user to a response.
func UserFromDomain(u *domain.User) *UserResponse {
	return &UserResponse{
		UserID:      u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		DateOfBirth: u.DateOfBirth.Format(domain.DateLayout),
		Address: AddressResponse{
			Street:     u.Address.Street,
			City:       u.Address.City,
			Country:    u.Address.Country,
			PostalCode: u.Address.PostalCode,
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UsersFromDomain converts domain users to responses.
func UsersFromDomain(users []*domain.User) []*UserResponse {
	result := make([]*UserResponse, len(users))
	for i, u := range users {
		result[i] = UserFromDomain(u)
	}
	return result
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	AccountID      string               `json:"accountId"`
	AccountNumber  string               `json:"accountNumber"`
	UserID         string               `json:"userId"`
	Balance        decimal.Decimal      `json:"balance"`
	OpeningBalance decimal.Decimal      `json:"openingBalance"`
	Status         domain.AccountStatus `json:"status"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
	ClosedAt       *time.Time           `json:"closedAt,omitempty"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		AccountID:      a.ID,
		AccountNumber:  a.Number,
		UserID:         a.UserID,
		Balance:        a.Balance,
		OpeningBalance: a.OpeningBalance,
		Status:         a.Status,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		ClosedAt:       a.ClosedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// PaymentResponse represents a payment in API responses.
type PaymentResponse struct {
	PaymentID       string               `json:"paymentId"`
	Amount          decimal.Decimal      `json:"amount"`
	FromAccount     string               `json:"fromAccount"`
	ToAccount       string               `json:"toAccount"`
	Status          domain.PaymentStatus `json:"status"`
	FailureReason   string               `json:"failureReason,omitempty"`
	TransactionDate time.Time            `json:"transactionDate"`
}

// PaymentFromDomain converts a domain payment to a response.
func PaymentFromDomain(p *domain.Payment) *PaymentResponse {
	return &PaymentResponse{
		PaymentID:       p.ID,
		Amount:          p.Amount,
		FromAccount:     p.FromAccountID,
		ToAccount:       p.ToAccountID,
		Status:          p.Status,
		FailureReason:   p.FailureReason,
		TransactionDate: p.TransactionDate,
	}
}

// PaymentsFromDomain converts domain payments to responses.
func PaymentsFromDomain(payments []*domain.Payment) []*PaymentResponse {
	result := make([]*PaymentResponse, len(payments))
	for i, p := range payments {
		result[i] = PaymentFromDomain(p)
	}
	return result
}

// TransferResponse is the receipt returned for a completed transfer.
type TransferResponse struct {
	PaymentID       string               `json:"paymentId"`
	Status          domain.PaymentStatus `json:"status"`
	TransactionDate time.Time            `json:"transactionDate"`
}

// TransferFromDomain builds the transfer receipt.
func TransferFromDomain(p *domain.Payment) *TransferResponse {
	return &TransferResponse{
		PaymentID:       p.ID,
		Status:          p.Status,
		TransactionDate: p.TransactionDate,
	}
}

// ReconciliationResponse is the outcome of reconciling one account.
type ReconciliationResponse struct {
	AccountID         string          `json:"accountId"`
	RecordedBalance   decimal.Decimal `json:"recordedBalance"`
	CalculatedBalance decimal.Decimal `json:"calculatedBalance"`
	Difference        decimal.Decimal `json:"difference"`
	Reconciled        bool            `json:"reconciled"`
	CheckedAt         time.Time       `json:"checkedAt"`
}

// ReconciliationFromResult converts a reconciliation result.
func ReconciliationFromResult(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		AccountID:         r.AccountID,
		RecordedBalance:   r.RecordedBalance,
		CalculatedBalance: r.CalculatedBalance,
		Difference:        r.Difference,
		Reconciled:        r.IsReconciled,
		CheckedAt:         r.LastChecked,
	}
}

// ReconciliationReportResponse summarises reconciling every account.
type ReconciliationReportResponse struct {
	TotalAccounts      int                       `json:"totalAccounts"`
	ReconciledAccounts int                       `json:"reconciledAccounts"`
	Discrepancies      []*ReconciliationResponse `json:"discrepancies"`
	LedgerConsistent   bool                      `json:"ledgerConsistent"`
	CheckedAt          time.Time                 `json:"checkedAt"`
}

// ReconciliationReportFromUseCase converts a reconciliation report.
func ReconciliationReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	discrepancies := make([]*ReconciliationResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = ReconciliationFromResult(d)
	}

	return &ReconciliationReportResponse{
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Discrepancies:      discrepancies,
		LedgerConsistent:   r.LedgerConsistent,
		CheckedAt:          r.CheckedAt,
	}
}

// ConsistencyResponse is the ledger-wide conservation check.
type ConsistencyResponse struct {
	Consistent          bool            `json:"consistent"`
	TotalBalance        decimal.Decimal `json:"totalBalance"`
	TotalOpeningBalance decimal.Decimal `json:"totalOpeningBalance"`
	Difference          decimal.Decimal `json:"difference"`
	CheckedAt           time.Time       `json:"checkedAt"`
}

// ConsistencyFromReport converts a consistency report.
func ConsistencyFromReport(r *usecase.ConsistencyReport) *ConsistencyResponse {
	return &ConsistencyResponse{
		Consistent:          r.Consistent,
		TotalBalance:        r.TotalBalance,
		TotalOpeningBalance: r.TotalOpeningBalance,
		Difference:          r.Difference,
		CheckedAt:           r.CheckedAt,
	}
}

// ListUsersResponse represents a page of users.
type ListUsersResponse struct {
	Users []*UserResponse `json:"users"`
	Count int             `json:"count"`
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Count    int                `json:"count"`
}

// ListPaymentsResponse represents a page of payments.
type ListPaymentsResponse struct {
	Payments []*PaymentResponse `json:"payments"`
	Count    int                `json:"count"`
}

// ErrorResponse represents an error in API responses. Error is the stable
// error kind.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
