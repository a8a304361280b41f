package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// AddressRequest is a postal address in request bodies.
type AddressRequest struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
}

// CreateUserRequest represents a request to register a user.
type CreateUserRequest struct {
	FirstName   string         `json:"firstName"`
	LastName    string         `json:"lastName"`
	Email       string         `json:"email"`
	DateOfBirth string         `json:"dateOfBirth"` // YYYY-MM-DD
	Address     AddressRequest `json:"address"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateUserRequest) ToUseCaseInput() (usecase.CreateUserInput, error) {
	dob, err := domain.ParseDate(r.DateOfBirth)
	if err != nil {
		return usecase.CreateUserInput{}, err
	}

	return usecase.CreateUserInput{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		DateOfBirth: dob,
		Address: domain.Address{
			Street:     r.Address.Street,
			City:       r.Address.City,
			Country:    r.Address.Country,
			PostalCode: r.Address.PostalCode,
		},
	}, nil
}

// UpdateAddressRequest carries the address fields to change.
type UpdateAddressRequest struct {
	Street     *string `json:"street,omitempty"`
	City       *string `json:"city,omitempty"`
	Country    *string `json:"country,omitempty"`
	PostalCode *string `json:"postalCode,omitempty"`
}

// UpdateUserRequest is a partial user update. Absent fields are kept.
type UpdateUserRequest struct {
	FirstName   *string               `json:"firstName,omitempty"`
	LastName    *string               `json:"lastName,omitempty"`
	Email       *string               `json:"email,omitempty"`
	DateOfBirth *string               `json:"dateOfBirth,omitempty"`
	Address     *UpdateAddressRequest `json:"address,omitempty"`
}

// ToPatch converts the request to a domain patch.
func (r *UpdateUserRequest) ToPatch() (domain.UserPatch, error) {
	patch := domain.UserPatch{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
	}

	if r.DateOfBirth != nil && *r.DateOfBirth != "" {
		dob, err := domain.ParseDate(*r.DateOfBirth)
		if err != nil {
			return domain.UserPatch{}, err
		}
		patch.DateOfBirth = &dob
	}

	if r.Address != nil {
		patch.Address = &domain.AddressPatch{
			Street:     r.Address.Street,
			City:       r.Address.City,
			Country:    r.Address.Country,
			PostalCode: r.Address.PostalCode,
		}
	}

	return patch, nil
}

// CreateAccountRequest represents a request to open an account.
type CreateAccountRequest struct {
	UserID  string          `json:"userId"`
	Balance decimal.Decimal `json:"balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		UserID:         r.UserID,
		InitialBalance: r.Balance,
	}
}

// UpdateAccountRequest changes an account's status.
type UpdateAccountRequest struct {
	Status domain.AccountStatus `json:"status"`
}

// CreatePaymentRequest represents a request to move money between accounts.
type CreatePaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	FromAccount string          `json:"fromAccount"`
	ToAccount   string          `json:"toAccount"`
}

// ToUseCaseInput converts to use case input.
func (r *CreatePaymentRequest) ToUseCaseInput() usecase.ExecuteTransferInput {
	return usecase.ExecuteTransferInput{
		FromAccountID: r.FromAccount,
		ToAccountID:   r.ToAccount,
		Amount:        r.Amount,
	}
}
