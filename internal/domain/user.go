package domain

import (
	"strings"
	"time"
)

// Address is a postal address.
type Address struct {
	Street     string
	City       string
	Country    string
	PostalCode string
}

// User is a bank customer.
type User struct {
	ID          string
	FirstName   string
	LastName    string
	Email       string
	DateOfBirth time.Time
	Address     Address
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks required fields and email format.
func (u *User) Validate() error {
	required := map[string]string{
		"first_name":  u.FirstName,
		"last_name":   u.LastName,
		"street":      u.Address.Street,
		"city":        u.Address.City,
		"country":     u.Address.Country,
		"postal_code": u.Address.PostalCode,
	}
	for field, value := range required {
		if err := ValidateRequired(field, value); err != nil {
			return err
		}
	}

	if u.DateOfBirth.IsZero() {
		return ErrInvalidDate
	}

	return ValidateEmail(u.Email)
}

// AddressPatch lists the address fields an update may change.
type AddressPatch struct {
	Street     *string
	City       *string
	Country    *string
	PostalCode *string
}

// UserPatch lists the user fields an update may change. Nil or empty values
// leave the stored field untouched.
type UserPatch struct {
	FirstName   *string
	LastName    *string
	Email       *string
	DateOfBirth *time.Time
	Address     *AddressPatch
}

// IsEmpty reports whether applying the patch would change nothing.
func (p UserPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Fields returns the column values the patch sets, keyed by column name.
func (p UserPatch) Fields() map[string]any {
	fields := make(map[string]any)
	setString := func(column string, v *string) {
		if v != nil && strings.TrimSpace(*v) != "" {
			fields[column] = strings.TrimSpace(*v)
		}
	}

	setString("first_name", p.FirstName)
	setString("last_name", p.LastName)
	if p.Email != nil && strings.TrimSpace(*p.Email) != "" {
		fields["email"] = NormalizeEmail(*p.Email)
	}
	if p.DateOfBirth != nil && !p.DateOfBirth.IsZero() {
		fields["date_of_birth"] = *p.DateOfBirth
	}
	if p.Address != nil {
		setString("street", p.Address.Street)
		setString("city", p.Address.City)
		setString("country", p.Address.Country)
		setString("postal_code", p.Address.PostalCode)
	}

	return fields
}

// Apply overwrites u with the patch's present fields.
func (u *User) Apply(p UserPatch) {
	for column, value := range p.Fields() {
		switch column {
		case "first_name":
			u.FirstName = value.(string)
		case "last_name":
			u.LastName = value.(string)
		case "email":
			u.Email = value.(string)
		case "date_of_birth":
			u.DateOfBirth = value.(time.Time)
		case "street":
			u.Address.Street = value.(string)
		case "city":
			u.Address.City = value.(string)
		case "country":
			u.Address.Country = value.(string)
		case "postal_code":
			u.Address.PostalCode = value.(string)
		}
	}
}
