package domain

import "errors"

// Role represents an API caller's access level
type Role string

const (
	// RoleAdmin has full access to all operations
	RoleAdmin Role = "admin"

	// RoleOperator can move money and manage customers, but cannot delete
	RoleOperator Role = "operator"

	// RoleViewer can only view resources, no mutations
	RoleViewer Role = "viewer"
)

var validRoles = map[Role]bool{
	RoleAdmin:    true,
	RoleOperator: true,
	RoleViewer:   true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanCreate checks if the role can create or modify resources
func (r Role) CanCreate() bool {
	return r == RoleAdmin || r == RoleOperator
}

// CanDelete checks if the role can delete users or close accounts
func (r Role) CanDelete() bool {
	return r == RoleAdmin
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)

// Principal is the authenticated caller of the API.
type Principal struct {
	Subject string
	Role    Role
}
