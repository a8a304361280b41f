package domain

import (
	"encoding/json"
	"time"
)

// AuditLog records a state-changing action for compliance and debugging
type AuditLog struct {
	ID           string
	Action       AuditAction
	ResourceType string
	ResourceID   string
	State        JSON // State after the action, or the rejected request
	Status       AuditStatus
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is a free-form JSON object
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionAccountCreate AuditAction = "account.create"
	AuditActionAccountClose  AuditAction = "account.close"
	AuditActionPaymentCreate AuditAction = "payment.create"
	AuditActionUserDelete    AuditAction = "user.delete"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	Action       AuditAction
	ResourceType string
	ResourceID   string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}
