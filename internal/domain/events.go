package domain

import "time"

// Event types
const (
	EventTypePaymentCompleted = "payment.completed"
	EventTypePaymentFailed    = "payment.failed"
	EventTypeAccountCreated   = "account.created"
	EventTypeAccountClosed    = "account.closed"
)

// Aggregate types
const (
	AggregateTypePayment = "payment"
	AggregateTypeAccount = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}
