package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Account struct {
	ID             string             `json:"id"`
	AccountNumber  string             `json:"account_number"`
	UserID         pgtype.Text        `json:"user_id"`
	Balance        pgtype.Numeric     `json:"balance"`
	OpeningBalance pgtype.Numeric     `json:"opening_balance"`
	Status         string             `json:"status"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
	ClosedAt       pgtype.Timestamptz `json:"closed_at"`
}

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
	Published     bool               `json:"published"`
}

type Payment struct {
	ID              string             `json:"id"`
	FromAccountID   string             `json:"from_account_id"`
	ToAccountID     string             `json:"to_account_id"`
	Amount          pgtype.Numeric     `json:"amount"`
	Status          string             `json:"status"`
	FailureReason   string             `json:"failure_reason"`
	TransactionDate pgtype.Timestamptz `json:"transaction_date"`
}
