package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultUserCacheTTL is how long a user read stays in the cache
	DefaultUserCacheTTL = 5 * time.Minute

	// accountNumberAttempts bounds retries on account number collisions
	accountNumberAttempts = 3
)
