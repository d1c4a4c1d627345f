package usecase

import "time"

const (
	// AccountCacheTTL bounds how long an account view may be served from cache.
	AccountCacheTTL = 5 * time.Minute

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyPending is stored under a key while the first request
	// carrying it is still running.
	IdempotencyPending = "processing"

	accountCacheKeyPrefix = "account:"
)
