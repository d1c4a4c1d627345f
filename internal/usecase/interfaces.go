package usecase

import (
	"context"
	"time"

	"github.com/iho/bankbook/internal/domain"
)

// AccountRepository defines data access for accounts.
// Implementations return copies; mutating a returned account has no effect
// until it is passed back to UpdateAccount.
type AccountRepository interface {
	NewAccount(ctx context.Context) (*domain.Account, error)
	GetAccount(ctx context.Context, id int) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]int, error)
	RemoveAccount(ctx context.Context, id int) error
	UpdateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error)
	GetTransactions(ctx context.Context, id int) ([]domain.Transaction, error)
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// MetricsRecorder receives business events.
type MetricsRecorder interface {
	AccountCreated()
	AccountRemoved()
	TransactionAdmitted(kind domain.TransactionKind, result domain.AdmissionResult)
}
