package usecase

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bankbook/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	// mu serialises get -> mutate -> update sequences.
	mu          sync.Mutex
	accountRepo AccountRepository
	cache       Cache
	metrics     MetricsRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAccountUseCase creates a new AccountUseCase. cache and metrics may be nil.
func NewAccountUseCase(accountRepo AccountRepository, cache Cache, metrics MetricsRecorder, logger zerolog.Logger) *AccountUseCase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &AccountUseCase{
		accountRepo: accountRepo,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// TransactionOutcome is the state of an account after a transaction attempt.
// Account reflects any fee that was charged even when the transaction itself
// was rejected.
type TransactionOutcome struct {
	Account *domain.Account
	Result  domain.AdmissionResult
}

// CreateAccount creates a new account with default settings and the given
// nickname, which may be empty. If the nickname cannot be saved the new
// account is removed again so a failed create leaves nothing behind.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, nickname string) (*domain.Account, error) {
	if err := domain.ValidateNickname(nickname); err != nil {
		return nil, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	account, err := uc.accountRepo.NewAccount(ctx)
	if err != nil {
		return nil, err
	}

	if nickname != "" {
		id := account.ID()
		if err := account.SetNickname(nickname); err != nil {
			return nil, uc.rollbackCreate(ctx, id, err)
		}
		if account, err = uc.accountRepo.UpdateAccount(ctx, account); err != nil {
			return nil, uc.rollbackCreate(ctx, id, err)
		}
	}

	uc.metrics.AccountCreated()
	uc.logger.Info().Int("account_id", account.ID()).Msg("account created")

	return account, nil
}

// GetAccount retrieves an account by ID. Cache fills happen under the
// use-case lock so a concurrent mutation cannot be overwritten by an older
// copy of the account.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id int) (*domain.Account, error) {
	if cached := uc.cachedAccount(ctx, id); cached != nil {
		return cached, nil
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	account, err := uc.accountRepo.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	uc.cacheAccount(ctx, account)

	return account, nil
}

// ListAccounts returns all account ids in ascending order.
func (uc *AccountUseCase) ListAccounts(ctx context.Context) ([]int, error) {
	return uc.accountRepo.ListAccounts(ctx)
}

// DeleteAccount removes an account. Unlike the repository, it reports
// domain.ErrAccountNotFound for unknown ids.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, id int) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if _, err := uc.accountRepo.GetAccount(ctx, id); err != nil {
		return err
	}

	if err := uc.accountRepo.RemoveAccount(ctx, id); err != nil {
		return err
	}

	uc.invalidate(ctx, id)
	uc.metrics.AccountRemoved()
	uc.logger.Info().Int("account_id", id).Msg("account removed")

	return nil
}

// UpdateNickname changes the display name of an account.
func (uc *AccountUseCase) UpdateNickname(ctx context.Context, id int, nickname string) (*domain.Account, error) {
	return uc.modify(ctx, id, func(account *domain.Account) error {
		return account.SetNickname(nickname)
	})
}

// UpdateSettings replaces the fee settings of an account.
func (uc *AccountUseCase) UpdateSettings(ctx context.Context, id int, settings domain.AccountSettings) (*domain.Account, error) {
	return uc.modify(ctx, id, func(account *domain.Account) error {
		return account.SetSettings(settings)
	})
}

// AddTransaction admits a signed amount of the given kind.
// When the transaction is not applied the returned error is a
// *domain.RejectionError and the outcome is still populated.
func (uc *AccountUseCase) AddTransaction(ctx context.Context, id int, kind domain.TransactionKind, amount float64) (*TransactionOutcome, error) {
	return uc.admit(ctx, id, kind, func(account *domain.Account, at time.Time) (domain.AdmissionResult, float64) {
		return account.Admit(amount, kind, at), amount
	})
}

// Deposit credits a positive magnitude.
func (uc *AccountUseCase) Deposit(ctx context.Context, id int, amount decimal.Decimal) (*TransactionOutcome, error) {
	if err := domain.ValidateMagnitude(amount); err != nil {
		return nil, err
	}
	return uc.AddTransaction(ctx, id, domain.KindDeposit, amount.InexactFloat64())
}

// Withdraw debits a positive magnitude. Overdrawing charges the account's
// overdraft fee instead.
func (uc *AccountUseCase) Withdraw(ctx context.Context, id int, amount decimal.Decimal) (*TransactionOutcome, error) {
	if err := domain.ValidateMagnitude(amount); err != nil {
		return nil, err
	}
	return uc.AddTransaction(ctx, id, domain.KindWithdrawal, amount.Neg().InexactFloat64())
}

// ChargeManagementFee debits the account's configured management fee.
func (uc *AccountUseCase) ChargeManagementFee(ctx context.Context, id int) (*TransactionOutcome, error) {
	return uc.admit(ctx, id, domain.KindFeeManagement, func(account *domain.Account, at time.Time) (domain.AdmissionResult, float64) {
		return account.ChargeManagementFee(at), -account.Settings().ManagementFee
	})
}

// GetTransactions returns the history of an account, or an empty slice
// for an unknown account.
func (uc *AccountUseCase) GetTransactions(ctx context.Context, id int) ([]domain.Transaction, error) {
	return uc.accountRepo.GetTransactions(ctx, id)
}

// DefaultSettings returns the settings given to new accounts.
func (uc *AccountUseCase) DefaultSettings() domain.AccountSettings {
	return domain.DefaultAccountSettings()
}

func (uc *AccountUseCase) modify(ctx context.Context, id int, mutate func(*domain.Account) error) (*domain.Account, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	account, err := uc.accountRepo.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := mutate(account); err != nil {
		return nil, err
	}

	updated, err := uc.accountRepo.UpdateAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, id)

	return updated, nil
}

// admit runs one admission under the use-case lock. apply reports the
// amount it attempted so fees derived from settings are logged correctly.
func (uc *AccountUseCase) admit(
	ctx context.Context,
	id int,
	kind domain.TransactionKind,
	apply func(*domain.Account, time.Time) (domain.AdmissionResult, float64),
) (*TransactionOutcome, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	account, err := uc.accountRepo.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	result, amount := apply(account, uc.now())

	if result.Mutated() {
		updated, err := uc.accountRepo.UpdateAccount(ctx, account)
		if err != nil {
			return nil, err
		}
		account = updated
		uc.invalidate(ctx, id)
	}

	uc.metrics.TransactionAdmitted(kind, result)

	event := uc.logger.Info()
	if !result.Applied() {
		event = uc.logger.Warn()
	}
	event.
		Int("account_id", id).
		Str("kind", kind.String()).
		Float64("amount", amount).
		Str("result", result.String()).
		Float64("balance", account.Balance()).
		Msg("transaction processed")

	return &TransactionOutcome{Account: account, Result: result}, result.Err(kind, amount)
}

func (uc *AccountUseCase) rollbackCreate(ctx context.Context, id int, cause error) error {
	if err := uc.accountRepo.RemoveAccount(ctx, id); err != nil {
		uc.logger.Error().Err(err).Int("account_id", id).Msg("failed to roll back account creation")
	}
	return cause
}

func (uc *AccountUseCase) cachedAccount(ctx context.Context, id int) *domain.Account {
	if uc.cache == nil {
		return nil
	}

	data, err := uc.cache.Get(ctx, accountCacheKey(id))
	if err != nil {
		return nil
	}

	var account domain.Account
	if err := json.Unmarshal(data, &account); err != nil {
		uc.logger.Debug().Err(err).Int("account_id", id).Msg("discarding unreadable cached account")
		return nil
	}

	return &account
}

func (uc *AccountUseCase) cacheAccount(ctx context.Context, account *domain.Account) {
	if uc.cache == nil {
		return
	}

	data, err := json.Marshal(account)
	if err != nil {
		return
	}

	if err := uc.cache.Set(ctx, accountCacheKey(account.ID()), data, AccountCacheTTL); err != nil {
		uc.logger.Warn().Err(err).Int("account_id", account.ID()).Msg("failed to cache account")
	}
}

func (uc *AccountUseCase) invalidate(ctx context.Context, id int) {
	if uc.cache == nil {
		return
	}

	if err := uc.cache.Delete(ctx, accountCacheKey(id)); err != nil {
		uc.logger.Warn().Err(err).Int("account_id", id).Msg("failed to invalidate cached account")
	}
}

func accountCacheKey(id int) string {
	return accountCacheKeyPrefix + strconv.Itoa(id)
}

type nopMetrics struct{}

func (nopMetrics) AccountCreated() {}

func (nopMetrics) AccountRemoved() {}

func (nopMetrics) TransactionAdmitted(domain.TransactionKind, domain.AdmissionResult) {}
