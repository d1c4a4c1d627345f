// Package jsonfile keeps accounts in a single JSON document on disk.
// The whole collection is loaded at Open and rewritten on every mutation.
package jsonfile

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/bankbook/internal/domain"
)

const (
	firstID = 1

	defaultFileMode = 0o644
)

// WriteObserver is notified after every rewrite of the backing file.
type WriteObserver interface {
	ObserveStoreWrite(duration time.Duration, err error)
}

// Option configures a Storage.
type Option func(*Storage)

// WithLogger sets the logger used for load and write events.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Storage) {
		s.logger = logger
	}
}

// WithWriteObserver registers a hook for file rewrites.
func WithWriteObserver(observer WriteObserver) Option {
	return func(s *Storage) {
		s.observer = observer
	}
}

// Storage implements usecase.AccountRepository on top of a JSON file.
// All methods are safe for concurrent use; writers are exclusive.
type Storage struct {
	mu        sync.RWMutex
	path      string
	accounts  []*domain.Account
	highWater int
	logger    zerolog.Logger
	observer  WriteObserver
}

// Open loads the store at path. A missing file is created empty. A file
// that cannot be parsed is treated as an empty store and left untouched
// until the next mutation.
func Open(path string, opts ...Option) (*Storage, error) {
	s := &Storage{
		path:   path,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.write(nil); err != nil {
			return nil, err
		}
		s.logger.Info().Str("path", path).Msg("created empty account store")
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read account store %s: %w", path, err)
	}

	accounts, err := decode(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("account store is unreadable, starting empty")
		return s, nil
	}

	for _, acc := range accounts {
		if err := acc.Settings().Validate(); err != nil {
			s.logger.Warn().Err(err).Int("account_id", acc.ID()).Msg("stored settings are invalid, using defaults")
			if err := acc.SetSettings(domain.DefaultAccountSettings()); err != nil {
				return nil, err
			}
		}
		s.highWater = max(s.highWater, acc.ID())
	}
	s.accounts = accounts

	s.logger.Info().
		Str("path", path).
		Int("accounts", len(accounts)).
		Msg("loaded account store")

	return s, nil
}

// Path returns the backing file path.
func (s *Storage) Path() string {
	return s.path
}

// Ping checks that the backing file is still reachable.
func (s *Storage) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := os.Stat(s.path)
	return err
}

// NewAccount allocates the next id, stores an empty account with default
// settings and returns a copy of it.
func (s *Storage) NewAccount(ctx context.Context) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := firstID
	if s.highWater >= firstID {
		id = s.highWater + 1
	}

	account := domain.NewAccount(id)
	next := append(slices.Clone(s.accounts), account)

	if err := s.commit(next, id); err != nil {
		return nil, err
	}

	return account.Clone(), nil
}

// GetAccount returns a copy of the account with the given id.
func (s *Storage) GetAccount(ctx context.Context, id int) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	account := s.find(id)
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}

	return account.Clone(), nil
}

// ListAccounts returns all account ids in ascending order.
func (s *Storage) ListAccounts(ctx context.Context) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.accounts))
	for _, acc := range s.accounts {
		ids = append(ids, acc.ID())
	}
	slices.Sort(ids)

	return ids, nil
}

// RemoveAccount deletes the account if present. Removing an unknown id
// is not an error.
func (s *Storage) RemoveAccount(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.index(id)
	if idx < 0 {
		return nil
	}

	next := slices.Delete(slices.Clone(s.accounts), idx, idx+1)

	return s.commit(next, s.highWater)
}

// UpdateAccount replaces the stored account carrying the same id, or
// inserts it, persists, and returns the stored copy.
func (s *Storage) UpdateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: nil account", domain.ErrInvalidAccountID)
	}
	if err := domain.ValidateAccountID(account.ID()); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.accounts)
	stored := account.Clone()
	if idx := s.index(account.ID()); idx >= 0 {
		next[idx] = stored
	} else {
		next = append(next, stored)
	}

	if err := s.commit(next, max(s.highWater, account.ID())); err != nil {
		return nil, err
	}

	updated := s.find(account.ID())
	if updated == nil {
		return nil, fmt.Errorf("%w: account %d missing after update", domain.ErrStoreInconsistent, account.ID())
	}

	return updated.Clone(), nil
}

// GetTransactions returns the history of an account, or an empty slice
// when the account does not exist.
func (s *Storage) GetTransactions(ctx context.Context, id int) ([]domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	account := s.find(id)
	if account == nil {
		return []domain.Transaction{}, nil
	}

	return account.Transactions(), nil
}

// commit writes next to disk and only then makes it the in-memory state,
// so a failed write leaves the store as it was. Callers hold s.mu.
func (s *Storage) commit(next []*domain.Account, highWater int) error {
	if err := s.write(next); err != nil {
		return err
	}

	s.accounts = next
	s.highWater = highWater

	return nil
}

// write serialises accounts to a temp file next to the store and renames
// it over the store.
func (s *Storage) write(accounts []*domain.Account) (err error) {
	start := time.Now()
	defer func() {
		if s.observer != nil {
			s.observer.ObserveStoreWrite(time.Since(start), err)
		}
		if err != nil {
			s.logger.Error().Err(err).Str("path", s.path).Msg("failed to write account store")
		}
	}()

	if accounts == nil {
		accounts = []*domain.Account{}
	}

	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", domain.ErrPersistence, err)
	}

	dir, base := filepath.Split(s.path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, base+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	tmpName := tmp.Name()

	// CreateTemp uses 0600; keep the mode of the file being replaced.
	mode := fs.FileMode(defaultFileMode)
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	return nil
}

func (s *Storage) index(id int) int {
	return slices.IndexFunc(s.accounts, func(acc *domain.Account) bool {
		return acc.ID() == id
	})
}

func (s *Storage) find(id int) *domain.Account {
	if idx := s.index(id); idx >= 0 {
		return s.accounts[idx]
	}
	return nil
}

// decode accepts the canonical array layout and the older object layout
// keyed by id. Entries without a usable id are dropped.
func decode(data []byte) ([]*domain.Account, error) {
	trimmed := bytes.TrimSpace(data)

	var raw []*domain.Account
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var keyed map[string]*domain.Account
		if err := json.Unmarshal(trimmed, &keyed); err != nil {
			return nil, err
		}
		for _, acc := range keyed {
			if acc != nil {
				raw = append(raw, acc)
			}
		}
		slices.SortFunc(raw, func(a, b *domain.Account) int {
			return cmp.Compare(a.ID(), b.ID())
		})
	} else if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(raw))
	seen := make(map[int]bool, len(raw))
	for _, acc := range raw {
		if acc == nil || acc.ID() < firstID || seen[acc.ID()] {
			continue
		}
		seen[acc.ID()] = true
		accounts = append(accounts, acc)
	}

	return accounts, nil
}
