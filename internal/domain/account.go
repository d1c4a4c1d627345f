package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Account is a bank account whose balance is derived from its
// append-only transaction history.
type Account struct {
	id           int
	nickname     string
	settings     AccountSettings
	transactions []Transaction
}

// NewAccount returns an empty account with default settings.
func NewAccount(id int) *Account {
	return &Account{
		id:       id,
		settings: DefaultAccountSettings(),
	}
}

// RestoreAccount rebuilds an account from already validated parts.
// Transactions are copied; the caller keeps ownership of its slice.
func RestoreAccount(id int, nickname string, settings AccountSettings, transactions []Transaction) *Account {
	txs := make([]Transaction, len(transactions))
	copy(txs, transactions)

	return &Account{
		id:           id,
		nickname:     nickname,
		settings:     settings,
		transactions: txs,
	}
}

func (a *Account) ID() int                   { return a.id }
func (a *Account) Nickname() string          { return a.nickname }
func (a *Account) Settings() AccountSettings { return a.settings }

// Transactions returns a copy of the history in insertion order.
func (a *Account) Transactions() []Transaction {
	txs := make([]Transaction, len(a.transactions))
	copy(txs, a.transactions)
	return txs
}

// Balance is the sum of all transaction amounts.
func (a *Account) Balance() float64 {
	var balance float64
	for _, t := range a.transactions {
		balance += t.amount
	}
	return balance
}

// SetSettings replaces the fee configuration.
func (a *Account) SetSettings(settings AccountSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	a.settings = settings
	return nil
}

// SetNickname replaces the display name.
func (a *Account) SetNickname(nickname string) error {
	if err := ValidateNickname(nickname); err != nil {
		return err
	}
	a.nickname = nickname
	return nil
}

// TryAddTransaction offers a caller transaction stamped with the current
// time and reports whether it was appended. A refused withdrawal that
// overdraws the account still records an overdraft fee.
func (a *Account) TryAddTransaction(amount float64, kind TransactionKind) bool {
	return a.Admit(amount, kind, time.Now().UTC()).Applied()
}

// Admit runs the admission procedure for a caller transaction. The
// account either stays unchanged or gains exactly one entry.
func (a *Account) Admit(amount float64, kind TransactionKind, at time.Time) AdmissionResult {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return RejectedInvalidAmount
	}

	if !kind.Valid() {
		return RejectedUnknownKind
	}
	if kind.SystemOnly() {
		return RejectedSystemKind
	}

	if !kind.AllowsAmount(amount) {
		return RejectedSignMismatch
	}

	projected := a.Balance() + amount
	if kind == KindWithdrawal && projected < 0 {
		a.chargeOverdraftFee(at)
		return OverdraftFeeCharged
	}

	if amount == 0 && (kind == KindWithdrawal || kind == KindDeposit) {
		return RejectedZeroAmount
	}

	tx, err := NewTransaction(kind, amount, at)
	if err != nil {
		return RejectedSignMismatch
	}
	a.transactions = append(a.transactions, tx)

	return Applied
}

// ChargeManagementFee admits a management fee of the configured size.
func (a *Account) ChargeManagementFee(at time.Time) AdmissionResult {
	return a.Admit(-a.settings.ManagementFee, KindFeeManagement, at)
}

// chargeOverdraftFee appends the fee unconditionally; it never triggers
// another overdraft check.
func (a *Account) chargeOverdraftFee(at time.Time) {
	a.transactions = append(a.transactions, Transaction{
		kind:      KindFeeOverdraft,
		amount:    -math.Abs(a.settings.OverdraftFee),
		timestamp: at,
	})
}

// Clone returns a deep copy.
func (a *Account) Clone() *Account {
	return RestoreAccount(a.id, a.nickname, a.settings, a.transactions)
}

// Equal compares identity, settings, nickname and full history.
func (a *Account) Equal(other *Account) bool {
	if a == nil || other == nil {
		return a == other
	}
	if a.id != other.id || a.nickname != other.nickname || a.settings != other.settings {
		return false
	}
	if len(a.transactions) != len(other.transactions) {
		return false
	}
	for i := range a.transactions {
		if !a.transactions[i].Equal(other.transactions[i]) {
			return false
		}
	}
	return true
}

type accountRecord struct {
	ID           int             `json:"id"`
	Nickname     string          `json:"nickname"`
	Settings     AccountSettings `json:"settings"`
	Transactions []Transaction   `json:"transactions"`
}

// MarshalJSON encodes the persisted account record.
func (a *Account) MarshalJSON() ([]byte, error) {
	txs := a.transactions
	if txs == nil {
		txs = []Transaction{}
	}
	return json.Marshal(accountRecord{
		ID:           a.id,
		Nickname:     a.nickname,
		Settings:     a.settings,
		Transactions: txs,
	})
}

// UnmarshalJSON decodes a persisted account record. Missing settings fall
// back to the defaults.
func (a *Account) UnmarshalJSON(data []byte) error {
	rec := accountRecord{Settings: DefaultAccountSettings()}
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	*a = *RestoreAccount(rec.ID, rec.Nickname, rec.Settings, rec.Transactions)
	return nil
}
