package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Transaction is one signed ledger entry. It is immutable once built.
type Transaction struct {
	kind      TransactionKind
	amount    float64
	timestamp time.Time
}

// NewTransaction validates amount against kind and returns the entry.
// Violations wrap ErrOutOfRange.
func NewTransaction(kind TransactionKind, amount float64, at time.Time) (Transaction, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Transaction{}, fmt.Errorf("%w: amount must be finite", ErrOutOfRange)
	}

	sign, ok := kind.RequiredSign()
	if !ok {
		return Transaction{}, fmt.Errorf("%w: unknown transaction kind", ErrOutOfRange)
	}

	if sign == SignNonPositive && amount > 0 {
		return Transaction{}, fmt.Errorf("%w: %s expects a negative amount, got %v", ErrOutOfRange, kind, amount)
	}
	if sign == SignNonNegative && amount < 0 {
		return Transaction{}, fmt.Errorf("%w: %s expects a positive amount, got %v", ErrOutOfRange, kind, amount)
	}

	return Transaction{kind: kind, amount: amount, timestamp: at}, nil
}

func (t Transaction) Kind() TransactionKind { return t.kind }
func (t Transaction) Amount() float64       { return t.amount }
func (t Transaction) Timestamp() time.Time  { return t.timestamp }

// Equal compares kind, amount and instant.
func (t Transaction) Equal(other Transaction) bool {
	return t.kind == other.kind &&
		t.amount == other.amount &&
		t.timestamp.Equal(other.timestamp)
}

type transactionRecord struct {
	Type   TransactionKind `json:"type"`
	Amount float64         `json:"amount"`
	Date   time.Time       `json:"date"`
}

// MarshalJSON encodes the transaction as {type, amount, date}.
func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionRecord{
		Type:   t.kind,
		Amount: t.amount,
		Date:   t.timestamp,
	})
}

// UnmarshalJSON decodes through NewTransaction so stored data is
// validated like any other input.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var rec transactionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	tx, err := NewTransaction(rec.Type, rec.Amount, rec.Date)
	if err != nil {
		return err
	}

	*t = tx
	return nil
}
