package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 3, 15, 10, 30, 0, 123456789, time.UTC)

func TestNewTransaction_ValidPairs(t *testing.T) {
	tests := []struct {
		name   string
		kind   TransactionKind
		amount float64
	}{
		{"deposit positive", KindDeposit, 100},
		{"deposit zero", KindDeposit, 0},
		{"interest positive", KindInterest, 1.25},
		{"interest zero", KindInterest, 0},
		{"withdrawal negative", KindWithdrawal, -50},
		{"overdraft fee negative", KindFeeOverdraft, -35},
		{"overdraft fee zero", KindFeeOverdraft, 0},
		{"management fee negative", KindFeeManagement, -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := NewTransaction(tt.kind, tt.amount, testTime)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, tx.Kind())
			assert.Equal(t, tt.amount, tx.Amount())
			assert.True(t, testTime.Equal(tx.Timestamp()))
		})
	}
}

func TestNewTransaction_RejectsWrongSign(t *testing.T) {
	tests := []struct {
		name   string
		kind   TransactionKind
		amount float64
	}{
		{"deposit negative", KindDeposit, -1},
		{"interest negative", KindInterest, -0.01},
		{"withdrawal positive", KindWithdrawal, 1},
		{"overdraft fee positive", KindFeeOverdraft, 35},
		{"management fee positive", KindFeeManagement, 10},
		{"unknown kind", KindUnknown, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransaction(tt.kind, tt.amount, testTime)
			assert.True(t, errors.Is(err, ErrOutOfRange), "expected ErrOutOfRange, got %v", err)
		})
	}
}

func TestNewTransaction_RejectsNonFiniteForEveryKind(t *testing.T) {
	amounts := []float64{math.NaN(), math.Inf(1), math.Inf(-1)}

	for kind := KindUnknown; kind <= KindFeeManagement; kind++ {
		for _, amount := range amounts {
			_, err := NewTransaction(kind, amount, testTime)
			assert.ErrorIs(t, err, ErrOutOfRange, "kind %s amount %v", kind, amount)
		}
	}
}

func TestTransaction_Equal(t *testing.T) {
	a, err := NewTransaction(KindDeposit, 10, testTime)
	require.NoError(t, err)
	b, err := NewTransaction(KindDeposit, 10, testTime.In(time.FixedZone("CET", 3600)))
	require.NoError(t, err)
	c, err := NewTransaction(KindDeposit, 11, testTime)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestTransaction_JSONRoundTrip(t *testing.T) {
	tx, err := NewTransaction(KindWithdrawal, -42.5, testTime)
	require.NoError(t, err)

	data, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"withdrawal","amount":-42.5,"date":"2024-03-15T10:30:00.123456789Z"}`, string(data))

	var decoded Transaction
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, tx.Equal(decoded))
}

func TestTransaction_UnmarshalValidates(t *testing.T) {
	var tx Transaction

	err := json.Unmarshal([]byte(`{"type":"deposit","amount":-5,"date":"2024-03-15T10:30:00Z"}`), &tx)
	assert.ErrorIs(t, err, ErrOutOfRange)

	err = json.Unmarshal([]byte(`{"TYPE":"Withdraw","Amount":-5,"DATE":"2024-03-15T10:30:00Z"}`), &tx)
	require.NoError(t, err)
	assert.Equal(t, KindWithdrawal, tx.Kind())
	assert.Equal(t, -5.0, tx.Amount())
}
