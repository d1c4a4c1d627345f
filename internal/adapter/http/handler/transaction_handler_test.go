package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/bankbook/internal/adapter/http/dto"
	"github.com/iho/bankbook/internal/domain"
	"github.com/iho/bankbook/internal/usecase"
)

// ledgerStub applies admissions to a real account so responses reflect
// domain behaviour.
type ledgerStub struct {
	account  *domain.Account
	lastKind domain.TransactionKind
	lastAmt  float64
}

func newLedgerStub(balance float64) *ledgerStub {
	acc := domain.NewAccount(1)
	if balance > 0 {
		acc.Admit(balance, domain.KindDeposit, testTime)
	}
	return &ledgerStub{account: acc}
}

func (s *ledgerStub) AddTransaction(ctx context.Context, id int, kind domain.TransactionKind, amount float64) (*usecase.TransactionOutcome, error) {
	if id != s.account.ID() {
		return nil, domain.ErrAccountNotFound
	}
	s.lastKind, s.lastAmt = kind, amount
	result := s.account.Admit(amount, kind, testTime)
	return &usecase.TransactionOutcome{Account: s.account.Clone(), Result: result}, result.Err(kind, amount)
}

func (s *ledgerStub) Deposit(ctx context.Context, id int, amount decimal.Decimal) (*usecase.TransactionOutcome, error) {
	if err := domain.ValidateMagnitude(amount); err != nil {
		return nil, err
	}
	return s.AddTransaction(ctx, id, domain.KindDeposit, amount.InexactFloat64())
}

func (s *ledgerStub) Withdraw(ctx context.Context, id int, amount decimal.Decimal) (*usecase.TransactionOutcome, error) {
	if err := domain.ValidateMagnitude(amount); err != nil {
		return nil, err
	}
	return s.AddTransaction(ctx, id, domain.KindWithdrawal, amount.Neg().InexactFloat64())
}

func (s *ledgerStub) ChargeManagementFee(ctx context.Context, id int) (*usecase.TransactionOutcome, error) {
	return s.AddTransaction(ctx, id, domain.KindFeeManagement, -s.account.Settings().ManagementFee)
}

func (s *ledgerStub) GetTransactions(ctx context.Context, id int) ([]domain.Transaction, error) {
	if id != s.account.ID() {
		return []domain.Transaction{}, nil
	}
	return s.account.Transactions(), nil
}

func postJSON(path, id, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	return withURLParam(req, "id", id)
}

func TestTransactionHandler_Deposit(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		body       string
		wantStatus int
	}{
		{"valid deposit", "1", `{"amount":"200"}`, http.StatusOK},
		{"zero amount", "1", `{"amount":0}`, http.StatusBadRequest},
		{"negative amount", "1", `{"amount":-5}`, http.StatusBadRequest},
		{"malformed body", "1", `{"amount":`, http.StatusBadRequest},
		{"unknown account", "2", `{"amount":5}`, http.StatusNotFound},
		{"invalid id", "x", `{"amount":5}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewTransactionHandler(newLedgerStub(0))
			rec := httptest.NewRecorder()

			handler.Deposit(rec, postJSON("/accounts/"+tt.id+"/deposit", tt.id, tt.body))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestTransactionHandler_DepositThenWithdraw(t *testing.T) {
	stub := newLedgerStub(0)
	handler := NewTransactionHandler(stub)

	rec := httptest.NewRecorder()
	handler.Deposit(rec, postJSON("/accounts/1/deposit", "1", `{"amount":200}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.Withdraw(rec, postJSON("/accounts/1/withdraw", "1", `{"amount":100}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("withdraw failed: %d %s", rec.Code, rec.Body.String())
	}

	var resp dto.TransactionOutcomeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Result != "applied" || !resp.Account.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected outcome: %+v", resp)
	}
	if stub.lastAmt != -100 {
		t.Fatalf("expected withdrawal to be negated, got %v", stub.lastAmt)
	}
}

func TestTransactionHandler_WithdrawOverdraft(t *testing.T) {
	handler := NewTransactionHandler(newLedgerStub(0))

	rec := httptest.NewRecorder()
	handler.Withdraw(rec, postJSON("/accounts/1/withdraw", "1", `{"amount":100}`))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.RejectionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Result != "overdraft_fee_charged" {
		t.Fatalf("expected overdraft result, got %q", resp.Result)
	}
	if resp.Account == nil || !resp.Account.Balance.Equal(decimal.NewFromInt(-35)) {
		t.Fatalf("expected balance -35 after fee, got %+v", resp.Account)
	}
}

func TestTransactionHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantResult string
	}{
		{"deposit", `{"type":"deposit","amount":50}`, http.StatusOK, "applied"},
		{"legacy type name", `{"type":"Deposit","amount":"10.5"}`, http.StatusOK, "applied"},
		{"sign mismatch", `{"type":"deposit","amount":-50}`, http.StatusBadRequest, "sign_mismatch"},
		{"unknown type", `{"type":"bonus","amount":5}`, http.StatusBadRequest, "unknown_kind"},
		{"system only", `{"type":"interest","amount":5}`, http.StatusConflict, "system_only_kind"},
		{"zero deposit", `{"type":"deposit","amount":0}`, http.StatusConflict, "zero_amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewTransactionHandler(newLedgerStub(0))
			rec := httptest.NewRecorder()

			handler.Create(rec, postJSON("/accounts/1/transactions", "1", tt.body))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}

			var body struct {
				Result string `json:"result"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body.Result != tt.wantResult {
				t.Fatalf("expected result %q, got %q", tt.wantResult, body.Result)
			}
		})
	}
}

func TestTransactionHandler_ChargeManagementFee(t *testing.T) {
	handler := NewTransactionHandler(newLedgerStub(100))

	rec := httptest.NewRecorder()
	handler.ChargeManagementFee(rec, postJSON("/accounts/1/fees/management", "1", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.TransactionOutcomeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Account.Balance.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("expected balance 90, got %s", resp.Account.Balance)
	}
}

func TestTransactionHandler_List(t *testing.T) {
	handler := NewTransactionHandler(newLedgerStub(100))

	t.Run("known account", func(t *testing.T) {
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/accounts/1/transactions", nil), "id", "1")
		rec := httptest.NewRecorder()
		handler.List(rec, req)

		var resp dto.TransactionsResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.AccountID != 1 || len(resp.Transactions) != 1 || resp.Transactions[0].Type != "deposit" {
			t.Fatalf("unexpected history: %+v", resp)
		}
	})

	t.Run("unknown account has empty history", func(t *testing.T) {
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/accounts/7/transactions", nil), "id", "7")
		rec := httptest.NewRecorder()
		handler.List(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"transactions":[]`) {
			t.Fatalf("expected empty list, got %s", rec.Body.String())
		}
	})
}
