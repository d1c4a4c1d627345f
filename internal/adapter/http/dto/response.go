package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankbook/internal/domain"
)

// SettingsResponse represents account fees in API responses.
type SettingsResponse struct {
	OverdraftFee  decimal.Decimal `json:"overdraftFee"`
	ManagementFee decimal.Decimal `json:"managementFee"`
}

// SettingsFromDomain converts domain settings to response.
func SettingsFromDomain(s domain.AccountSettings) SettingsResponse {
	return SettingsResponse{
		OverdraftFee:  decimal.NewFromFloat(s.OverdraftFee),
		ManagementFee: decimal.NewFromFloat(s.ManagementFee),
	}
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID               int              `json:"id"`
	Nickname         string           `json:"nickname"`
	Balance          decimal.Decimal  `json:"balance"`
	Settings         SettingsResponse `json:"settings"`
	TransactionCount int              `json:"transactionCount"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:               a.ID(),
		Nickname:         a.Nickname(),
		Balance:          decimal.NewFromFloat(a.Balance()),
		Settings:         SettingsFromDomain(a.Settings()),
		TransactionCount: len(a.Transactions()),
	}
}

// ListAccountsResponse represents the account id listing.
type ListAccountsResponse struct {
	Accounts []int `json:"accounts"`
}

// TransactionResponse represents a ledger line in API responses.
type TransactionResponse struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t domain.Transaction) TransactionResponse {
	return TransactionResponse{
		Type:   t.Kind().String(),
		Amount: decimal.NewFromFloat(t.Amount()),
		Date:   t.Timestamp(),
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(transactions []domain.Transaction) []TransactionResponse {
	result := make([]TransactionResponse, len(transactions))
	for i, t := range transactions {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// TransactionsResponse represents an account history.
type TransactionsResponse struct {
	AccountID    int                   `json:"accountId"`
	Transactions []TransactionResponse `json:"transactions"`
}

// TransactionOutcomeResponse is returned when a transaction is applied.
type TransactionOutcomeResponse struct {
	Result  string           `json:"result"`
	Account *AccountResponse `json:"account"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// RejectionResponse is returned when a transaction is refused. Account
// shows any fee charged by the attempt.
type RejectionResponse struct {
	Error   string           `json:"error"`
	Message string           `json:"message,omitempty"`
	Result  string           `json:"result"`
	Account *AccountResponse `json:"account,omitempty"`
}
