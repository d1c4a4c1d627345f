package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/bankbook/internal/domain"
)

// CreateAccountRequest represents a request to create an account.
// The body is optional.
type CreateAccountRequest struct {
	Nickname string `json:"nickname,omitempty"`
}

// UpdateNicknameRequest represents a request to rename an account.
type UpdateNicknameRequest struct {
	Nickname string `json:"nickname"`
}

// UpdateSettingsRequest represents a request to change account fees.
type UpdateSettingsRequest struct {
	OverdraftFee  *decimal.Decimal `json:"overdraftFee"`
	ManagementFee *decimal.Decimal `json:"managementFee"`
}

// ToDomain converts the request to account settings. Both fees are required.
func (r *UpdateSettingsRequest) ToDomain() (domain.AccountSettings, error) {
	if r.OverdraftFee == nil || r.ManagementFee == nil {
		return domain.AccountSettings{}, fmt.Errorf("%w: overdraftFee and managementFee are required", domain.ErrInvalidSettings)
	}

	settings := domain.AccountSettings{
		OverdraftFee:  r.OverdraftFee.InexactFloat64(),
		ManagementFee: r.ManagementFee.InexactFloat64(),
	}

	return settings, settings.Validate()
}

// AddTransactionRequest represents a raw transaction with a signed amount.
type AddTransactionRequest struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

// Kind parses the transaction type; unknown names yield domain.KindUnknown.
func (r *AddTransactionRequest) Kind() domain.TransactionKind {
	return domain.ParseTransactionKind(r.Type)
}

// AmountRequest carries a positive magnitude for deposits and withdrawals.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}
