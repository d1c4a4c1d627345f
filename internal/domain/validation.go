package domain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxNicknameLength = 64
	MaxAmount         = "1000000000000" // 1 trillion
)

// ValidateNickname validates an account display name. Empty is allowed.
func ValidateNickname(nickname string) error {
	if utf8.RuneCountInString(nickname) > MaxNicknameLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidNickname, MaxNicknameLength)
	}

	if strings.TrimSpace(nickname) != nickname {
		return fmt.Errorf("%w: leading or trailing whitespace", ErrInvalidNickname)
	}

	for _, r := range nickname {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: contains control characters", ErrInvalidNickname)
		}
	}

	return nil
}

// ValidateAccountID rejects ids the store never assigns.
func ValidateAccountID(id int) error {
	if id < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidAccountID, id)
	}
	return nil
}

// ValidateMagnitude validates a deposit or withdrawal amount given as a
// positive magnitude.
func ValidateMagnitude(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", ErrOutOfRange)
	}

	maxAmount := decimal.RequireFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrOutOfRange, MaxAmount)
	}

	return nil
}
