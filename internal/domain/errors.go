package domain

import (
	"errors"
	"fmt"
)

var (
	// Account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrInvalidAccountID  = errors.New("account id must be positive")
	ErrInvalidSettings   = errors.New("invalid account settings")
	ErrInvalidNickname   = errors.New("invalid account nickname")
	ErrStoreInconsistent = errors.New("account store is inconsistent")
	ErrPersistence       = errors.New("failed to persist account store")

	// Transaction errors
	ErrOutOfRange          = errors.New("transaction amount out of range")
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrTransactionRejected = errors.New("transaction rejected")
)

// RejectionError reports an admission result that did not apply the
// requested transaction. It matches ErrInvalidTransaction for malformed
// requests and ErrTransactionRejected for business refusals.
type RejectionError struct {
	Result AdmissionResult
	Kind   TransactionKind
	Amount float64
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s %v: %s", e.Kind, e.Amount, e.Result)
}

func (e *RejectionError) Is(target error) bool {
	switch target {
	case ErrInvalidTransaction:
		return e.Result.IsValidationFailure()
	case ErrTransactionRejected:
		return !e.Result.IsValidationFailure()
	}
	return false
}
