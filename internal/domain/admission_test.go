package domain

import (
	"errors"
	"testing"
)

func TestAdmissionResult_Err(t *testing.T) {
	tests := []struct {
		result     AdmissionResult
		validation bool
	}{
		{OverdraftFeeCharged, false},
		{RejectedSystemKind, false},
		{RejectedZeroAmount, false},
		{RejectedInvalidAmount, true},
		{RejectedUnknownKind, true},
		{RejectedSignMismatch, true},
	}

	for _, tt := range tests {
		t.Run(tt.result.String(), func(t *testing.T) {
			err := tt.result.Err(KindWithdrawal, -10)
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			if got := errors.Is(err, ErrInvalidTransaction); got != tt.validation {
				t.Errorf("errors.Is(ErrInvalidTransaction) = %v, want %v", got, tt.validation)
			}
			if got := errors.Is(err, ErrTransactionRejected); got == tt.validation {
				t.Errorf("errors.Is(ErrTransactionRejected) = %v, want %v", got, !tt.validation)
			}

			var rejection *RejectionError
			if !errors.As(err, &rejection) || rejection.Result != tt.result {
				t.Errorf("expected RejectionError carrying %s, got %v", tt.result, err)
			}
		})
	}
}

func TestAdmissionResult_AppliedHasNoError(t *testing.T) {
	if err := Applied.Err(KindDeposit, 10); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !Applied.Applied() || !Applied.Mutated() {
		t.Fatal("expected Applied to be applied and mutating")
	}
	if OverdraftFeeCharged.Applied() || !OverdraftFeeCharged.Mutated() {
		t.Fatal("expected overdraft fee to mutate without applying")
	}
}
