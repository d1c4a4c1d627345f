package domain

// AdmissionResult is the outcome of offering a transaction to an account.
type AdmissionResult uint8

const (
	Applied AdmissionResult = iota
	OverdraftFeeCharged
	RejectedInvalidAmount
	RejectedUnknownKind
	RejectedSystemKind
	RejectedSignMismatch
	RejectedZeroAmount
)

var admissionTags = map[AdmissionResult]string{
	Applied:               "applied",
	OverdraftFeeCharged:   "overdraft_fee_charged",
	RejectedInvalidAmount: "invalid_amount",
	RejectedUnknownKind:   "unknown_kind",
	RejectedSystemKind:    "system_only_kind",
	RejectedSignMismatch:  "sign_mismatch",
	RejectedZeroAmount:    "zero_amount",
}

// Applied reports whether the requested transaction was appended.
func (r AdmissionResult) Applied() bool {
	return r == Applied
}

// Mutated reports whether the account changed, which is also the case
// when the withdrawal was refused but an overdraft fee was recorded.
func (r AdmissionResult) Mutated() bool {
	return r == Applied || r == OverdraftFeeCharged
}

// IsValidationFailure separates malformed requests from business refusals.
func (r AdmissionResult) IsValidationFailure() bool {
	switch r {
	case RejectedInvalidAmount, RejectedUnknownKind, RejectedSignMismatch:
		return true
	}
	return false
}

// Err returns nil for Applied and a *RejectionError otherwise.
func (r AdmissionResult) Err(kind TransactionKind, amount float64) error {
	if r.Applied() {
		return nil
	}
	return &RejectionError{Result: r, Kind: kind, Amount: amount}
}

func (r AdmissionResult) String() string {
	if tag, ok := admissionTags[r]; ok {
		return tag
	}
	return "unknown"
}

// MarshalText encodes the result as its tag.
func (r AdmissionResult) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
