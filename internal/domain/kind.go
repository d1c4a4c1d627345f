package domain

import "strings"

// TransactionKind classifies a ledger entry's purpose and required amount sign.
type TransactionKind uint8

const (
	KindUnknown TransactionKind = iota
	KindDeposit
	KindWithdrawal
	KindInterest
	KindFeeOverdraft
	KindFeeManagement
)

// Sign is the amount sign a kind requires.
type Sign int8

const (
	SignNonNegative Sign = 1
	SignNonPositive Sign = -1
)

type kindRule struct {
	tag        string
	sign       Sign
	systemOnly bool
}

// kindRules is the single classification table for all kinds.
var kindRules = map[TransactionKind]kindRule{
	KindDeposit:       {tag: "deposit", sign: SignNonNegative},
	KindWithdrawal:    {tag: "withdrawal", sign: SignNonPositive},
	KindInterest:      {tag: "interest", sign: SignNonNegative, systemOnly: true},
	KindFeeOverdraft:  {tag: "fee_overdraft", sign: SignNonPositive, systemOnly: true},
	KindFeeManagement: {tag: "fee_management", sign: SignNonPositive},
}

// legacy spellings found in older store files.
var kindAliases = map[string]TransactionKind{
	"withdraw":      KindWithdrawal,
	"feeoverdraft":  KindFeeOverdraft,
	"feemanagement": KindFeeManagement,
}

// Valid reports whether k is a known kind other than KindUnknown.
func (k TransactionKind) Valid() bool {
	_, ok := kindRules[k]
	return ok
}

// RequiredSign returns the sign an amount of this kind must have.
// KindUnknown reports false.
func (k TransactionKind) RequiredSign() (Sign, bool) {
	rule, ok := kindRules[k]
	return rule.sign, ok
}

// SystemOnly reports whether only the engine may produce this kind.
func (k TransactionKind) SystemOnly() bool {
	return kindRules[k].systemOnly
}

// CallerCreatable reports whether a caller may submit this kind directly.
func (k TransactionKind) CallerCreatable() bool {
	rule, ok := kindRules[k]
	return ok && !rule.systemOnly
}

// AllowsAmount checks amount against the kind's sign rule.
// Zero is allowed for every valid kind.
func (k TransactionKind) AllowsAmount(amount float64) bool {
	sign, ok := k.RequiredSign()
	if !ok {
		return false
	}
	switch sign {
	case SignNonNegative:
		return amount >= 0
	default:
		return amount <= 0
	}
}

func (k TransactionKind) String() string {
	if rule, ok := kindRules[k]; ok {
		return rule.tag
	}
	return "unknown"
}

// ParseTransactionKind maps a tag to a kind, case-insensitively.
// Unrecognised tags yield KindUnknown.
func ParseTransactionKind(s string) TransactionKind {
	norm := strings.ToLower(strings.TrimSpace(s))
	for kind, rule := range kindRules {
		if rule.tag == norm {
			return kind
		}
	}
	if kind, ok := kindAliases[strings.ReplaceAll(norm, "_", "")]; ok {
		return kind
	}
	return KindUnknown
}

// MarshalText encodes the kind as its string tag.
func (k TransactionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a string tag.
func (k *TransactionKind) UnmarshalText(text []byte) error {
	*k = ParseTransactionKind(string(text))
	return nil
}
