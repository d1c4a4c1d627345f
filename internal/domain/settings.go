package domain

import (
	"fmt"
	"math"
)

const (
	DefaultOverdraftFee  = 35.00
	DefaultManagementFee = 10.00
)

// AccountSettings holds per-account fee configuration.
type AccountSettings struct {
	OverdraftFee  float64 `json:"overdraftFee"`
	ManagementFee float64 `json:"managementFee"`
}

// DefaultAccountSettings returns the settings given to new accounts.
func DefaultAccountSettings() AccountSettings {
	return AccountSettings{
		OverdraftFee:  DefaultOverdraftFee,
		ManagementFee: DefaultManagementFee,
	}
}

// Validate rejects non-finite or negative fees.
func (s AccountSettings) Validate() error {
	if err := validateFee("overdraftFee", s.OverdraftFee); err != nil {
		return err
	}
	return validateFee("managementFee", s.ManagementFee)
}

func validateFee(name string, fee float64) error {
	if math.IsNaN(fee) || math.IsInf(fee, 0) {
		return fmt.Errorf("%w: %s must be finite", ErrInvalidSettings, name)
	}
	if fee < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidSettings, name)
	}
	return nil
}
