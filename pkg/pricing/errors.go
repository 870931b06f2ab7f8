package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is matched by every ValidationError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration is matched by every ConfigurationError.
	ErrConfiguration = errors.New("invalid fee configuration")
)

// ValidationError reports a malformed customer or vehicle snapshot.
type ValidationError struct {
	Entity string
	ID     string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s %s", e.Entity, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %s: %s %s", e.Entity, e.ID, e.Field, e.Reason)
}

// Is lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConfigurationError reports a missing or out-of-range fee configuration value.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("fee configuration: %s %s", e.Field, e.Reason)
}

// Is lets errors.Is match ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Rejection explains why a vehicle or a single loan structure attempt was not
// viable. These are expected outcomes, not errors.
type Rejection string

const (
	Accepted                 Rejection = ""
	RejectPriceNotHigher     Rejection = "price_not_higher"
	RejectEquityEveryTerm    Rejection = "equity_below_every_term"
	RejectLoanNotPositive    Rejection = "loan_not_positive"
	RejectInsufficientEquity Rejection = "insufficient_equity"
	RejectPaymentNotFinite   Rejection = "payment_not_finite"
	RejectNPVBelowMinimum    Rejection = "npv_below_minimum"
	RejectNoViableStructure  Rejection = "no_viable_structure"
	RejectUnknownProfile     Rejection = "unknown_risk_profile"
)
