package pricing

import (
	"fmt"
	"math"
	"sort"

	"github.com/iwvelando/trade-up/pkg/constants"
	"github.com/iwvelando/trade-up/pkg/mathutil"
)

// FeeRange bounds a percentage fee and the step used when conceding it.
type FeeRange struct {
	Max  float64
	Min  float64
	Step float64
}

// BonusRange bounds the CAC bonus amounts offered as concessions.
type BonusRange struct {
	Min  float64
	Max  float64
	Step float64
}

// RiskProfile maps a customer credit tier to its rates and down payment.
type RiskProfile struct {
	Rate               float64
	TermRates          map[int]float64
	MinDownPayment     float64
	TermMinDownPayment map[int]float64
}

// FeeConfiguration holds every business parameter used to price an offer.
// It is read-only once validated and safe to share between goroutines.
type FeeConfiguration struct {
	ServiceFee           FeeRange
	CXA                  FeeRange
	CACBonus             BonusRange
	KavakTotalEnabled    bool
	KavakTotalAmount     float64
	GPSInstallation      float64
	GPSMonthly           float64
	InsuranceAmount      float64
	InsuranceCycleMonths int
	IVARate              float64
	MinimumNPV           float64
	Terms                []int
	TermRateAddOns       map[int]float64
	RiskProfiles         map[string]RiskProfile
}

// KavakTotal returns the financed protection package amount, zero when disabled.
func (f FeeConfiguration) KavakTotal() float64 {
	if !f.KavakTotalEnabled {
		return 0
	}
	return f.KavakTotalAmount
}

// InterestRate returns the tax-exclusive annual rate for a risk profile and
// term, including the term add-on.
func (f FeeConfiguration) InterestRate(profile string, term int) (float64, bool) {
	risk, ok := f.RiskProfiles[profile]
	if !ok {
		return 0, false
	}
	rate := risk.Rate
	if termRate, ok := risk.TermRates[term]; ok {
		rate = termRate
	}
	return rate + f.TermRateAddOns[term], true
}

// RequiredDownPaymentPct returns the minimum equity share of the vehicle price.
func (f FeeConfiguration) RequiredDownPaymentPct(profile string, term int) (float64, bool) {
	risk, ok := f.RiskProfiles[profile]
	if !ok {
		return 0, false
	}
	if pct, ok := risk.TermMinDownPayment[term]; ok {
		return pct, true
	}
	return risk.MinDownPayment, true
}

// Validate fails fast on the first missing or out-of-range value.
func (f FeeConfiguration) Validate() error {
	if err := validateFeeRange("serviceFee", f.ServiceFee, math.Inf(1)); err != nil {
		return err
	}
	// The CXA is a share of the loan it is financed into, so 100% or more has
	// no solution.
	if err := validateFeeRange("cxa", f.CXA, 1); err != nil {
		return err
	}
	if err := validateBonusRange("cacBonus", f.CACBonus); err != nil {
		return err
	}

	amounts := []struct {
		field string
		value float64
	}{
		{"kavakTotal.amount", f.KavakTotalAmount},
		{"gps.installation", f.GPSInstallation},
		{"gps.monthly", f.GPSMonthly},
		{"insurance.amount", f.InsuranceAmount},
	}
	for _, amount := range amounts {
		if !mathutil.IsFinite(amount.value) || amount.value < 0 {
			return &ConfigurationError{Field: amount.field, Reason: "must be a non-negative amount"}
		}
	}
	if f.KavakTotalEnabled && f.KavakTotalAmount <= 0 {
		return &ConfigurationError{Field: "kavakTotal.amount", Reason: "must be positive when Kavak Total is enabled"}
	}
	if f.InsuranceCycleMonths <= 0 {
		return &ConfigurationError{Field: "insurance.cycleMonths", Reason: "must be positive"}
	}
	if !mathutil.IsFinite(f.IVARate) || f.IVARate < 0 || f.IVARate >= 1 {
		return &ConfigurationError{Field: "ivaRate", Reason: "must be in [0, 1)"}
	}
	if !mathutil.IsFinite(f.MinimumNPV) {
		return &ConfigurationError{Field: "minimumNpv", Reason: "must be a finite amount"}
	}

	if len(f.Terms) == 0 {
		return &ConfigurationError{Field: "terms", Reason: "must list at least one term"}
	}
	seen := make(map[int]bool, len(f.Terms))
	for _, term := range f.Terms {
		if term <= 0 {
			return &ConfigurationError{Field: "terms", Reason: fmt.Sprintf("contains non-positive term %d", term)}
		}
		if seen[term] {
			return &ConfigurationError{Field: "terms", Reason: fmt.Sprintf("lists term %d twice", term)}
		}
		if f.InsuranceAmount > 0 && term%f.InsuranceCycleMonths != 0 {
			return &ConfigurationError{
				Field:  "terms",
				Reason: fmt.Sprintf("term %d is not a whole number of %d-month insurance cycles", term, f.InsuranceCycleMonths),
			}
		}
		seen[term] = true
	}
	for term, addOn := range f.TermRateAddOns {
		if !mathutil.IsFinite(addOn) || addOn < 0 {
			return &ConfigurationError{Field: fmt.Sprintf("termRateAddOns[%d]", term), Reason: "must not be negative"}
		}
	}

	if len(f.RiskProfiles) == 0 {
		return &ConfigurationError{Field: "riskProfiles", Reason: "must define at least one profile"}
	}
	for _, name := range f.ProfileNames() {
		if err := validateRiskProfile(name, f.RiskProfiles[name]); err != nil {
			return err
		}
	}

	return nil
}

// ProfileNames returns the configured risk profile names in sorted order.
func (f FeeConfiguration) ProfileNames() []string {
	names := make([]string, 0, len(f.RiskProfiles))
	for name := range f.RiskProfiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func validateFeeRange(field string, r FeeRange, ceiling float64) error {
	switch {
	case !mathutil.IsFinite(r.Max) || !mathutil.IsFinite(r.Min) || !mathutil.IsFinite(r.Step):
		return &ConfigurationError{Field: field, Reason: "must be finite"}
	case r.Min < 0:
		return &ConfigurationError{Field: field + ".min", Reason: "must not be negative"}
	case r.Max < r.Min:
		return &ConfigurationError{Field: field + ".max", Reason: fmt.Sprintf("%.4f is below min %.4f", r.Max, r.Min)}
	case r.Max >= ceiling:
		return &ConfigurationError{Field: field + ".max", Reason: fmt.Sprintf("must be below %.2f", ceiling)}
	case r.Max > r.Min && r.Step <= 0:
		return &ConfigurationError{Field: field + ".step", Reason: "must be positive"}
	}
	return nil
}

func validateBonusRange(field string, r BonusRange) error {
	switch {
	case !mathutil.IsFinite(r.Max) || !mathutil.IsFinite(r.Min) || !mathutil.IsFinite(r.Step):
		return &ConfigurationError{Field: field, Reason: "must be finite"}
	case r.Min < 0:
		return &ConfigurationError{Field: field + ".min", Reason: "must not be negative"}
	case r.Max < r.Min:
		return &ConfigurationError{Field: field + ".max", Reason: fmt.Sprintf("%.2f is below min %.2f", r.Max, r.Min)}
	case r.Max > r.Min && r.Step <= 0:
		return &ConfigurationError{Field: field + ".step", Reason: "must be positive"}
	}
	return nil
}

func validateRiskProfile(name string, risk RiskProfile) error {
	field := "riskProfiles." + name
	if !validRate(risk.Rate) {
		return &ConfigurationError{Field: field + ".rate", Reason: "must be a non-negative rate"}
	}
	for term, rate := range risk.TermRates {
		if !validRate(rate) {
			return &ConfigurationError{Field: fmt.Sprintf("%s.termRates[%d]", field, term), Reason: "must be a non-negative rate"}
		}
	}
	if !validShare(risk.MinDownPayment) {
		return &ConfigurationError{Field: field + ".minDownPayment", Reason: "must be in [0, 1]"}
	}
	for term, pct := range risk.TermMinDownPayment {
		if !validShare(pct) {
			return &ConfigurationError{Field: fmt.Sprintf("%s.termMinDownPayment[%d]", field, term), Reason: "must be in [0, 1]"}
		}
	}
	return nil
}

func validRate(rate float64) bool {
	return mathutil.IsFinite(rate) && rate >= 0
}

func validShare(pct float64) bool {
	return mathutil.IsFinite(pct) && pct >= 0 && pct <= 1
}

// DefaultTerms returns a copy of the fixed commercial term order.
func DefaultTerms() []int {
	return append([]int(nil), constants.DefaultTermOrder...)
}
