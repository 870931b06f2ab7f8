package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/trade-up/pkg/constants"
	"github.com/iwvelando/trade-up/pkg/pricing"
	"gopkg.in/yaml.v3"
)

// FeesConfig is the fees section of the config file. Required values are
// pointers so that an omitted key can be told apart from an explicit zero.
// Per-term values are lists rather than maps because viper lower-cases map
// keys.
type FeesConfig struct {
	ServiceFee     RangeConfig         `yaml:"serviceFee" mapstructure:"serviceFee"`
	CXA            RangeConfig         `yaml:"cxa" mapstructure:"cxa"`
	CACBonus       BonusConfig         `yaml:"cacBonus" mapstructure:"cacBonus"`
	KavakTotal     KavakTotalConfig    `yaml:"kavakTotal" mapstructure:"kavakTotal"`
	GPS            GPSConfig           `yaml:"gps" mapstructure:"gps"`
	Insurance      InsuranceConfig     `yaml:"insurance" mapstructure:"insurance"`
	IVARate        *float64            `yaml:"ivaRate" mapstructure:"ivaRate"`
	MinimumNPV     *float64            `yaml:"minimumNpv" mapstructure:"minimumNpv"`
	Terms          []int               `yaml:"terms,omitempty" mapstructure:"terms"`
	TermRateAddOns []TermValue         `yaml:"termRateAddOns,omitempty" mapstructure:"termRateAddOns"`
	RiskProfiles   []RiskProfileConfig `yaml:"riskProfiles" mapstructure:"riskProfiles"`
}

// RangeConfig is a percentage fee conceded from Max down to Min.
type RangeConfig struct {
	Max  *float64 `yaml:"max" mapstructure:"max"`
	Min  float64  `yaml:"min" mapstructure:"min"`
	Step float64  `yaml:"step,omitempty" mapstructure:"step"`
}

// BonusConfig is the CAC bonus offered from Min up to Max.
type BonusConfig struct {
	Min  float64  `yaml:"min" mapstructure:"min"`
	Max  *float64 `yaml:"max" mapstructure:"max"`
	Step float64  `yaml:"step,omitempty" mapstructure:"step"`
}

// KavakTotalConfig toggles the financed protection package.
type KavakTotalConfig struct {
	Enabled bool    `yaml:"enabled" mapstructure:"enabled"`
	Amount  float64 `yaml:"amount" mapstructure:"amount"`
}

// GPSConfig holds the GPS installation fee and the pre-tax monthly charge.
type GPSConfig struct {
	Installation *float64 `yaml:"installation" mapstructure:"installation"`
	Monthly      *float64 `yaml:"monthly" mapstructure:"monthly"`
}

// InsuranceConfig holds the insurance premium financed each cycle.
type InsuranceConfig struct {
	Amount      *float64 `yaml:"amount" mapstructure:"amount"`
	CycleMonths int      `yaml:"cycleMonths" mapstructure:"cycleMonths"`
}

// TermValue is a value that applies to one loan term.
type TermValue struct {
	Term  int     `yaml:"term" mapstructure:"term"`
	Value float64 `yaml:"value" mapstructure:"value"`
}

// RiskProfileConfig is one risk profile entry.
type RiskProfileConfig struct {
	Name               string      `yaml:"name" mapstructure:"name"`
	Rate               *float64    `yaml:"rate" mapstructure:"rate"`
	TermRates          []TermValue `yaml:"termRates,omitempty" mapstructure:"termRates"`
	MinDownPayment     *float64    `yaml:"minDownPayment" mapstructure:"minDownPayment"`
	TermMinDownPayment []TermValue `yaml:"termMinDownPayment,omitempty" mapstructure:"termMinDownPayment"`
}

// Normalize applies the fee defaults before validation.
func (f *FeesConfig) Normalize() {
	if f == nil {
		return
	}
	if f.Insurance.CycleMonths == 0 {
		f.Insurance.CycleMonths = constants.DefaultInsuranceCycleMonths
	}
	if len(f.Terms) == 0 {
		f.Terms = pricing.DefaultTerms()
	}
	// An omitted step concedes the whole range in a single rung.
	f.ServiceFee.defaultStep()
	f.CXA.defaultStep()
	if f.CACBonus.Step == 0 && f.CACBonus.Max != nil && *f.CACBonus.Max > f.CACBonus.Min {
		f.CACBonus.Step = *f.CACBonus.Max - f.CACBonus.Min
	}
	for i := range f.RiskProfiles {
		f.RiskProfiles[i].Name = strings.TrimSpace(f.RiskProfiles[i].Name)
	}
}

func (r *RangeConfig) defaultStep() {
	if r.Step == 0 && r.Max != nil && *r.Max > r.Min {
		r.Step = *r.Max - r.Min
	}
}

// FeeConfiguration converts the fees section into a validated
// pricing.FeeConfiguration. The first missing or invalid value is returned as
// a *pricing.ConfigurationError.
func (c *Configuration) FeeConfiguration() (pricing.FeeConfiguration, error) {
	f := c.Fees
	required := []struct {
		field string
		value *float64
	}{
		{"serviceFee.max", f.ServiceFee.Max},
		{"cxa.max", f.CXA.Max},
		{"cacBonus.max", f.CACBonus.Max},
		{"gps.installation", f.GPS.Installation},
		{"gps.monthly", f.GPS.Monthly},
		{"insurance.amount", f.Insurance.Amount},
		{"ivaRate", f.IVARate},
		{"minimumNpv", f.MinimumNPV},
	}
	for _, r := range required {
		if r.value == nil {
			return pricing.FeeConfiguration{}, missing(r.field)
		}
	}

	addOns, err := termValues("termRateAddOns", f.TermRateAddOns)
	if err != nil {
		return pricing.FeeConfiguration{}, err
	}
	profiles, err := riskProfiles(f.RiskProfiles)
	if err != nil {
		return pricing.FeeConfiguration{}, err
	}

	fees := pricing.FeeConfiguration{
		ServiceFee:           pricing.FeeRange{Max: *f.ServiceFee.Max, Min: f.ServiceFee.Min, Step: f.ServiceFee.Step},
		CXA:                  pricing.FeeRange{Max: *f.CXA.Max, Min: f.CXA.Min, Step: f.CXA.Step},
		CACBonus:             pricing.BonusRange{Min: f.CACBonus.Min, Max: *f.CACBonus.Max, Step: f.CACBonus.Step},
		KavakTotalEnabled:    f.KavakTotal.Enabled,
		KavakTotalAmount:     f.KavakTotal.Amount,
		GPSInstallation:      *f.GPS.Installation,
		GPSMonthly:           *f.GPS.Monthly,
		InsuranceAmount:      *f.Insurance.Amount,
		InsuranceCycleMonths: f.Insurance.CycleMonths,
		IVARate:              *f.IVARate,
		MinimumNPV:           *f.MinimumNPV,
		Terms:                append([]int(nil), f.Terms...),
		TermRateAddOns:       addOns,
		RiskProfiles:         profiles,
	}
	if err := fees.Validate(); err != nil {
		return pricing.FeeConfiguration{}, err
	}
	return fees, nil
}

// WriteFees writes the fees section, with defaults applied, as YAML.
func (c *Configuration) WriteFees(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(map[string]FeesConfig{"fees": c.Fees}); err != nil {
		return fmt.Errorf("unable to encode fees: %w", err)
	}
	return encoder.Close()
}

func riskProfiles(entries []RiskProfileConfig) (map[string]pricing.RiskProfile, error) {
	profiles := make(map[string]pricing.RiskProfile, len(entries))
	for i, entry := range entries {
		field := fmt.Sprintf("riskProfiles[%d]", i)
		switch {
		case entry.Name == "":
			return nil, missing(field + ".name")
		case entry.Rate == nil:
			return nil, missing(field + ".rate")
		case entry.MinDownPayment == nil:
			return nil, missing(field + ".minDownPayment")
		}
		if _, ok := profiles[entry.Name]; ok {
			return nil, &pricing.ConfigurationError{Field: field + ".name", Reason: fmt.Sprintf("duplicates profile %q", entry.Name)}
		}

		termRates, err := termValues(field+".termRates", entry.TermRates)
		if err != nil {
			return nil, err
		}
		termDown, err := termValues(field+".termMinDownPayment", entry.TermMinDownPayment)
		if err != nil {
			return nil, err
		}
		profiles[entry.Name] = pricing.RiskProfile{
			Rate:               *entry.Rate,
			TermRates:          termRates,
			MinDownPayment:     *entry.MinDownPayment,
			TermMinDownPayment: termDown,
		}
	}
	return profiles, nil
}

func termValues(field string, entries []TermValue) (map[int]float64, error) {
	values := make(map[int]float64, len(entries))
	for _, entry := range entries {
		if entry.Term <= 0 {
			return nil, &pricing.ConfigurationError{Field: field, Reason: fmt.Sprintf("has non-positive term %d", entry.Term)}
		}
		if _, ok := values[entry.Term]; ok {
			return nil, &pricing.ConfigurationError{Field: field, Reason: fmt.Sprintf("lists term %d twice", entry.Term)}
		}
		values[entry.Term] = entry.Value
	}
	return values, nil
}

func missing(field string) error {
	return &pricing.ConfigurationError{Field: field, Reason: "is required"}
}
