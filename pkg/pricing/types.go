// Package pricing holds the trade-up data model and the pure pricing
// functions used by the offer search: the component payment calculator and
// the lender NPV calculator.
package pricing

import (
	"strings"

	"github.com/iwvelando/trade-up/pkg/loans"
	"github.com/iwvelando/trade-up/pkg/mathutil"
	"github.com/iwvelando/trade-up/pkg/tiers"
)

// Component names used on payment breakdowns and amortization rows.
const (
	ComponentMainLoan   = "main_loan"
	ComponentServiceFee = "service_fee"
	ComponentKavakTotal = "kavak_total"
	ComponentInsurance  = "insurance"
)

// CustomerSnapshot is the customer's current loan position.
type CustomerSnapshot struct {
	ID                    string  `yaml:"id" json:"id"`
	CurrentMonthlyPayment float64 `yaml:"currentMonthlyPayment" json:"currentMonthlyPayment"`
	VehicleEquity         float64 `yaml:"vehicleEquity" json:"vehicleEquity"`
	CurrentVehiclePrice   float64 `yaml:"currentVehiclePrice" json:"currentVehiclePrice"`
	RiskProfile           string  `yaml:"riskProfile" json:"riskProfile"`
	OutstandingBalance    float64 `yaml:"outstandingBalance" json:"outstandingBalance"`
}

// Validate checks the snapshot before any search is attempted.
func (c CustomerSnapshot) Validate() error {
	invalid := func(field, reason string) error {
		return &ValidationError{Entity: "customer", ID: c.ID, Field: field, Reason: reason}
	}
	switch {
	case strings.TrimSpace(c.ID) == "":
		return invalid("id", "is required")
	case !mathutil.IsFinite(c.CurrentMonthlyPayment) || c.CurrentMonthlyPayment <= 0:
		return invalid("currentMonthlyPayment", "must be positive")
	case !mathutil.IsFinite(c.VehicleEquity):
		return invalid("vehicleEquity", "must be a finite amount")
	case !mathutil.IsFinite(c.CurrentVehiclePrice) || c.CurrentVehiclePrice <= 0:
		return invalid("currentVehiclePrice", "must be positive")
	case strings.TrimSpace(c.RiskProfile) == "":
		return invalid("riskProfile", "is required")
	case !mathutil.IsFinite(c.OutstandingBalance) || c.OutstandingBalance < 0:
		return invalid("outstandingBalance", "must not be negative")
	}
	return nil
}

// VehicleCandidate is a vehicle the customer could trade up to. Only Price
// takes part in the financial math; the rest is carried through to offers.
type VehicleCandidate struct {
	ID      string  `yaml:"id" json:"id"`
	Price   float64 `yaml:"price" json:"price"`
	Make    string  `yaml:"make" json:"make,omitempty"`
	Model   string  `yaml:"model" json:"model,omitempty"`
	Year    int     `yaml:"year" json:"year,omitempty"`
	Mileage int     `yaml:"mileage" json:"mileage,omitempty"`
}

// Validate checks the vehicle before any search is attempted.
func (v VehicleCandidate) Validate() error {
	switch {
	case strings.TrimSpace(v.ID) == "":
		return &ValidationError{Entity: "vehicle", Field: "id", Reason: "is required"}
	case !mathutil.IsFinite(v.Price) || v.Price <= 0:
		return &ValidationError{Entity: "vehicle", ID: v.ID, Field: "price", Reason: "must be positive"}
	case v.Mileage < 0:
		return &ValidationError{Entity: "vehicle", ID: v.ID, Field: "mileage", Reason: "must not be negative"}
	}
	return nil
}

// Concession is one fee level: the percentages and bonus a structure is built with.
type Concession struct {
	ServiceFeePct float64
	CXAPct        float64
	CACBonus      float64
}

// LoanStructure is a fully resolved candidate loan for one term and concession.
type LoanStructure struct {
	Term            int
	ServiceFeePct   float64
	ServiceFee      float64
	CXAPct          float64
	CXA             float64
	CACBonus        float64
	KavakTotal      float64
	Insurance       float64
	InsuranceCycle  int
	GPSInstallation float64
	GPSMonthly      float64
	InterestRate    float64
	IVARate         float64
	MainLoan        float64
	LoanAmount      float64
	EffectiveEquity float64
}

// Components lists the independently amortized pieces of the structure.
// Zero amounts are omitted.
func (s LoanStructure) Components() []loans.Component {
	all := []loans.Component{
		{Name: ComponentMainLoan, Amount: s.MainLoan, TermMonths: s.Term},
		{Name: ComponentServiceFee, Amount: s.ServiceFee, TermMonths: s.Term},
		{Name: ComponentKavakTotal, Amount: s.KavakTotal, TermMonths: s.Term},
		{Name: ComponentInsurance, Amount: s.Insurance, TermMonths: s.InsuranceCycle, Recurring: true},
	}
	components := make([]loans.Component, 0, len(all))
	for _, c := range all {
		if c.Amount > 0 && c.TermMonths > 0 {
			components = append(components, c)
		}
	}
	return components
}

// FinancedTotal is the principal repaid over the whole schedule: every
// amortized component including each insurance cycle, plus the GPS
// installation fee that is collected as capital in month 1.
func (s LoanStructure) FinancedTotal() float64 {
	total := s.GPSInstallation
	for _, c := range s.Components() {
		total += c.Amount * float64(loans.Cycles(c, s.Term))
	}
	return total
}

// Phase identifies which search phase accepted a structure.
type Phase string

const (
	PhaseMaxProfit  Phase = "max_profit"
	PhaseConcession Phase = "concession"
)

// Offer is a viable trade-up for one customer and vehicle.
type Offer struct {
	CustomerID        string           `json:"customerId"`
	Vehicle           VehicleCandidate `json:"vehicle"`
	Phase             Phase            `json:"phase"`
	Structure         LoanStructure    `json:"structure"`
	MonthlyPayment    float64          `json:"monthlyPayment"`
	FirstMonthPayment float64          `json:"firstMonthPayment"`
	CurrentPayment    float64          `json:"currentPayment"`
	NPV               float64          `json:"npv"`
	PaymentDelta      float64          `json:"paymentDelta"`
	Tier              tiers.Tier       `json:"tier,omitempty"`
}

// VehicleID returns the identifier of the offered vehicle.
func (o Offer) VehicleID() string {
	return o.Vehicle.ID
}

// Term returns the loan term in months.
func (o Offer) Term() int {
	return o.Structure.Term
}
