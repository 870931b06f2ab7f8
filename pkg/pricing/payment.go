package pricing

import (
	"github.com/iwvelando/trade-up/pkg/constants"
	"github.com/iwvelando/trade-up/pkg/loans"
	"github.com/iwvelando/trade-up/pkg/mathutil"
)

// ComponentPayment is one amortized component's share of the first year.
type ComponentPayment struct {
	Name         string
	Payment      float64
	Installments []loans.Installment
}

// PaymentBreakdown is the customer's payment over the first twelve months.
// MonthlyPayment is the recurring amount; FirstMonthPayment adds the one-off
// GPS installation.
type PaymentBreakdown struct {
	MonthlyPayment    float64
	FirstMonthPayment float64
	Charges           float64
	ChargesTax        float64
	Components        []ComponentPayment
}

// Attempt is the outcome of pricing one loan structure.
type Attempt struct {
	Structure LoanStructure
	Payment   PaymentBreakdown
	NPV       float64
	Rejection Rejection
}

// Viable reports whether the attempt passed every acceptance check.
func (a Attempt) Viable() bool {
	return a.Rejection == Accepted
}

// BuildStructure resolves the loan for a term and concession level.
//
// The CXA is a share of the main loan and is itself deducted from equity, so
// the main loan L satisfies L = price - (equity + CAC - cxaPct*L), i.e.
// L = (price - equity - CAC) / (1 - cxaPct).
func BuildStructure(customer CustomerSnapshot, vehicle VehicleCandidate, fees FeeConfiguration,
	term int, concession Concession) (LoanStructure, Rejection) {
	rate, ok := fees.InterestRate(customer.RiskProfile, term)
	if !ok {
		return LoanStructure{}, RejectUnknownProfile
	}

	mainLoan := (vehicle.Price - customer.VehicleEquity - concession.CACBonus) / (1 - concession.CXAPct)
	if !mathutil.IsFinite(mainLoan) || mainLoan <= 0 {
		return LoanStructure{}, RejectLoanNotPositive
	}

	structure := LoanStructure{
		Term:            term,
		ServiceFeePct:   concession.ServiceFeePct,
		ServiceFee:      concession.ServiceFeePct * vehicle.Price,
		CXAPct:          concession.CXAPct,
		CXA:             concession.CXAPct * mainLoan,
		CACBonus:        concession.CACBonus,
		KavakTotal:      fees.KavakTotal(),
		Insurance:       fees.InsuranceAmount,
		InsuranceCycle:  fees.InsuranceCycleMonths,
		GPSInstallation: fees.GPSInstallation,
		GPSMonthly:      fees.GPSMonthly,
		InterestRate:    rate,
		IVARate:         fees.IVARate,
		MainLoan:        mainLoan,
	}
	structure.EffectiveEquity = customer.VehicleEquity + structure.CACBonus - structure.CXA
	structure.LoanAmount = structure.MainLoan + structure.ServiceFee + structure.KavakTotal + structure.Insurance

	return structure, Accepted
}

// CalculatePayment computes the bucketized payment for the first twelve
// months (or the whole term when shorter).
func CalculatePayment(s LoanStructure) (PaymentBreakdown, Rejection) {
	months := constants.MonthsPerYear
	if s.Term < months {
		months = s.Term
	}

	var breakdown PaymentBreakdown
	for _, component := range s.Components() {
		schedule := loans.GenerateSchedule(component, s.InterestRate, s.IVARate, months)
		if len(schedule) == 0 {
			continue
		}
		breakdown.Components = append(breakdown.Components, ComponentPayment{
			Name:         component.Name,
			Payment:      schedule[0].Payment,
			Installments: schedule,
		})
		breakdown.MonthlyPayment += schedule[0].Payment
	}

	breakdown.Charges = s.GPSMonthly
	breakdown.ChargesTax = s.GPSMonthly * s.IVARate
	breakdown.MonthlyPayment += breakdown.Charges + breakdown.ChargesTax
	breakdown.FirstMonthPayment = breakdown.MonthlyPayment + s.GPSInstallation

	if !mathutil.IsFinite(breakdown.MonthlyPayment) || breakdown.MonthlyPayment < 0 {
		return breakdown, RejectPaymentNotFinite
	}
	return breakdown, Accepted
}

// Evaluate prices one structure end to end: it runs the payment and NPV
// calculators and then applies the equity, affordability and profitability
// checks, in that order.
func Evaluate(customer CustomerSnapshot, vehicle VehicleCandidate, fees FeeConfiguration,
	term int, concession Concession) Attempt {
	structure, rejection := BuildStructure(customer, vehicle, fees, term, concession)
	if rejection != Accepted {
		return Attempt{Structure: structure, Rejection: rejection}
	}

	payment, paymentRejection := CalculatePayment(structure)
	attempt := Attempt{
		Structure: structure,
		Payment:   payment,
		NPV:       CalculateNPV(structure),
	}

	required, _ := fees.RequiredDownPaymentPct(customer.RiskProfile, term)
	switch {
	case structure.EffectiveEquity < vehicle.Price*required:
		attempt.Rejection = RejectInsufficientEquity
	case paymentRejection != Accepted:
		attempt.Rejection = paymentRejection
	case !mathutil.IsFinite(attempt.NPV) || attempt.NPV < fees.MinimumNPV:
		attempt.Rejection = RejectNPVBelowMinimum
	}
	return attempt
}
