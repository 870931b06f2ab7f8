// Package loans provides common loan amortization utilities.
package loans

import (
	"math"

	"github.com/iwvelando/trade-up/pkg/constants"
)

// Installment holds the values for one month of a single amortized component.
type Installment struct {
	Month              int
	Payment            float64
	Principal          float64
	Interest           float64
	Tax                float64
	RemainingPrincipal float64
}

// Component is an amount amortized independently from the rest of the loan.
// A recurring component restarts its own schedule every TermMonths months for
// as long as the caller keeps asking for installments.
type Component struct {
	Name       string
	Amount     float64
	TermMonths int
	Recurring  bool
}

// MonthlyRate converts an annual rate expressed as a fraction into a monthly rate.
func MonthlyRate(annualRate float64) float64 {
	return annualRate / constants.MonthsPerYear
}

// TaxInclusiveRate returns the annual rate the customer actually pays once IVA
// is charged on interest.
func TaxInclusiveRate(annualRate, ivaRate float64) float64 {
	return annualRate * (1 + ivaRate)
}

// CalculateMonthlyPayment calculates the level payment for a loan using the standard amortization formula.
func CalculateMonthlyPayment(principal, monthlyRate float64, termMonths int) float64 {
	if termMonths <= 0 || principal <= 0 {
		return 0
	}
	if monthlyRate == 0 {
		// For zero interest, simply divide the principal by term
		return principal / float64(termMonths)
	}

	power := math.Pow(1.00+monthlyRate, float64(termMonths))
	discountFactor := (power - 1.00) / power
	return principal * monthlyRate / discountFactor
}

// CalculateInterestPayment calculates the tax-exclusive interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, annualRate float64) float64 {
	return remainingPrincipal * MonthlyRate(annualRate)
}

// GenerateSchedule produces the first months installments of a component.
// The level payment is computed at the tax-inclusive rate; each installment
// splits it into tax-exclusive interest, the IVA on that interest and
// principal. A non-recurring component stops once its term is paid off.
func GenerateSchedule(c Component, annualRate, ivaRate float64, months int) []Installment {
	if c.Amount <= 0 || c.TermMonths <= 0 || months <= 0 {
		return nil
	}

	payment := CalculateMonthlyPayment(c.Amount, MonthlyRate(TaxInclusiveRate(annualRate, ivaRate)), c.TermMonths)
	schedule := make([]Installment, 0, months)
	balance := 0.0

	for month := 1; month <= months; month++ {
		cycleMonth := (month-1)%c.TermMonths + 1
		if cycleMonth == 1 {
			if month > 1 && !c.Recurring {
				break
			}
			balance = c.Amount
		}

		var current Installment
		current.Month = month
		current.Interest = CalculateInterestPayment(balance, annualRate)
		current.Tax = current.Interest * ivaRate
		current.Principal = payment - current.Interest - current.Tax
		if cycleMonth == c.TermMonths {
			// Absorb floating point drift so every cycle closes at exactly zero.
			current.Principal = balance
		}
		current.Payment = current.Principal + current.Interest + current.Tax
		balance -= current.Principal
		if cycleMonth == c.TermMonths {
			balance = 0
		}
		current.RemainingPrincipal = balance
		schedule = append(schedule, current)
	}

	return schedule
}

// Cycles returns how many times a component restarts over a loan of termMonths.
func Cycles(c Component, termMonths int) int {
	if c.TermMonths <= 0 || termMonths <= 0 {
		return 0
	}
	if !c.Recurring {
		return 1
	}
	return (termMonths + c.TermMonths - 1) / c.TermMonths
}
