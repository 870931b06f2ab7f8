package pricing

import "github.com/iwvelando/trade-up/pkg/loans"

// CalculateNPV returns the lender's net present value of the structure's
// interest stream. Monthly interest is projected at the tax-exclusive rate
// over the whole term, insurance cycles included, and discounted at the
// tax-inclusive rate.
func CalculateNPV(s LoanStructure) float64 {
	if s.Term <= 0 {
		return 0
	}

	interest := make([]float64, s.Term)
	for _, component := range s.Components() {
		for _, installment := range loans.GenerateSchedule(component, s.InterestRate, s.IVARate, s.Term) {
			interest[installment.Month-1] += installment.Interest
		}
	}

	discountRate := loans.MonthlyRate(loans.TaxInclusiveRate(s.InterestRate, s.IVARate))
	npv := 0.0
	factor := 1.0
	for _, flow := range interest {
		factor *= 1 + discountRate
		npv += flow / factor
	}
	return npv
}
