// Package amortization expands an accepted offer into its full month-by-month
// schedule. Amounts are kept as cent-rounded decimals so that every row
// reconciles exactly.
package amortization

import (
	"fmt"

	"github.com/iwvelando/trade-up/pkg/constants"
	"github.com/iwvelando/trade-up/pkg/loans"
	"github.com/iwvelando/trade-up/pkg/mathutil"
	"github.com/iwvelando/trade-up/pkg/pricing"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Share is one component's contribution to a row.
type Share struct {
	Name      string
	Principal decimal.Decimal
	Interest  decimal.Decimal
}

// Row holds the values for a given month. TotalPayment is always
// Capital + Interest + Charges + Tax.
type Row struct {
	Month          int
	OpeningBalance decimal.Decimal
	Capital        decimal.Decimal
	Interest       decimal.Decimal
	Charges        decimal.Decimal
	Tax            decimal.Decimal
	TotalPayment   decimal.Decimal
	ClosingBalance decimal.Decimal
	Shares         []Share
}

// Table is the complete schedule for one offer.
type Table struct {
	CustomerID    string
	VehicleID     string
	Term          int
	Rows          []Row
	FinancedTotal decimal.Decimal
}

// Totals sums every column of the schedule. Balances are left at zero.
func (t Table) Totals() Row {
	var totals Row
	for _, row := range t.Rows {
		totals.Capital = totals.Capital.Add(row.Capital)
		totals.Interest = totals.Interest.Add(row.Interest)
		totals.Charges = totals.Charges.Add(row.Charges)
		totals.Tax = totals.Tax.Add(row.Tax)
		totals.TotalPayment = totals.TotalPayment.Add(row.TotalPayment)
	}
	return totals
}

type track struct {
	component    loans.Component
	amount       decimal.Decimal
	installments []loans.Installment
	balance      decimal.Decimal
}

// Generator builds amortization tables.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a new generator instance
func NewGenerator(logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{logger: logger}
}

// Build creates the amortization table for an accepted offer.
func (g *Generator) Build(offer pricing.Offer) (*Table, error) {
	s := offer.Structure
	if s.Term <= 0 {
		return nil, fmt.Errorf("offer for vehicle %s has invalid term %d", offer.Vehicle.ID, s.Term)
	}
	if s.InsuranceCycle <= 0 && s.Insurance > 0 {
		return nil, fmt.Errorf("offer for vehicle %s has invalid insurance cycle %d", offer.Vehicle.ID, s.InsuranceCycle)
	}
	if s.MainLoan <= 0 {
		return nil, fmt.Errorf("offer for vehicle %s has no financed amount", offer.Vehicle.ID)
	}

	var tracks []*track
	for _, component := range s.Components() {
		tracks = append(tracks, &track{
			component:    component,
			amount:       mathutil.Cents(component.Amount),
			installments: loans.GenerateSchedule(component, s.InterestRate, s.IVARate, s.Term),
		})
	}

	installation := mathutil.Cents(s.GPSInstallation)
	charges := mathutil.Cents(s.GPSMonthly)
	iva := decimal.NewFromFloat(s.IVARate)

	table := &Table{
		CustomerID:    offer.CustomerID,
		VehicleID:     offer.Vehicle.ID,
		Term:          s.Term,
		Rows:          make([]Row, 0, s.Term),
		FinancedTotal: installation,
	}

	for month := 1; month <= s.Term; month++ {
		row := Row{Month: month, Charges: charges}
		if month == 1 {
			// The GPS installation is collected once, as capital.
			row.OpeningBalance = installation
			row.Capital = installation
		}

		for _, t := range tracks {
			if month > len(t.installments) {
				continue
			}
			installment := t.installments[month-1]
			cycleMonth := (month-1)%t.component.TermMonths + 1
			if cycleMonth == 1 {
				t.balance = t.amount
				table.FinancedTotal = table.FinancedTotal.Add(t.amount)
			}
			row.OpeningBalance = row.OpeningBalance.Add(t.balance)

			principal := mathutil.Cents(installment.Principal)
			if cycleMonth == t.component.TermMonths || month == len(t.installments) || principal.GreaterThan(t.balance) {
				principal = t.balance
			}
			interest := mathutil.Cents(installment.Interest)
			t.balance = t.balance.Sub(principal)

			row.Capital = row.Capital.Add(principal)
			row.Interest = row.Interest.Add(interest)
			row.ClosingBalance = row.ClosingBalance.Add(t.balance)
			row.Shares = append(row.Shares, Share{Name: t.component.Name, Principal: principal, Interest: interest})
		}

		row.Tax = row.Interest.Add(row.Charges).Mul(iva).Round(constants.CurrencyPlaces)
		row.TotalPayment = row.Capital.Add(row.Interest).Add(row.Charges).Add(row.Tax)
		table.Rows = append(table.Rows, row)
	}

	g.logger.Debug(fmt.Sprintf("built %d-month amortization table for vehicle %s", s.Term, offer.Vehicle.ID),
		zap.String("op", "amortization.Build"),
		zap.String("customer", offer.CustomerID),
		zap.String("financedTotal", table.FinancedTotal.StringFixed(2)),
	)

	return table, nil
}
