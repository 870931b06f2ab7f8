package amortization

import (
	"testing"

	"github.com/iwvelando/trade-up/pkg/pricing"
	"github.com/iwvelando/trade-up/pkg/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func scenarioOffer(t *testing.T, term int, concession pricing.Concession) pricing.Offer {
	t.Helper()
	fees := testutil.ScenarioFees()
	attempt := pricing.Evaluate(testutil.ScenarioCustomer(), testutil.Vehicle("v1", 1.3), fees, term, concession)
	require.NotEqual(t, pricing.RejectLoanNotPositive, attempt.Rejection)
	return pricing.Offer{
		CustomerID:     "customer-1",
		Vehicle:        testutil.Vehicle("v1", 1.3),
		Phase:          pricing.PhaseMaxProfit,
		Structure:      attempt.Structure,
		MonthlyPayment: attempt.Payment.MonthlyPayment,
		NPV:            attempt.NPV,
	}
}

func maxProfit() pricing.Concession {
	return pricing.Concession{ServiceFeePct: 0.04, CXAPct: 0.04}
}

func TestBuildRowsReconcile(t *testing.T) {
	offer := scenarioOffer(t, 60, maxProfit())

	table, err := NewGenerator(zap.NewNop()).Build(offer)
	require.NoError(t, err)
	require.Len(t, table.Rows, 60, "schedule should cover every month of the term")

	for _, row := range table.Rows {
		sum := row.Capital.Add(row.Interest).Add(row.Charges).Add(row.Tax)
		assert.True(t, sum.Equal(row.TotalPayment),
			"month %d: capital+interest+charges+tax = %s, total = %s", row.Month, sum, row.TotalPayment)
		assert.True(t, row.OpeningBalance.Sub(row.Capital).Equal(row.ClosingBalance),
			"month %d: opening %s - capital %s != closing %s", row.Month, row.OpeningBalance, row.Capital, row.ClosingBalance)
		expectedTax := row.Interest.Add(row.Charges).Mul(decimal.NewFromFloat(0.16)).Round(2)
		assert.True(t, expectedTax.Equal(row.Tax), "month %d: tax %s, expected %s", row.Month, row.Tax, expectedTax)
		assert.Equal(t, row.Capital.Round(2).String(), row.Capital.String(), "month %d capital is not in cents", row.Month)
	}

	last := table.Rows[len(table.Rows)-1]
	assert.True(t, last.ClosingBalance.IsZero(), "final balance should be zero, got %s", last.ClosingBalance)
}

func TestBuildPrincipalSumsToFinancedTotal(t *testing.T) {
	offer := scenarioOffer(t, 60, maxProfit())

	table, err := NewGenerator(nil).Build(offer)
	require.NoError(t, err)

	totals := table.Totals()
	assert.True(t, totals.Capital.Equal(table.FinancedTotal),
		"capital sums to %s, financed total is %s", totals.Capital, table.FinancedTotal)

	// 124066.19 + 14560 + 25000 + 5 x 10999 + 750
	assert.Equal(t, "219371.19", table.FinancedTotal.StringFixed(2))
	assert.InDelta(t, offer.Structure.FinancedTotal(), table.FinancedTotal.InexactFloat64(), 0.05)
}

func TestBuildFirstMonth(t *testing.T) {
	offer := scenarioOffer(t, 60, maxProfit())

	table, err := NewGenerator(nil).Build(offer)
	require.NoError(t, err)

	first := table.Rows[0]
	second := table.Rows[1]

	// Month 1 carries the 750 installation fee as capital, not as a charge.
	assert.Equal(t, "350", first.Charges.String())
	componentPrincipal := decimal.Zero
	for _, share := range first.Shares {
		componentPrincipal = componentPrincipal.Add(share.Principal)
	}
	assert.Equal(t, "750.00", first.Capital.Sub(componentPrincipal).StringFixed(2))
	assert.Equal(t, "1095.09", first.Shares[0].Principal.StringFixed(2))

	// Only the first insurance cycle is outstanding on day one.
	assert.Equal(t, "175375.19", first.OpeningBalance.StringFixed(2))
	assert.True(t, second.OpeningBalance.Equal(first.ClosingBalance))

	// Interest in month 1: 2118.43 + 248.61 + 426.88 + 187.81
	assert.Equal(t, "2981.73", first.Interest.StringFixed(2))
	assert.Len(t, first.Shares, 4)

	// Month 1 total equals the calculator's first month within rounding.
	assert.InDelta(t, 6880.05, first.TotalPayment.InexactFloat64(), 0.05)
	assert.InDelta(t, offer.MonthlyPayment, second.TotalPayment.InexactFloat64(), 0.05)
}

func TestBuildInsuranceRestartsEveryTwelveMonths(t *testing.T) {
	offer := scenarioOffer(t, 60, maxProfit())

	table, err := NewGenerator(nil).Build(offer)
	require.NoError(t, err)

	for _, month := range []int{13, 25, 37, 49} {
		row := table.Rows[month-1]
		previous := table.Rows[month-2]
		var insurance Share
		for _, share := range row.Shares {
			if share.Name == pricing.ComponentInsurance {
				insurance = share
			}
		}
		assert.Equal(t, "187.81", insurance.Interest.StringFixed(2), "month %d should restart insurance interest", month)
		assert.True(t, row.OpeningBalance.Sub(previous.ClosingBalance).Equal(decimal.NewFromInt(10999)),
			"month %d should open with a fresh 10999 insurance balance", month)
	}
}

func TestBuildConcessionOffer(t *testing.T) {
	offer := scenarioOffer(t, 36, pricing.Concession{CXAPct: 0.02, CACBonus: 25000})

	table, err := NewGenerator(nil).Build(offer)
	require.NoError(t, err)
	require.Len(t, table.Rows, 36)

	for _, row := range table.Rows {
		for _, share := range row.Shares {
			assert.NotEqual(t, pricing.ComponentServiceFee, share.Name, "no service fee was charged")
		}
	}
	assert.True(t, table.Totals().Capital.Equal(table.FinancedTotal))
}

func TestBuildRejectsInvalidOffer(t *testing.T) {
	_, err := NewGenerator(nil).Build(pricing.Offer{Vehicle: pricing.VehicleCandidate{ID: "v1"}})
	assert.Error(t, err)

	_, err = NewGenerator(nil).Build(pricing.Offer{Structure: pricing.LoanStructure{Term: 12}})
	assert.Error(t, err)
}
