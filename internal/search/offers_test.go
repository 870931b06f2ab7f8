package search

import (
	"errors"
	"testing"

	"github.com/iwvelando/trade-up/pkg/pricing"
	"github.com/iwvelando/trade-up/pkg/testutil"
	"github.com/iwvelando/trade-up/pkg/tiers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOffersMaxProfitUpgrade(t *testing.T) {
	result, err := GenerateOffers(testutil.ScenarioCustomer(), []pricing.VehicleCandidate{testutil.Vehicle("v1", 1.3)}, testutil.ScenarioFees())
	require.NoError(t, err)

	assert.Equal(t, "customer-1", result.CustomerID)
	assert.Empty(t, result.ByTier[tiers.Refresh])
	assert.Empty(t, result.ByTier[tiers.MaxUpgrade])
	assert.Empty(t, result.OutOfRange)
	require.Len(t, result.ByTier[tiers.Upgrade], 1)

	offer := result.ByTier[tiers.Upgrade][0]
	assert.Equal(t, pricing.PhaseMaxProfit, offer.Phase)
	assert.Equal(t, 60, offer.Term())
	assert.Equal(t, "v1", offer.VehicleID())
	assert.InDelta(t, 6130.0507, offer.MonthlyPayment, 0.001)
	assert.InDelta(t, 6130.0507+750, offer.FirstMonthPayment, 0.001)
	assert.InDelta(t, 0.14973, offer.PaymentDelta, 1e-4)
	assert.InDelta(t, 71610.5047, offer.NPV, 0.001)
	assert.Equal(t, 5331.71, offer.CurrentPayment)
}

func TestGenerateOffersConcessionsOutOfRange(t *testing.T) {
	result, err := GenerateOffers(testutil.ScenarioCustomer(), []pricing.VehicleCandidate{testutil.Vehicle("v2", 2.5)}, testutil.ScenarioFees())
	require.NoError(t, err)

	assert.Zero(t, result.Count())
	require.Len(t, result.OutOfRange, 6)
	for _, offer := range result.OutOfRange {
		assert.Equal(t, pricing.PhaseConcession, offer.Phase)
		assert.Equal(t, 5000.0, offer.Structure.CACBonus)
		assert.Equal(t, 0.0, offer.Structure.ServiceFee)
		assert.Greater(t, offer.PaymentDelta, tiers.MaxUpgradeCeiling)
		assert.Empty(t, offer.Tier)
	}
	for i := 1; i < len(result.OutOfRange); i++ {
		assert.GreaterOrEqual(t, result.OutOfRange[i-1].NPV, result.OutOfRange[i].NPV)
	}
}

func TestGenerateOffersRanksByNPV(t *testing.T) {
	customer, vehicle, fees := highEquityCase()

	result, err := GenerateOffers(customer, []pricing.VehicleCandidate{vehicle}, fees)
	require.NoError(t, err)

	maxUpgrade := result.ByTier[tiers.MaxUpgrade]
	require.Len(t, maxUpgrade, 4)
	terms := make([]int, len(maxUpgrade))
	for i, offer := range maxUpgrade {
		terms[i] = offer.Term()
	}
	assert.Equal(t, []int{72, 60, 48, 36}, terms)
	assert.InDelta(t, 351640.4891, maxUpgrade[0].NPV, 0.001)

	require.Len(t, result.OutOfRange, 2)
	assert.Equal(t, 24, result.OutOfRange[0].Term())
	assert.Equal(t, 12, result.OutOfRange[1].Term())

	short := testutil.FindOffer(result.OutOfRange, "v-lux", 12)
	require.NotNil(t, short)
	assert.InDelta(t, 69119.8928, short.MonthlyPayment, 0.001)
	assert.InDelta(t, 3.607993, short.PaymentDelta, 1e-5)
	assert.Nil(t, testutil.FindOffer(maxUpgrade, "v-lux", 24))
}

func TestGenerateOffersMixedInventory(t *testing.T) {
	vehicles := []pricing.VehicleCandidate{
		testutil.Vehicle("v-same", 1.0),
		testutil.Vehicle("v1", 1.3),
		testutil.Vehicle("v-far", 3.0),
		testutil.Vehicle("v2", 2.5),
	}

	result, err := GenerateOffers(testutil.ScenarioCustomer(), vehicles, testutil.ScenarioFees())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Count())
	assert.Len(t, result.OutOfRange, 6)
	assert.Equal(t, []VehicleRejection{
		{VehicleID: "v-same", Reason: pricing.RejectPriceNotHigher},
		{VehicleID: "v-far", Reason: pricing.RejectEquityEveryTerm},
	}, result.Rejected)
	assert.Equal(t, 1+36, result.Attempts)
	assert.Len(t, result.Offers(), 1)
}

func TestGenerateOffersValidation(t *testing.T) {
	fees := testutil.ScenarioFees()
	valid := []pricing.VehicleCandidate{testutil.Vehicle("v1", 1.3)}

	tests := []struct {
		name     string
		customer func() pricing.CustomerSnapshot
		vehicles []pricing.VehicleCandidate
		field    string
	}{
		{
			name: "zero current payment",
			customer: func() pricing.CustomerSnapshot {
				c := testutil.ScenarioCustomer()
				c.CurrentMonthlyPayment = 0
				return c
			},
			vehicles: valid,
			field:    "currentMonthlyPayment",
		},
		{
			name: "unknown risk profile",
			customer: func() pricing.CustomerSnapshot {
				c := testutil.ScenarioCustomer()
				c.RiskProfile = "Z"
				return c
			},
			vehicles: valid,
			field:    "riskProfile",
		},
		{
			name:     "vehicle without price",
			customer: testutil.ScenarioCustomer,
			vehicles: []pricing.VehicleCandidate{testutil.Vehicle("v1", 1.3), {ID: "broken"}},
			field:    "price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := GenerateOffers(tt.customer(), tt.vehicles, fees)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, pricing.ErrInvalidInput))

			var validation *pricing.ValidationError
			require.True(t, errors.As(err, &validation))
			assert.Equal(t, tt.field, validation.Field)
		})
	}
}

func TestGenerateOffersEmptyInventory(t *testing.T) {
	result, err := GenerateOffers(testutil.ScenarioCustomer(), nil, testutil.ScenarioFees())
	require.NoError(t, err)
	assert.Zero(t, result.Count())
	for _, tier := range tiers.All {
		assert.NotNil(t, result.ByTier[tier])
	}
}
