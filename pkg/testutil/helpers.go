// Package testutil provides shared fixtures and lookups for tests.
package testutil

import (
	"github.com/iwvelando/trade-up/pkg/pricing"
)

// BaseCurrentPrice is the current vehicle price used by the reference scenarios.
const BaseCurrentPrice = 280000.0

// ScenarioCustomer returns the reference customer: payment 5,331.71, equity
// 244,896.46 and risk profile "A".
func ScenarioCustomer() pricing.CustomerSnapshot {
	return pricing.CustomerSnapshot{
		ID:                    "customer-1",
		CurrentMonthlyPayment: 5331.71,
		VehicleEquity:         244896.46,
		CurrentVehiclePrice:   BaseCurrentPrice,
		RiskProfile:           "A",
		OutstandingBalance:    35103.54,
	}
}

// ScenarioFees returns the reference fee configuration: 19.49% base rate,
// IVA 16%, service fee and CXA 4%, GPS 350/750, insurance 10,999 per 12
// months and Kavak Total 25,000.
func ScenarioFees() pricing.FeeConfiguration {
	return pricing.FeeConfiguration{
		ServiceFee:           pricing.FeeRange{Max: 0.04, Min: 0, Step: 0.01},
		CXA:                  pricing.FeeRange{Max: 0.04, Min: 0, Step: 0.01},
		CACBonus:             pricing.BonusRange{Min: 5000, Max: 25000, Step: 5000},
		KavakTotalEnabled:    true,
		KavakTotalAmount:     25000,
		GPSInstallation:      750,
		GPSMonthly:           350,
		InsuranceAmount:      10999,
		InsuranceCycleMonths: 12,
		IVARate:              0.16,
		MinimumNPV:           20000,
		Terms:                pricing.DefaultTerms(),
		TermRateAddOns:       map[int]float64{60: 0.01, 72: 0.015},
		RiskProfiles: map[string]pricing.RiskProfile{
			"A": {Rate: 0.1949, MinDownPayment: 0.33},
		},
	}
}

// Vehicle returns a candidate priced at multiple times BaseCurrentPrice.
func Vehicle(id string, multiple float64) pricing.VehicleCandidate {
	return pricing.VehicleCandidate{
		ID:      id,
		Price:   BaseCurrentPrice * multiple,
		Make:    "Mazda",
		Model:   "CX-5",
		Year:    2023,
		Mileage: 18000,
	}
}

// FindOffer finds an offer by vehicle and term.
// Returns a pointer to the offer if found, nil otherwise.
func FindOffer(offers []pricing.Offer, vehicleID string, term int) *pricing.Offer {
	for i := range offers {
		if offers[i].Vehicle.ID == vehicleID && offers[i].Structure.Term == term {
			return &offers[i]
		}
	}
	return nil
}
