package search

import (
	"fmt"
	"sort"

	"github.com/iwvelando/trade-up/pkg/pricing"
	"github.com/iwvelando/trade-up/pkg/tiers"
	"go.uber.org/zap"
)

// VehicleRejection records why a vehicle produced no offer.
type VehicleRejection struct {
	VehicleID string            `json:"vehicleId"`
	Reason    pricing.Rejection `json:"reason"`
}

// Result is the tiered offer set for one customer. Offers whose payment delta
// falls outside every tier are kept in OutOfRange rather than discarded.
type Result struct {
	CustomerID string                         `json:"customerId"`
	ByTier     map[tiers.Tier][]pricing.Offer `json:"byTier"`
	OutOfRange []pricing.Offer                `json:"outOfRange,omitempty"`
	Rejected   []VehicleRejection             `json:"rejected,omitempty"`
	Attempts   int                            `json:"attempts"`
}

func newResult(customerID string) *Result {
	byTier := make(map[tiers.Tier][]pricing.Offer, len(tiers.All))
	for _, tier := range tiers.All {
		byTier[tier] = []pricing.Offer{}
	}
	return &Result{CustomerID: customerID, ByTier: byTier}
}

// Offers returns every tiered offer in tier order.
func (r *Result) Offers() []pricing.Offer {
	var offers []pricing.Offer
	for _, tier := range tiers.All {
		offers = append(offers, r.ByTier[tier]...)
	}
	return offers
}

// Count returns the number of tiered offers.
func (r *Result) Count() int {
	count := 0
	for _, offers := range r.ByTier {
		count += len(offers)
	}
	return count
}

// GenerateOffers validates the inputs, searches every vehicle and groups the
// viable offers by tier. A validation failure on the customer or on any
// vehicle aborts the whole customer; per-vehicle rejections do not.
func (e *Engine) GenerateOffers(customer pricing.CustomerSnapshot, vehicles []pricing.VehicleCandidate) (*Result, error) {
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	if _, ok := e.fees.RiskProfiles[customer.RiskProfile]; !ok {
		return nil, &pricing.ValidationError{
			Entity: "customer",
			ID:     customer.ID,
			Field:  "riskProfile",
			Reason: fmt.Sprintf("%q is not a configured risk profile", customer.RiskProfile),
		}
	}
	for _, vehicle := range vehicles {
		if err := vehicle.Validate(); err != nil {
			return nil, err
		}
	}

	result := newResult(customer.ID)
	for _, vehicle := range vehicles {
		outcome := e.Search(customer, vehicle)
		result.Attempts += outcome.Attempts
		if !outcome.Viable() {
			result.Rejected = append(result.Rejected, VehicleRejection{VehicleID: vehicle.ID, Reason: outcome.Rejection})
			continue
		}

		for _, accepted := range outcome.Accepted {
			offer := newOffer(customer, vehicle, outcome.Phase, accepted.Attempt)
			if offer.Tier == "" {
				result.OutOfRange = append(result.OutOfRange, offer)
				continue
			}
			result.ByTier[offer.Tier] = append(result.ByTier[offer.Tier], offer)
		}
	}

	termRank := e.termRank()
	for _, tier := range tiers.All {
		sortOffers(result.ByTier[tier], termRank)
	}
	sortOffers(result.OutOfRange, termRank)

	e.logger.Debug("generated offers",
		zap.String("op", "search.GenerateOffers"),
		zap.String("customer", customer.ID),
		zap.Int("vehicles", len(vehicles)),
		zap.Int("offers", result.Count()),
		zap.Int("outOfRange", len(result.OutOfRange)),
		zap.Int("attempts", result.Attempts),
	)
	return result, nil
}

// GenerateOffers builds a one-off engine for fees and runs it.
func GenerateOffers(customer pricing.CustomerSnapshot, vehicles []pricing.VehicleCandidate, fees pricing.FeeConfiguration) (*Result, error) {
	engine, err := NewEngine(nil, fees)
	if err != nil {
		return nil, err
	}
	return engine.GenerateOffers(customer, vehicles)
}

func newOffer(customer pricing.CustomerSnapshot, vehicle pricing.VehicleCandidate, phase pricing.Phase, attempt pricing.Attempt) pricing.Offer {
	tier, delta, ok := tiers.ClassifyPayments(attempt.Payment.MonthlyPayment, customer.CurrentMonthlyPayment)
	if !ok {
		tier = ""
	}
	return pricing.Offer{
		CustomerID:        customer.ID,
		Vehicle:           vehicle,
		Phase:             phase,
		Structure:         attempt.Structure,
		MonthlyPayment:    attempt.Payment.MonthlyPayment,
		FirstMonthPayment: attempt.Payment.FirstMonthPayment,
		CurrentPayment:    customer.CurrentMonthlyPayment,
		NPV:               attempt.NPV,
		PaymentDelta:      delta,
		Tier:              tier,
	}
}

func (e *Engine) termRank() map[int]int {
	rank := make(map[int]int, len(e.fees.Terms))
	for i, term := range e.fees.Terms {
		rank[term] = i
	}
	return rank
}

// sortOffers orders by NPV descending, then vehicle ID, then term order.
func sortOffers(offers []pricing.Offer, termRank map[int]int) {
	sort.SliceStable(offers, func(i, j int) bool {
		a, b := offers[i], offers[j]
		if a.NPV != b.NPV {
			return a.NPV > b.NPV
		}
		if a.Vehicle.ID != b.Vehicle.ID {
			return a.Vehicle.ID < b.Vehicle.ID
		}
		return termRank[a.Structure.Term] < termRank[b.Structure.Term]
	})
}
