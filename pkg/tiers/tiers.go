// Package tiers classifies offers by how much the monthly payment changes.
package tiers

import "math"

// Tier is a payment-change bucket.
type Tier string

const (
	Refresh    Tier = "refresh"
	Upgrade    Tier = "upgrade"
	MaxUpgrade Tier = "max_upgrade"
)

// Bounds of each tier as payment-delta ratios. Refresh is closed on both
// ends; Upgrade and MaxUpgrade are open below and closed above.
const (
	RefreshFloor      = -0.05
	RefreshCeiling    = 0.05
	UpgradeCeiling    = 0.25
	MaxUpgradeCeiling = 1.00
)

// All lists the tiers in presentation order.
var All = []Tier{Refresh, Upgrade, MaxUpgrade}

// PaymentDelta returns newPayment/currentPayment - 1. A non-positive current
// payment yields NaN, which no tier accepts.
func PaymentDelta(newPayment, currentPayment float64) float64 {
	if currentPayment <= 0 {
		return math.NaN()
	}
	return newPayment/currentPayment - 1
}

// Classify maps a payment delta to its tier. The boolean is false for deltas
// outside [-5%, +100%].
func Classify(delta float64) (Tier, bool) {
	switch {
	case math.IsNaN(delta):
		return "", false
	case delta >= RefreshFloor && delta <= RefreshCeiling:
		return Refresh, true
	case delta > RefreshCeiling && delta <= UpgradeCeiling:
		return Upgrade, true
	case delta > UpgradeCeiling && delta <= MaxUpgradeCeiling:
		return MaxUpgrade, true
	default:
		return "", false
	}
}

// ClassifyPayments is Classify applied to the delta between two payments.
func ClassifyPayments(newPayment, currentPayment float64) (Tier, float64, bool) {
	delta := PaymentDelta(newPayment, currentPayment)
	tier, ok := Classify(delta)
	return tier, delta, ok
}
