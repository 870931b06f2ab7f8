// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/trade-up/pkg/constants"
	"github.com/shopspring/decimal"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Used when displaying float amounts.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// IsFinite reports whether val is neither NaN nor infinite.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// Cents converts a float amount into a decimal rounded to currency precision.
func Cents(val float64) decimal.Decimal {
	return decimal.NewFromFloat(val).Round(constants.CurrencyPlaces)
}

// ToPercentage converts a ratio (0.05) into a percentage (5.0).
func ToPercentage(ratio float64) float64 {
	return ratio * constants.PercentageMultiplier
}
