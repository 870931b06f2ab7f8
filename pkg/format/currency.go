// Package format renders money and ratios for reports.
package format

import (
	"math"

	"github.com/iwvelando/trade-up/pkg/constants"
	"github.com/iwvelando/trade-up/pkg/mathutil"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	if mathutil.Round(amount) < 0 {
		return "-$" + NumericCurrency(math.Abs(amount))
	}
	return "$" + NumericCurrency(amount)
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	rounded := mathutil.Round(amount)
	if rounded == 0 {
		// normalizes -0
		rounded = 0
	}
	return printer.Sprintf("%.2f", rounded)
}

// DecimalCurrency formats a decimal amount like Currency.
func DecimalCurrency(amount decimal.Decimal) string {
	return Currency(amount.Round(constants.CurrencyPlaces).InexactFloat64())
}

// Percent formats a ratio as a signed percentage (e.g., 0.1497 -> "+14.97%").
func Percent(ratio float64) string {
	if math.IsNaN(ratio) {
		return "n/a"
	}
	sign := "+"
	if ratio < 0 {
		sign = "-"
	}
	return sign + printer.Sprintf("%.2f", mathutil.ToPercentage(math.Abs(ratio))) + "%"
}
