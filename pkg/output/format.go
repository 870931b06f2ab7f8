// Package output renders offer results and amortization tables.
package output

import (
	"fmt"
	"io"

	"github.com/iwvelando/trade-up/internal/search"
	"github.com/iwvelando/trade-up/pkg/amortization"
	"github.com/iwvelando/trade-up/pkg/constants"
	"github.com/iwvelando/trade-up/pkg/format"
	"github.com/iwvelando/trade-up/pkg/pricing"
	"github.com/iwvelando/trade-up/pkg/tiers"
)

// ValidateFormat checks if the output format is one of the supported formats.
func ValidateFormat(outputFormat string) error {
	if outputFormat != constants.OutputFormatPretty && outputFormat != constants.OutputFormatCSV {
		return fmt.Errorf("expected output format of %s or %s, got %s",
			constants.OutputFormatPretty, constants.OutputFormatCSV, outputFormat)
	}
	return nil
}

// Offers writes results in the requested format.
func Offers(w io.Writer, outputFormat string, results []*search.Result) error {
	if err := ValidateFormat(outputFormat); err != nil {
		return err
	}
	if outputFormat == constants.OutputFormatCSV {
		CsvOffers(w, results)
		return nil
	}
	PrettyOffers(w, results)
	return nil
}

// Amortization writes a table in the requested format.
func Amortization(w io.Writer, outputFormat string, table *amortization.Table) error {
	if err := ValidateFormat(outputFormat); err != nil {
		return err
	}
	if outputFormat == constants.OutputFormatCSV {
		CsvAmortization(w, table)
		return nil
	}
	PrettyAmortization(w, table)
	return nil
}

// PrettyOffers outputs a human-readable rather than machine-readable table.
func PrettyOffers(w io.Writer, results []*search.Result) {
	for i, result := range results {
		fmt.Fprintf(w, "--- Offers for customer %s ---\n", result.CustomerID)
		for _, tier := range tiers.All {
			prettyOfferGroup(w, string(tier), result.ByTier[tier])
		}
		if len(result.OutOfRange) > 0 {
			prettyOfferGroup(w, "out of range", result.OutOfRange)
		}
		for _, rejected := range result.Rejected {
			fmt.Fprintf(w, "rejected %s: %s\n", rejected.VehicleID, rejected.Reason)
		}
		if i < len(results)-1 {
			fmt.Fprintf(w, "\n")
		}
	}
}

func prettyOfferGroup(w io.Writer, name string, offers []pricing.Offer) {
	fmt.Fprintf(w, "[%s] %d offer(s)\n", name, len(offers))
	if len(offers) == 0 {
		return
	}
	fmt.Fprintf(w, "Vehicle | Term | Phase | Payment | Change | NPV\n")
	fmt.Fprintf(w, "_______ | ____ | _____ | _______ | ______ | ___\n")
	for _, offer := range offers {
		fmt.Fprintf(w, "%s | %d | %s | %s | %s | %s\n",
			offer.VehicleID(),
			offer.Term(),
			offer.Phase,
			format.Currency(offer.MonthlyPayment),
			format.Percent(offer.PaymentDelta),
			format.Currency(offer.NPV),
		)
	}
}

// CsvOffers outputs one line per offer in comma-separated value format.
func CsvOffers(w io.Writer, results []*search.Result) {
	fmt.Fprintf(w, `"customer","tier","vehicle","price","term","phase","service fee","cxa","cac bonus","loan amount","monthly payment","first month payment","payment delta","npv"`)
	fmt.Fprintf(w, "\n")
	for _, result := range results {
		for _, tier := range tiers.All {
			csvOfferRows(w, string(tier), result.ByTier[tier])
		}
		csvOfferRows(w, "out_of_range", result.OutOfRange)
	}
}

func csvOfferRows(w io.Writer, tier string, offers []pricing.Offer) {
	for _, offer := range offers {
		s := offer.Structure
		fmt.Fprintf(w, `"%s","%s","%s","%.2f","%d","%s","%.2f","%.2f","%.2f","%.2f","%.2f","%.2f","%.4f","%.2f"`,
			offer.CustomerID, tier, offer.VehicleID(), offer.Vehicle.Price, s.Term, offer.Phase,
			s.ServiceFee, s.CXA, s.CACBonus, s.LoanAmount,
			offer.MonthlyPayment, offer.FirstMonthPayment, offer.PaymentDelta, offer.NPV)
		fmt.Fprintf(w, "\n")
	}
}

// PrettyAmortization outputs the schedule as a human-readable table.
func PrettyAmortization(w io.Writer, table *amortization.Table) {
	fmt.Fprintf(w, "--- Amortization for customer %s, vehicle %s, %d months ---\n",
		table.CustomerID, table.VehicleID, table.Term)
	fmt.Fprintf(w, "Month | Opening | Capital | Interest | Charges | Tax | Payment | Closing\n")
	fmt.Fprintf(w, "_____ | _______ | _______ | ________ | _______ | ___ | _______ | _______\n")
	for _, row := range table.Rows {
		fmt.Fprintf(w, "%d | %s | %s | %s | %s | %s | %s | %s\n",
			row.Month,
			format.DecimalCurrency(row.OpeningBalance),
			format.DecimalCurrency(row.Capital),
			format.DecimalCurrency(row.Interest),
			format.DecimalCurrency(row.Charges),
			format.DecimalCurrency(row.Tax),
			format.DecimalCurrency(row.TotalPayment),
			format.DecimalCurrency(row.ClosingBalance),
		)
	}
	totals := table.Totals()
	fmt.Fprintf(w, "Total | | %s | %s | %s | %s | %s |\n",
		format.DecimalCurrency(totals.Capital),
		format.DecimalCurrency(totals.Interest),
		format.DecimalCurrency(totals.Charges),
		format.DecimalCurrency(totals.Tax),
		format.DecimalCurrency(totals.TotalPayment),
	)
	fmt.Fprintf(w, "Financed total: %s\n", format.DecimalCurrency(table.FinancedTotal))
}

// CsvAmortization outputs the schedule in comma-separated value format.
func CsvAmortization(w io.Writer, table *amortization.Table) {
	fmt.Fprintf(w, `"month","opening balance","capital","interest","charges","tax","total payment","closing balance"`)
	fmt.Fprintf(w, "\n")
	for _, row := range table.Rows {
		fmt.Fprintf(w, `"%d","%s","%s","%s","%s","%s","%s","%s"`,
			row.Month,
			row.OpeningBalance.StringFixed(constants.CurrencyPlaces),
			row.Capital.StringFixed(constants.CurrencyPlaces),
			row.Interest.StringFixed(constants.CurrencyPlaces),
			row.Charges.StringFixed(constants.CurrencyPlaces),
			row.Tax.StringFixed(constants.CurrencyPlaces),
			row.TotalPayment.StringFixed(constants.CurrencyPlaces),
			row.ClosingBalance.StringFixed(constants.CurrencyPlaces),
		)
		fmt.Fprintf(w, "\n")
	}
}
