// Package constants provides shared constants for the trade-up application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyPlaces is the number of decimal places kept on amortization rows
	CurrencyPlaces = 2

	// DefaultInsuranceCycleMonths is the length of one insurance amortization cycle
	DefaultInsuranceCycleMonths = 12
)

// DefaultTermOrder is the fixed commercial order in which loan terms are tried.
var DefaultTermOrder = []int{60, 72, 48, 36, 24, 12}

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultInventoryFile is the default customer and vehicle data file name
	DefaultInventoryFile = "inventory.yaml"
)

// Batch defaults
const (
	// DefaultWorkers is the worker pool size used when none is configured
	DefaultWorkers = 4
)

// Display constants
const (
	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)
