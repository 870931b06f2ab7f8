package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/trade-up/pkg/constants"
	"github.com/iwvelando/trade-up/pkg/pricing"
	"github.com/iwvelando/trade-up/pkg/testutil"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadExampleConfiguration(t *testing.T) {
	conf, err := LoadConfiguration(filepath.Join("..", "..", constants.ExampleConfigFile))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if conf.Logging.Level != "info" || conf.Output.Format != constants.OutputFormatPretty {
		t.Errorf("unexpected logging/output sections: %+v %+v", conf.Logging, conf.Output)
	}
	if conf.Batch.Workers != 4 || conf.Batch.InventoryFile != "inventory.yaml" {
		t.Errorf("unexpected batch section: %+v", conf.Batch)
	}
	if conf.Batch.Filter.MaxPriceMultiple != 3 || conf.Batch.Filter.ReferenceYear == 0 {
		t.Errorf("unexpected filter: %+v", conf.Batch.Filter)
	}

	fees, err := conf.FeeConfiguration()
	if err != nil {
		t.Fatalf("FeeConfiguration() error = %v", err)
	}

	expected := testutil.ScenarioFees()
	if fees.ServiceFee != expected.ServiceFee || fees.CXA != expected.CXA || fees.CACBonus != expected.CACBonus {
		t.Errorf("fee ranges = %+v %+v %+v", fees.ServiceFee, fees.CXA, fees.CACBonus)
	}
	if fees.KavakTotal() != 25000 || fees.InsuranceAmount != 10999 || fees.IVARate != 0.16 || fees.MinimumNPV != 20000 {
		t.Errorf("unexpected amounts: %+v", fees)
	}
	if rate, ok := fees.InterestRate("A", 60); !ok || rate != 0.1949+0.01 {
		t.Errorf("InterestRate(A, 60) = %v, %v", rate, ok)
	}
	if pct, ok := fees.RequiredDownPaymentPct("B", 72); !ok || pct != 0.40 {
		t.Errorf("RequiredDownPaymentPct(B, 72) = %v, %v", pct, ok)
	}
	if pct, _ := fees.RequiredDownPaymentPct("B", 60); pct != 0.35 {
		t.Errorf("RequiredDownPaymentPct(B, 60) = %v, expected the profile default", pct)
	}
	// Profile names keep their case even though viper lower-cases map keys.
	if _, ok := fees.RiskProfiles["A"]; !ok {
		t.Errorf("profile A missing from %v", fees.ProfileNames())
	}
}

func TestLoadConfigurationDefaults(t *testing.T) {
	path := writeConfig(t, `
fees:
  serviceFee: {max: 0.04}
  cxa: {max: 0.04}
  cacBonus: {min: 1000, max: 5000}
  gps: {installation: 0, monthly: 0}
  insurance: {amount: 0}
  ivaRate: 0.16
  minimumNpv: 0
  riskProfiles:
    - {name: A, rate: 0.2, minDownPayment: 0.3}
`)
	conf, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if conf.Output.Format != constants.OutputFormatPretty {
		t.Errorf("output format default = %q", conf.Output.Format)
	}
	if conf.Batch.Workers != constants.DefaultWorkers || conf.Batch.InventoryFile != constants.DefaultInventoryFile {
		t.Errorf("batch defaults = %+v", conf.Batch)
	}
	if conf.Batch.Filter.ReferenceYear != time.Now().Year() {
		t.Errorf("reference year = %d", conf.Batch.Filter.ReferenceYear)
	}

	fees, err := conf.FeeConfiguration()
	if err != nil {
		t.Fatalf("FeeConfiguration() error = %v", err)
	}
	if fees.InsuranceCycleMonths != constants.DefaultInsuranceCycleMonths {
		t.Errorf("insurance cycle default = %d", fees.InsuranceCycleMonths)
	}
	if len(fees.Terms) != 6 || fees.Terms[0] != 60 || fees.Terms[5] != 12 {
		t.Errorf("terms default = %v", fees.Terms)
	}
	// Omitted steps concede each range in one rung.
	if fees.ServiceFee.Step != 0.04 || fees.CXA.Step != 0.04 {
		t.Errorf("fee step defaults = %v, %v", fees.ServiceFee.Step, fees.CXA.Step)
	}
	if fees.CACBonus.Step != 4000 {
		t.Errorf("CAC bonus step default = %v", fees.CACBonus.Step)
	}
}

func TestLoadConfigurationErrors(t *testing.T) {
	if _, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
	if _, err := LoadConfiguration(writeConfig(t, "fees: [\n")); err == nil {
		t.Error("expected an error for malformed yaml")
	}
}

func validFees() FeesConfig {
	value := func(v float64) *float64 { return &v }
	return FeesConfig{
		ServiceFee: RangeConfig{Max: value(0.04), Step: 0.01},
		CXA:        RangeConfig{Max: value(0.04), Step: 0.01},
		CACBonus:   BonusConfig{Min: 5000, Max: value(25000), Step: 5000},
		KavakTotal: KavakTotalConfig{Enabled: true, Amount: 25000},
		GPS:        GPSConfig{Installation: value(750), Monthly: value(350)},
		Insurance:  InsuranceConfig{Amount: value(10999), CycleMonths: 12},
		IVARate:    value(0.16),
		MinimumNPV: value(20000),
		Terms:      []int{60, 72, 48, 36, 24, 12},
		RiskProfiles: []RiskProfileConfig{
			{Name: "A", Rate: value(0.1949), MinDownPayment: value(0.33)},
		},
	}
}

func TestFeeConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *FeesConfig)
		field  string
	}{
		{"missing iva", func(f *FeesConfig) { f.IVARate = nil }, "ivaRate"},
		{"missing service fee max", func(f *FeesConfig) { f.ServiceFee.Max = nil }, "serviceFee.max"},
		{"missing insurance", func(f *FeesConfig) { f.Insurance.Amount = nil }, "insurance.amount"},
		{"profile without rate", func(f *FeesConfig) { f.RiskProfiles[0].Rate = nil }, "riskProfiles[0].rate"},
		{"profile without name", func(f *FeesConfig) { f.RiskProfiles[0].Name = "" }, "riskProfiles[0].name"},
		{"duplicate profile", func(f *FeesConfig) { f.RiskProfiles = append(f.RiskProfiles, f.RiskProfiles[0]) }, "riskProfiles[1].name"},
		{"duplicate add-on term", func(f *FeesConfig) {
			f.TermRateAddOns = []TermValue{{Term: 60, Value: 0.01}, {Term: 60, Value: 0.02}}
		}, "termRateAddOns"},
		{"negative service fee min", func(f *FeesConfig) { f.ServiceFee.Min = -0.01 }, "serviceFee.min"},
		{"cxa of 100%", func(f *FeesConfig) { one := 1.0; f.CXA.Max = &one }, "cxa.max"},
		{"kavak total enabled without amount", func(f *FeesConfig) { f.KavakTotal.Amount = 0 }, "kavakTotal.amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := Configuration{Fees: validFees()}
			tt.mutate(&conf.Fees)

			_, err := conf.FeeConfiguration()
			if !errors.Is(err, pricing.ErrConfiguration) {
				t.Fatalf("FeeConfiguration() error = %v, expected a configuration error", err)
			}
			var configErr *pricing.ConfigurationError
			if !errors.As(err, &configErr) || configErr.Field != tt.field {
				t.Errorf("error field = %v, expected %s", err, tt.field)
			}
		})
	}
}

func TestWriteFeesRoundTrips(t *testing.T) {
	conf := Configuration{Fees: validFees()}

	var buf bytes.Buffer
	if err := conf.WriteFees(&buf); err != nil {
		t.Fatalf("WriteFees() error = %v", err)
	}
	if !strings.Contains(buf.String(), "ivaRate: 0.16") {
		t.Errorf("encoded fees missing ivaRate:\n%s", buf.String())
	}

	var decoded map[string]FeesConfig
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	roundTripped := Configuration{Fees: decoded["fees"]}
	if _, err := roundTripped.FeeConfiguration(); err != nil {
		t.Errorf("re-read fees are invalid: %v", err)
	}
}
