// Package config defines the application configuration and loads it with
// viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/trade-up/internal/inventory"
	"github.com/iwvelando/trade-up/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for trade-up.
type Configuration struct {
	Logging LoggingConfig `yaml:"logging,omitempty" mapstructure:"logging"`
	Output  OutputConfig  `yaml:"output,omitempty" mapstructure:"output"`
	Batch   BatchConfig   `yaml:"batch,omitempty" mapstructure:"batch"`
	Fees    FeesConfig    `yaml:"fees" mapstructure:"fees"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv
}

// BatchConfig controls the offer batch run.
type BatchConfig struct {
	Workers       int              `yaml:"workers,omitempty" mapstructure:"workers"`
	InventoryFile string           `yaml:"inventoryFile,omitempty" mapstructure:"inventoryFile"`
	MetricsFile   string           `yaml:"metricsFile,omitempty" mapstructure:"metricsFile"`
	Filter        inventory.Filter `yaml:"filter,omitempty" mapstructure:"filter"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Defaults are applied; fee validation happens in
// FeeConfiguration.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("TRADEUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := v.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.Normalize(time.Now())
	return &configuration, nil
}

// Normalize fills in defaults for anything left unset. now supplies the
// reference year for the vehicle age filter.
func (c *Configuration) Normalize(now time.Time) {
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatPretty
	}
	if c.Batch.Workers <= 0 {
		c.Batch.Workers = constants.DefaultWorkers
	}
	if c.Batch.InventoryFile == "" {
		c.Batch.InventoryFile = constants.DefaultInventoryFile
	}
	if c.Batch.Filter.ReferenceYear == 0 {
		c.Batch.Filter.ReferenceYear = now.Year()
	}
	c.Fees.Normalize()
}
