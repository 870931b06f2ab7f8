package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/iwvelando/trade-up/internal/batch"
	"github.com/iwvelando/trade-up/internal/config"
	"github.com/iwvelando/trade-up/internal/inventory"
	"github.com/iwvelando/trade-up/internal/metrics"
	"github.com/iwvelando/trade-up/internal/search"
	"github.com/iwvelando/trade-up/pkg/amortization"
	"github.com/iwvelando/trade-up/pkg/output"
	"github.com/iwvelando/trade-up/pkg/pricing"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type application struct {
	logger       *zap.Logger
	conf         *config.Configuration
	fees         pricing.FeeConfiguration
	outputFormat string
	stdout       io.Writer
}

func (a *application) loadInventory() (*inventory.Store, error) {
	return inventory.Load(a.logger, a.conf.Batch.InventoryFile, a.conf.Batch.Filter)
}

func (a *application) offers(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("offers", flag.ContinueOnError)
	customerID := flags.String("customer", "", "only generate offers for this customer")
	if err := flags.Parse(args); err != nil {
		return err
	}

	store, err := a.loadInventory()
	if err != nil {
		return err
	}
	engine, err := search.NewEngine(a.logger, a.fees)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	batchMetrics, err := metrics.New(registry)
	if err != nil {
		return err
	}

	ids := store.CustomerIDs()
	if *customerID != "" {
		ids = []string{*customerID}
	}

	summary, runErr := batch.NewRunner(a.logger, engine, store, a.conf.Batch.Workers, batchMetrics).Run(ctx, ids)
	if summary != nil {
		var results []*search.Result
		for _, result := range summary.Results {
			if result.Err == nil {
				results = append(results, result.Result)
			}
		}
		if err := output.Offers(a.stdout, a.outputFormat, results); err != nil {
			return err
		}
	}

	if path := a.conf.Batch.MetricsFile; path != "" {
		if err := prometheus.WriteToTextfile(path, registry); err != nil {
			a.logger.Error("failed to write metrics file",
				zap.String("op", "main.offers"),
				zap.String("path", path),
				zap.Error(err),
			)
		}
	}
	return runErr
}

func (a *application) amortize(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("amortize", flag.ContinueOnError)
	customerID := flags.String("customer", "", "customer ID")
	vehicleID := flags.String("vehicle", "", "vehicle ID")
	term := flags.Int("term", 0, "loan term in months; defaults to the highest-NPV offer")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *customerID == "" || *vehicleID == "" {
		return errors.New("amortize needs -customer and -vehicle")
	}

	store, err := a.loadInventory()
	if err != nil {
		return err
	}
	customer, err := store.FetchCustomer(ctx, *customerID)
	if err != nil {
		return err
	}
	vehicle, err := store.Vehicle(*vehicleID)
	if err != nil {
		return err
	}

	engine, err := search.NewEngine(a.logger, a.fees)
	if err != nil {
		return err
	}
	result, err := engine.GenerateOffers(customer, []pricing.VehicleCandidate{vehicle})
	if err != nil {
		return err
	}

	offer, err := selectOffer(result, *term)
	if err != nil {
		return fmt.Errorf("customer %s, vehicle %s: %w", customer.ID, vehicle.ID, err)
	}
	table, err := amortization.NewGenerator(a.logger).Build(offer)
	if err != nil {
		return err
	}
	return output.Amortization(a.stdout, a.outputFormat, table)
}

// selectOffer picks the offer for term, or the highest-NPV offer when term
// is zero. Out-of-range offers are still viable structures and qualify.
func selectOffer(result *search.Result, term int) (pricing.Offer, error) {
	candidates := append(result.Offers(), result.OutOfRange...)
	if len(candidates) == 0 {
		reason := pricing.RejectNoViableStructure
		if len(result.Rejected) > 0 {
			reason = result.Rejected[0].Reason
		}
		return pricing.Offer{}, fmt.Errorf("no viable offer: %s", reason)
	}

	var best *pricing.Offer
	for i := range candidates {
		c := &candidates[i]
		if term != 0 && c.Term() != term {
			continue
		}
		if best == nil || c.NPV > best.NPV {
			best = c
		}
	}
	if best == nil {
		return pricing.Offer{}, fmt.Errorf("no viable offer for a %d month term", term)
	}
	return *best, nil
}
