// Package batch runs the offer search over many customers with a bounded
// worker pool.
package batch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/trade-up/internal/metrics"
	"github.com/iwvelando/trade-up/internal/search"
	"github.com/iwvelando/trade-up/pkg/constants"
	"github.com/iwvelando/trade-up/pkg/pricing"
	"github.com/iwvelando/trade-up/pkg/tiers"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sources supplies customer snapshots and their candidate vehicles.
type Sources interface {
	FetchCustomer(ctx context.Context, id string) (pricing.CustomerSnapshot, error)
	FetchCandidateVehicles(ctx context.Context, customer pricing.CustomerSnapshot) ([]pricing.VehicleCandidate, error)
}

// CustomerResult is the outcome for one customer: either a tiered result or
// the error that stopped it.
type CustomerResult struct {
	CustomerID string
	Result     *search.Result
	Err        error
}

// Summary aggregates a batch run.
type Summary struct {
	RunID      string
	Results    []CustomerResult
	Processed  int
	Failed     int
	Offers     map[tiers.Tier]int
	OutOfRange int
	Elapsed    time.Duration
}

// Runner fans customers out to a fixed number of workers sharing one engine.
type Runner struct {
	logger  *zap.Logger
	engine  *search.Engine
	sources Sources
	workers int
	metrics *metrics.BatchMetrics
}

// NewRunner builds a runner. workers <= 0 uses the default pool size and a
// nil metrics disables instrumentation.
func NewRunner(logger *zap.Logger, engine *search.Engine, sources Sources, workers int, m *metrics.BatchMetrics) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = constants.DefaultWorkers
	}
	return &Runner{
		logger:  logger,
		engine:  engine,
		sources: sources,
		workers: workers,
		metrics: m,
	}
}

// Run processes customerIDs. A failure for one customer is recorded in its
// CustomerResult and does not affect the others. Cancelling ctx stops
// customers that have not started yet; Run then returns the partial summary
// together with the context error.
func (r *Runner) Run(ctx context.Context, customerIDs []string) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := r.logger.With(zap.String("run", runID))

	logger.Info("starting offer batch",
		zap.String("op", "batch.Run"),
		zap.Int("customers", len(customerIDs)),
		zap.Int("workers", r.workers),
	)

	results := make([]CustomerResult, len(customerIDs))
	started := make([]bool, len(customerIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, id := range customerIDs {
		if gctx.Err() != nil {
			break
		}
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			started[i] = true
			results[i] = r.processCustomer(gctx, logger, id)
			return nil
		})
	}
	waitErr := g.Wait()

	summary := &Summary{
		RunID:  runID,
		Offers: make(map[tiers.Tier]int, len(tiers.All)),
	}
	for i, result := range results {
		if !started[i] {
			continue
		}
		summary.Results = append(summary.Results, result)
		summary.Processed++
		if result.Err != nil {
			summary.Failed++
			continue
		}
		for tier, offers := range result.Result.ByTier {
			summary.Offers[tier] += len(offers)
		}
		summary.OutOfRange += len(result.Result.OutOfRange)
	}
	summary.Elapsed = time.Since(start)
	r.metrics.ObserveRun(summary.Elapsed)

	err := ctx.Err()
	if err == nil {
		err = waitErr
	}
	if err != nil {
		logger.Warn("offer batch interrupted",
			zap.String("op", "batch.Run"),
			zap.Int("processed", summary.Processed),
			zap.Int("remaining", len(customerIDs)-summary.Processed),
			zap.Error(err),
		)
		return summary, err
	}

	logger.Info("finished offer batch",
		zap.String("op", "batch.Run"),
		zap.Int("processed", summary.Processed),
		zap.Int("failed", summary.Failed),
		zap.Int("outOfRange", summary.OutOfRange),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

func (r *Runner) processCustomer(ctx context.Context, logger *zap.Logger, id string) CustomerResult {
	result := CustomerResult{CustomerID: id}

	customer, err := r.sources.FetchCustomer(ctx, id)
	if err == nil {
		var vehicles []pricing.VehicleCandidate
		vehicles, err = r.sources.FetchCandidateVehicles(ctx, customer)
		if err == nil {
			result.Result, err = r.engine.GenerateOffers(customer, vehicles)
		}
	}

	if err != nil {
		result.Err = err
		r.metrics.ObserveCustomer(false)
		fields := []zap.Field{
			zap.String("op", "batch.processCustomer"),
			zap.String("customer", id),
			zap.Error(err),
		}
		if errors.Is(err, pricing.ErrInvalidInput) {
			logger.Warn("skipping customer with invalid input", fields...)
		} else {
			logger.Warn("failed to process customer", fields...)
		}
		return result
	}

	r.metrics.ObserveCustomer(true)
	r.metrics.AddAttempts(result.Result.Attempts)
	for _, offer := range result.Result.Offers() {
		r.metrics.ObserveOffer(offer.Tier)
	}
	for _, offer := range result.Result.OutOfRange {
		r.metrics.ObserveOffer(offer.Tier)
	}
	for _, rejected := range result.Result.Rejected {
		r.metrics.ObserveRejection(rejected.Reason)
	}
	return result
}
