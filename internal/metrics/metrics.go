// Package metrics exposes Prometheus counters for offer batch runs.
package metrics

import (
	"time"

	"github.com/iwvelando/trade-up/pkg/pricing"
	"github.com/iwvelando/trade-up/pkg/tiers"
	"github.com/prometheus/client_golang/prometheus"
)

const outOfRangeLabel = "out_of_range"

// BatchMetrics records batch outcomes. A nil *BatchMetrics is a no-op.
type BatchMetrics struct {
	customers   *prometheus.CounterVec
	offers      *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	attempts    prometheus.Counter
	runDuration prometheus.Histogram
}

// New creates the batch metrics and registers them with reg. A nil reg
// leaves them unregistered.
func New(reg prometheus.Registerer) (*BatchMetrics, error) {
	m := &BatchMetrics{
		customers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradeup_customers_total",
			Help: "Customers processed by outcome.",
		}, []string{"outcome"}),
		offers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradeup_offers_total",
			Help: "Viable offers generated by tier.",
		}, []string{"tier"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradeup_vehicle_rejections_total",
			Help: "Vehicles that produced no offer by reason.",
		}, []string{"reason"}),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradeup_structure_attempts_total",
			Help: "Loan structures priced during the search.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradeup_batch_duration_seconds",
			Help:    "Wall time of a batch run.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.customers, m.offers, m.rejections, m.attempts, m.runDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveCustomer counts one customer as "ok" or "failed".
func (m *BatchMetrics) ObserveCustomer(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.customers.WithLabelValues(outcome).Inc()
}

// ObserveOffer counts an offer by tier; an empty tier is out of range.
func (m *BatchMetrics) ObserveOffer(tier tiers.Tier) {
	if m == nil {
		return
	}
	label := string(tier)
	if label == "" {
		label = outOfRangeLabel
	}
	m.offers.WithLabelValues(label).Inc()
}

// ObserveRejection counts a vehicle rejected for reason.
func (m *BatchMetrics) ObserveRejection(reason pricing.Rejection) {
	if m == nil {
		return
	}
	label := string(reason)
	if label == "" {
		label = "unknown"
	}
	m.rejections.WithLabelValues(label).Inc()
}

// AddAttempts adds priced structure attempts.
func (m *BatchMetrics) AddAttempts(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.attempts.Add(float64(n))
}

// ObserveRun records the duration of a whole batch.
func (m *BatchMetrics) ObserveRun(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(elapsed.Seconds())
}
