package metrics

import (
	"testing"
	"time"

	"github.com/iwvelando/trade-up/pkg/pricing"
	"github.com/iwvelando/trade-up/pkg/tiers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveCustomer(true)
	m.ObserveCustomer(true)
	m.ObserveCustomer(false)
	m.ObserveOffer(tiers.Upgrade)
	m.ObserveOffer("")
	m.ObserveRejection(pricing.RejectPriceNotHigher)
	m.AddAttempts(37)
	m.AddAttempts(-1)
	m.ObserveRun(250 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.customers.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.customers.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.offers.WithLabelValues("upgrade")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.offers.WithLabelValues(outOfRangeLabel)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("price_not_higher")))
	assert.Equal(t, 37.0, testutil.ToFloat64(m.attempts))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestBatchMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}

func TestNilBatchMetricsIsNoop(t *testing.T) {
	var m *BatchMetrics
	assert.NotPanics(t, func() {
		m.ObserveCustomer(true)
		m.ObserveOffer(tiers.Refresh)
		m.ObserveRejection(pricing.RejectNoViableStructure)
		m.AddAttempts(3)
		m.ObserveRun(time.Second)
	})
}
