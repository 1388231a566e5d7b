package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/dealbook/deal"
	"github.com/rustyeddy/dealbook/ledger"
)

func TestRecorderCounts(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.ObserveDeals("aggregate", 3)
	m.ObserveDeals("aggregate", 2)
	m.UnresolvedMagic("aggregate", 1)
	m.MagicConflict(10)
	m.GroupOverlap(5)
	m.GroupOverlap(6)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.DealsProcessed.WithLabelValues("aggregate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnresolvedMagics.WithLabelValues("aggregate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MagicConflicts))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GroupOverlaps))
}

func TestCalculatorFeedsMetrics(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	c := ledger.New(ledger.WithRecorder(m))

	deals := []deal.Deal{
		{ID: 1, PositionID: 1, Time: deal.Unix(10), Type: deal.Buy, Entry: deal.In, Profit: 1},
		{ID: 2, PositionID: 2, Time: deal.Unix(20), Type: deal.Sell, Entry: deal.Out, Magic: 9, Profit: 2},
	}
	_, err := c.Aggregate(ledger.AggregateRequest{Deals: deals})
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DealsProcessed.WithLabelValues("aggregate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnresolvedMagics.WithLabelValues("aggregate")))
}

func TestObserveRequest(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveRequest("/api/{account}/profits", 200, 0.02)
	m.ObserveRequest("/api/{account}/profits", 400, 0.001)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/{account}/profits", "400")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPLatency))

	n, err := testutil.GatherAndCount(reg, "dealbook_api_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
