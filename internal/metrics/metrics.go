// Package metrics exposes ledger diagnostics and HTTP traffic to Prometheus.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rustyeddy/dealbook/ledger"
)

const namespace = "dealbook"

var _ ledger.Recorder = (*Metrics)(nil)

// Metrics implements ledger.Recorder. Each instance owns its collectors, so
// tests can register against a private registry.
type Metrics struct {
	DealsProcessed   *prometheus.CounterVec
	UnresolvedMagics *prometheus.CounterVec
	MagicConflicts   prometheus.Counter
	GroupOverlaps    prometheus.Counter

	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec
}

// New registers the collectors with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		DealsProcessed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "deals_processed_total",
				Help:      "Deals consumed by ledger operations",
			},
			[]string{"op"}, // aggregate, timeline, balance
		),
		UnresolvedMagics: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "unresolved_magic_total",
				Help:      "Deals left under magic 0 after sibling resolution",
			},
			[]string{"op"},
		),
		MagicConflicts: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "magic_conflicts_total",
				Help:      "Positions whose deals carry different non-zero magics",
			},
		),
		GroupOverlaps: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "group_overlaps_total",
				Help:      "Magics found in more than one group during aggregation",
			},
		),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		HTTPLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"route"},
		),
	}
}

func (m *Metrics) ObserveDeals(op string, n int) {
	m.DealsProcessed.WithLabelValues(op).Add(float64(n))
}

func (m *Metrics) UnresolvedMagic(op string, n int) {
	m.UnresolvedMagics.WithLabelValues(op).Add(float64(n))
}

func (m *Metrics) MagicConflict(int64) {
	m.MagicConflicts.Inc()
}

func (m *Metrics) GroupOverlap(int64) {
	m.GroupOverlaps.Inc()
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route string, code int, seconds float64) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.HTTPLatency.WithLabelValues(route).Observe(seconds)
}
