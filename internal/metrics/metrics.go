// Package metrics provides the Prometheus counters for discovery passes,
// listing page fetches, static capture fallbacks and cache writes.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the namespace for all periodmap metrics.
	Namespace = "periodmap"
)

// Metrics holds all Prometheus metrics of a client.
type Metrics struct {
	// Discovery metrics
	LinksAccepted *prometheus.CounterVec
	LinksDropped  *prometheus.CounterVec

	// Fetch metrics
	Fetches       *prometheus.CounterVec
	FetchDuration prometheus.Histogram

	// Reconciliation metrics
	StaticFallbacks *prometheus.CounterVec
	NewPeriods      *prometheus.CounterVec

	// Cache metrics
	CacheWrites  *prometheus.CounterVec
	KnownPeriods *prometheus.GaugeVec
}

// New creates and registers all metrics on reg. A nil reg gets a private
// registry so several clients can coexist in one process.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	factory := promauto.With(reg)
	m := &Metrics{}

	m.initDiscoveryMetrics(factory)
	m.initFetchMetrics(factory)
	m.initReconcileMetrics(factory)
	m.initCacheMetrics(factory)

	return m
}

func (m *Metrics) initDiscoveryMetrics(factory promauto.Factory) {
	m.LinksAccepted = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "discovery",
			Name:      "links_accepted_total",
			Help:      "Links kept in a discovery pass",
		},
		[]string{"category", "source"},
	)

	m.LinksDropped = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "discovery",
			Name:      "links_dropped_total",
			Help:      "Anchors dropped during discovery, by reason",
		},
		[]string{"reason", "source"},
	)
}

func (m *Metrics) initFetchMetrics(factory promauto.Factory) {
	m.Fetches = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "fetch",
			Name:      "requests_total",
			Help:      "Listing page fetches, by outcome",
		},
		[]string{"outcome"},
	)

	m.FetchDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Listing page fetch latency",
			Buckets:   prometheus.DefBuckets,
		},
	)
}

func (m *Metrics) initReconcileMetrics(factory promauto.Factory) {
	m.StaticFallbacks = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "reconciler",
			Name:      "static_fallbacks_total",
			Help:      "Years served by the live crawl because no static capture exists",
		},
		[]string{"category"},
	)

	m.NewPeriods = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "reconciler",
			Name:      "new_periods_total",
			Help:      "Periods reported as new since the previous run",
		},
		[]string{"category"},
	)
}

func (m *Metrics) initCacheMetrics(factory promauto.Factory) {
	m.CacheWrites = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "cache",
			Name:      "writes_total",
			Help:      "Known-periods cache writes, by outcome",
		},
		[]string{"outcome"},
	)

	m.KnownPeriods = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "cache",
			Name:      "known_periods",
			Help:      "Periods currently held by the known-periods cache",
		},
		[]string{"category"},
	)
}

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// ObserveFetch records one listing page fetch.
func (m *Metrics) ObserveFetch(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.Fetches.WithLabelValues(outcome(err)).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

// AddAccepted counts links kept for category from source.
func (m *Metrics) AddAccepted(category, source string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.LinksAccepted.WithLabelValues(category, source).Add(float64(n))
}

// AddDropped counts anchors dropped for reason.
func (m *Metrics) AddDropped(reason, source string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.LinksDropped.WithLabelValues(reason, source).Add(float64(n))
}

// IncStaticFallback records a missing static capture.
func (m *Metrics) IncStaticFallback(category string) {
	if m == nil {
		return
	}
	m.StaticFallbacks.WithLabelValues(category).Inc()
}

// AddNewPeriods counts periods reported as new.
func (m *Metrics) AddNewPeriods(category string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.NewPeriods.WithLabelValues(category).Add(float64(n))
}

// ObserveCacheWrite records one cache persist.
func (m *Metrics) ObserveCacheWrite(err error) {
	if m == nil {
		return
	}
	m.CacheWrites.WithLabelValues(outcome(err)).Inc()
}

// ResetKnownPeriods clears the cache size gauges of every category.
func (m *Metrics) ResetKnownPeriods() {
	if m == nil {
		return
	}
	m.KnownPeriods.Reset()
}

// SetKnownPeriods sets the cache size gauge for category.
func (m *Metrics) SetKnownPeriods(category string, n int) {
	if m == nil {
		return
	}
	m.KnownPeriods.WithLabelValues(category).Set(float64(n))
}
