package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.AddAccepted("PMC", "LIVE", 3)
	m.AddDropped("no_period", "LIVE", 2)
	m.AddDropped("no_period", "LIVE", 0)
	m.ObserveFetch(150*time.Millisecond, nil)
	m.ObserveFetch(time.Second, errors.New("reset"))
	m.IncStaticFallback("PMVG")
	m.AddNewPeriods("PMC", 1)
	m.ObserveCacheWrite(nil)
	m.SetKnownPeriods("PMC", 12)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.LinksAccepted.WithLabelValues("PMC", "LIVE")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LinksDropped.WithLabelValues("no_period", "LIVE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fetches.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fetches.WithLabelValues(OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaticFallbacks.WithLabelValues("PMVG")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NewPeriods.WithLabelValues("PMC")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheWrites.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.KnownPeriods.WithLabelValues("PMC")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FetchDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AddAccepted("PMC", "LIVE", 1)
		m.AddDropped("x", "LIVE", 1)
		m.ObserveFetch(time.Second, nil)
		m.IncStaticFallback("PMC")
		m.AddNewPeriods("PMC", 1)
		m.ObserveCacheWrite(nil)
		m.SetKnownPeriods("PMC", 1)
	})
}

func TestPrivateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(nil)
		New(nil)
	})
}
