package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.UpstreamRequest("nws", "points", nil)
		m.ResortFetch("kirkwood", time.Second, errors.New("x"))
		m.CacheLookup(true)
	})
}

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.UpstreamRequest("palisades", "config", nil)
	m.UpstreamRequest("palisades", "feed", errors.New("status 503"))
	m.UpstreamRequest("palisades", "feed", errors.New("status 503"))
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)
	m.ResortFetch("palisades", 250*time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamRequests.WithLabelValues("palisades", "config", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.upstreamRequests.WithLabelValues("palisades", "feed", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.fetchDuration))
}
