// Package metrics exposes Prometheus collectors for upstream fetches and cache use.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	upstreamRequests *prometheus.CounterVec
	fetchDuration    *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skiconditions",
			Name:      "upstream_requests_total",
			Help:      "Upstream provider requests by source, stage and outcome.",
		}, []string{"source", "stage", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "skiconditions",
			Name:      "resort_fetch_duration_seconds",
			Help:      "Time to build one resort record on a cache miss.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resort", "outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skiconditions",
			Name:      "cache_lookups_total",
			Help:      "Conditions cache lookups by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.upstreamRequests, m.fetchDuration, m.cacheLookups)
	return m
}

// UpstreamRequest counts one provider call.
func (m *Metrics) UpstreamRequest(source, stage string, err error) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(source, stage, outcome(err)).Inc()
}

// ResortFetch observes the duration of a resort fetch.
func (m *Metrics) ResortFetch(resort string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(resort, outcome(err)).Observe(took.Seconds())
}

// CacheLookup counts a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
