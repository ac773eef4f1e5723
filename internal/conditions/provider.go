package conditions

import (
	"context"
)

// Report holds the resort-specific fields an adapter extracts from its upstream.
// Weather is nil when the provider publishes no live weather; the aggregator
// then backfills it from the first forecast period.
type Report struct {
	SnowDepth SnowDepth
	Weather   *Weather
	Lifts     Count
	Trails    *Count
}

// Adapter abstracts one upstream provider family (mtnpowder, vail header API).
type Adapter interface {
	Name() string
	FetchConditions(ctx context.Context, resort Resort) (Report, error)
}

// ForecastProvider returns a point forecast timeline for a coordinate pair.
type ForecastProvider interface {
	// GetForecast never fails: on any error it logs and returns an empty
	// timeline so a forecast outage does not fail the enclosing resort fetch.
	GetForecast(ctx context.Context, lat, lon float64) []ForecastPeriod
	// FetchForecast is the strict variant that reports failures.
	FetchForecast(ctx context.Context, lat, lon float64) ([]ForecastPeriod, error)
}

// Cache is the contract the TTL store satisfies for a single value type.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
}
