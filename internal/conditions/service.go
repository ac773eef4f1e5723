package conditions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/ski-conditions-aggregation/internal/metrics"
)

const (
	// AreaForecastKey is the cache key of the general area forecast.
	AreaForecastKey = "generalForecast"

	// MaxAreaPeriods caps the general forecast (about ten days of NWS periods).
	MaxAreaPeriods = 20

	defaultFetchTimeout = 15 * time.Second
)

// Config wires the Service. Resorts, Adapters, Forecasts and ResortCache are required.
type Config struct {
	Resorts   []Resort
	Adapters  []Adapter
	Forecasts ForecastProvider

	ResortCache Cache[ResortConditions]
	AreaCache   Cache[AreaForecast]

	// Coordinates of the general area forecast.
	AreaLat float64
	AreaLon float64

	// FetchTimeout bounds one resort fetch (adapter and forecast together).
	FetchTimeout time.Duration
	// Location is the local time zone for weekend arithmetic.
	Location *time.Location
	Clock    clockwork.Clock
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// Service resolves resort conditions from the cache or the upstream adapters.
type Service struct {
	resorts  []Resort
	byID     map[string]Resort
	adapters map[string]Adapter
	forecast ForecastProvider

	cache     Cache[ResortConditions]
	areaCache Cache[AreaForecast]
	areaLat   float64
	areaLon   float64

	fetchTimeout time.Duration
	location     *time.Location
	clock        clockwork.Clock
	logger       *zap.Logger
	metrics      *metrics.Metrics
}

// NewService validates the resort table against the available adapters.
func NewService(cfg Config) (*Service, error) {
	if len(cfg.Resorts) == 0 {
		return nil, errors.New("no resorts configured")
	}
	if cfg.Forecasts == nil || cfg.ResortCache == nil {
		return nil, errors.New("forecast provider and resort cache are required")
	}

	s := &Service{
		resorts:      cfg.Resorts,
		byID:         make(map[string]Resort, len(cfg.Resorts)),
		adapters:     make(map[string]Adapter, len(cfg.Adapters)),
		forecast:     cfg.Forecasts,
		cache:        cfg.ResortCache,
		areaCache:    cfg.AreaCache,
		areaLat:      cfg.AreaLat,
		areaLon:      cfg.AreaLon,
		fetchTimeout: cfg.FetchTimeout,
		location:     cfg.Location,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}
	if s.fetchTimeout <= 0 {
		s.fetchTimeout = defaultFetchTimeout
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	for _, a := range cfg.Adapters {
		s.adapters[a.Name()] = a
	}
	for _, r := range cfg.Resorts {
		if _, dup := s.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate resort id %q", r.ID)
		}
		if _, ok := s.adapters[r.Adapter]; !ok {
			return nil, fmt.Errorf("resort %q: no adapter registered for %q", r.ID, r.Adapter)
		}
		s.byID[r.ID] = r
	}
	return s, nil
}

// Resorts returns the configured resort table in order.
func (s *Service) Resorts() []Resort {
	return s.resorts
}

// GetResort returns one resort's conditions, fetching on a cache miss.
func (s *Service) GetResort(ctx context.Context, id string) (ResortConditions, error) {
	r, ok := s.byID[id]
	if !ok {
		return ResortConditions{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return s.resolve(ctx, r)
}

// GetAllResorts resolves every resort concurrently and returns the ones that
// succeeded, in configuration order. It fails only when all of them failed.
func (s *Service) GetAllResorts(ctx context.Context) ([]ResortConditions, error) {
	return s.fanOut(ctx, s.resolve)
}

// RefreshAll refetches every resort and the area forecast regardless of the
// cache state. Failures leave existing cache entries untouched.
func (s *Service) RefreshAll(ctx context.Context) error {
	_, err := s.fanOut(ctx, s.refresh)

	var areaErr error
	if s.areaCache != nil {
		_, areaErr = s.refreshArea(ctx)
	}
	return errors.Join(err, areaErr)
}

func (s *Service) fanOut(ctx context.Context, fetch func(context.Context, Resort) (ResortConditions, error)) ([]ResortConditions, error) {
	var (
		g       errgroup.Group
		results = make([]ResortConditions, len(s.resorts))
		errs    = make([]error, len(s.resorts))
	)

	for i, r := range s.resorts {
		i, r := i, r
		g.Go(func() error {
			// Failures are recorded, never returned, so no task is cut short.
			results[i], errs[i] = fetch(ctx, r)
			if errs[i] != nil {
				s.logger.Warn("resort unavailable; omitting from aggregate",
					zap.String("resort", r.ID), zap.Error(errs[i]))
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]ResortConditions, 0, len(results))
	for i := range results {
		if errs[i] == nil {
			out = append(out, results[i])
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrAllSourcesUnavailable, errors.Join(errs...))
	}
	return out, nil
}

func (s *Service) resolve(ctx context.Context, r Resort) (ResortConditions, error) {
	if v, ok := s.cache.Get(r.ID); ok {
		s.metrics.CacheLookup(true)
		return v, nil
	}
	s.metrics.CacheLookup(false)
	return s.refresh(ctx, r)
}

func (s *Service) refresh(ctx context.Context, r Resort) (ResortConditions, error) {
	start := s.clock.Now()
	v, err := s.fetchResort(ctx, r)
	s.metrics.ResortFetch(r.ID, s.clock.Since(start), err)
	if err != nil {
		return ResortConditions{}, err
	}
	s.cache.Set(r.ID, v)
	return v, nil
}

// fetchResort runs the adapter and the forecast lookup concurrently and
// merges them into one record.
func (s *Service) fetchResort(ctx context.Context, r Resort) (ResortConditions, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	adapter := s.adapters[r.Adapter]

	var (
		report  Report
		periods []ForecastPeriod
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rep, err := adapter.FetchConditions(gctx, r)
		if err != nil {
			return err
		}
		report = rep
		return nil
	})
	g.Go(func() error {
		periods = s.forecast.GetForecast(gctx, r.Lat, r.Lon)
		return nil
	})
	if err := g.Wait(); err != nil {
		if !errors.Is(err, ErrUpstreamUnavailable) {
			err = &UpstreamError{Source: r.ID, Stage: "fetch", Err: err}
		}
		return ResortConditions{}, fmt.Errorf("fetch %s: %w", r.ID, err)
	}

	now := s.clock.Now()
	return ResortConditions{
		Name: r.Name,
		ID:   r.ID,
		Conditions: Conditions{
			SnowDepth: report.SnowDepth,
			Weather:   liveOrForecastWeather(report.Weather, periods),
			Lifts:     report.Lifts,
			Trails:    report.Trails,
		},
		Forecasts:   ResortWindows(periods, now.In(s.location)),
		LastUpdated: now.UTC(),
	}, nil
}

func liveOrForecastWeather(live *Weather, periods []ForecastPeriod) Weather {
	if live != nil {
		return *live
	}
	if len(periods) == 0 {
		return Weather{Current: "See forecast"}
	}
	p := periods[0]
	return Weather{
		Current: p.Conditions,
		Temp:    p.High,
		High:    p.High,
		Low:     p.Low,
		Wind:    p.WindSpeed,
	}
}

// GetAreaForecast returns the general area forecast with its weekend summary.
// Unlike resort forecasts, a failed or empty timeline is an error and is not cached.
func (s *Service) GetAreaForecast(ctx context.Context) (AreaForecast, error) {
	if s.areaCache != nil {
		if v, ok := s.areaCache.Get(AreaForecastKey); ok {
			s.metrics.CacheLookup(true)
			return v, nil
		}
		s.metrics.CacheLookup(false)
	}
	return s.refreshArea(ctx)
}

func (s *Service) refreshArea(ctx context.Context) (AreaForecast, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	periods, err := s.forecast.FetchForecast(ctx, s.areaLat, s.areaLon)
	if err != nil {
		return AreaForecast{}, fmt.Errorf("area forecast: %w", err)
	}
	if len(periods) == 0 {
		return AreaForecast{}, &UpstreamError{Source: "area", Stage: "forecast", Err: errors.New("empty forecast timeline")}
	}
	if len(periods) > MaxAreaPeriods {
		periods = periods[:MaxAreaPeriods]
	}

	now := s.clock.Now()
	af := AreaForecast{
		Periods:     periods,
		AreaSummary: AreaWindows(periods, now.In(s.location)),
		LastUpdated: now.UTC(),
	}
	if s.areaCache != nil {
		s.areaCache.Set(AreaForecastKey, af)
	}
	return af, nil
}
