package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
)

// NWSProvider implements conditions.ForecastProvider on api.weather.gov.
// A forecast takes two requests: the points lookup resolves a coordinate to
// its gridpoint forecast URL, which is then fetched.
type NWSProvider struct {
	name      string
	baseURL   string
	userAgent string
	httpCfg   HTTPClientConfig
	circuit   *gobreaker.CircuitBreaker
}

func NewNWSProvider(httpCfg HTTPClientConfig, baseURL, userAgent string) *NWSProvider {
	return &NWSProvider{
		name:      "nws",
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpCfg:   httpCfg.withDefaults(),
		circuit:   newBreaker("nws"),
	}
}

func (p *NWSProvider) Name() string {
	return p.name
}

type nwsPointsResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

type nwsForecastResponse struct {
	Properties struct {
		Periods []nwsPeriod `json:"periods"`
	} `json:"properties"`
}

type nwsPeriod struct {
	Name                       string  `json:"name"`
	StartTime                  string  `json:"startTime"`
	Temperature                float64 `json:"temperature"`
	TemperatureUnit            string  `json:"temperatureUnit"`
	WindSpeed                  string  `json:"windSpeed"`
	ShortForecast              string  `json:"shortForecast"`
	DetailedForecast           string  `json:"detailedForecast"`
	ProbabilityOfPrecipitation struct {
		Value *float64 `json:"value"`
	} `json:"probabilityOfPrecipitation"`
}

// GetForecast returns the timeline for lat/lon, or an empty timeline when the
// lookup fails. Forecast data is supplementary to resort conditions, so the
// failure is logged rather than returned.
func (p *NWSProvider) GetForecast(ctx context.Context, lat, lon float64) []conditions.ForecastPeriod {
	periods, err := p.FetchForecast(ctx, lat, lon)
	if err != nil {
		p.httpCfg.Logger.Warn("forecast unavailable; continuing without it",
			zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		return []conditions.ForecastPeriod{}
	}
	return periods
}

// FetchForecast returns the timeline in upstream order.
func (p *NWSProvider) FetchForecast(ctx context.Context, lat, lon float64) ([]conditions.ForecastPeriod, error) {
	pointsURL := fmt.Sprintf("%s/points/%s,%s", p.baseURL, coord(lat), coord(lon))

	var points nwsPointsResponse
	if err := fetchJSON(ctx, p.httpCfg, p.circuit, p.name, "points", geoJSONMediaTypes, p.get(pointsURL), &points); err != nil {
		return nil, err
	}
	if points.Properties.Forecast == "" {
		return nil, &conditions.UpstreamError{
			Source: p.name,
			Stage:  "points",
			Status: http.StatusOK,
			Err:    errors.New("points response has no forecast URL"),
		}
	}

	var forecast nwsForecastResponse
	if err := fetchJSON(ctx, p.httpCfg, p.circuit, p.name, "forecast", geoJSONMediaTypes, p.get(points.Properties.Forecast), &forecast); err != nil {
		return nil, err
	}

	out := make([]conditions.ForecastPeriod, 0, len(forecast.Properties.Periods))
	for _, np := range forecast.Properties.Periods {
		out = append(out, np.toPeriod())
	}
	return out, nil
}

func (p *NWSProvider) get(u string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", p.userAgent)
		req.Header.Set("Accept", "application/geo+json")
		return req, nil
	}
}

func (np nwsPeriod) toPeriod() conditions.ForecastPeriod {
	// A malformed start time leaves Date zero; window slicing skips such periods.
	start, _ := time.Parse(time.RFC3339, np.StartTime)

	precip := 0
	if v := np.ProbabilityOfPrecipitation.Value; v != nil {
		precip = int(math.Round(*v))
	}

	return conditions.ForecastPeriod{
		Date:             start,
		Name:             np.Name,
		High:             np.Temperature,
		Low:              np.Temperature,
		Conditions:       np.ShortForecast,
		PrecipChance:     precip,
		TemperatureUnit:  np.TemperatureUnit,
		WindSpeed:        np.WindSpeed,
		DetailedForecast: np.DetailedForecast,
	}
}

// coord formats a coordinate with at most four decimals; the points API
// redirects anything more precise.
func coord(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}
