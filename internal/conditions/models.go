package conditions

import (
	"encoding/json"
	"time"
)

// Adapter names used in the static resort table.
const (
	AdapterMtnPowder = "mtnpowder"
	AdapterVail      = "vail"
)

// Resort is one ski area with fixed coordinates and a designated upstream adapter.
type Resort struct {
	ID      string  `validate:"required"`
	Name    string  `validate:"required"`
	Lat     float64 `validate:"latitude"`
	Lon     float64 `validate:"longitude"`
	Adapter string  `validate:"oneof=mtnpowder vail"`
	// FeedURL is the config document for mtnpowder resorts and the
	// header weather API for vail resorts.
	FeedURL string `validate:"required,url"`
}

// SnowDepth is reported in inches. Optional fields are nil when the
// provider does not publish them.
type SnowDepth struct {
	Base        float64  `json:"base"`
	Summit      float64  `json:"summit"`
	NewSnow24h  float64  `json:"newSnow24h"`
	NewSnow48h  *float64 `json:"newSnow48h,omitempty"`
	NewSnow7Day *float64 `json:"newSnow7day,omitempty"`
	SeasonTotal *float64 `json:"seasonTotal,omitempty"`
}

type Weather struct {
	Current string  `json:"current"`
	Temp    float64 `json:"temp"`
	High    float64 `json:"high"`
	Low     float64 `json:"low"`
	Wind    string  `json:"wind,omitempty"`
}

// Count is an open/total pair used for lifts and trails.
type Count struct {
	Open  int `json:"open"`
	Total int `json:"total"`
}

type Conditions struct {
	SnowDepth SnowDepth `json:"snowDepth"`
	Weather   Weather   `json:"weather"`
	Lifts     Count     `json:"lifts"`
	Trails    *Count    `json:"trails,omitempty"`
}

// ForecastPeriod is one named slot ("Saturday Night") of a forecast timeline.
type ForecastPeriod struct {
	Date         time.Time `json:"date"`
	Name         string    `json:"name"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Conditions   string    `json:"conditions"`
	PrecipChance int       `json:"precipChance"`

	TemperatureUnit  string `json:"temperatureUnit,omitempty"`
	WindSpeed        string `json:"windSpeed,omitempty"`
	DetailedForecast string `json:"detailedForecast,omitempty"`
}

// IsZero reports whether p is the empty period used when a timeline has no entries.
func (p ForecastPeriod) IsZero() bool {
	return p.Date.IsZero() && p.Name == "" && p.Conditions == ""
}

// MarshalJSON renders the empty period as {} so clients always see an object.
func (p ForecastPeriod) MarshalJSON() ([]byte, error) {
	if p.IsZero() {
		return []byte("{}"), nil
	}
	type plain ForecastPeriod
	return json.Marshal(plain(p))
}

// Forecasts holds the slices cut from a single forecast timeline.
type Forecasts struct {
	Today       ForecastPeriod   `json:"today"`
	ThisWeekend []ForecastPeriod `json:"thisWeekend"`
	NextWeekend []ForecastPeriod `json:"nextWeekend"`
}

// ResortConditions is the unified record served for one resort.
type ResortConditions struct {
	Name        string     `json:"name"`
	ID          string     `json:"id"`
	Conditions  Conditions `json:"conditions"`
	Forecasts   Forecasts  `json:"forecasts"`
	LastUpdated time.Time  `json:"lastUpdated"` // UTC, set when the fetch completes
}

// AreaSummary is the Friday-anchored grouping used for the general forecast.
type AreaSummary struct {
	TodayTomorrow []ForecastPeriod `json:"todayTomorrow"`
	ThisWeekend   []ForecastPeriod `json:"thisWeekend"`
	NextWeekend   []ForecastPeriod `json:"nextWeekend"`
}

// AreaForecast is the cached general (non-resort) forecast.
type AreaForecast struct {
	Periods []ForecastPeriod `json:"periods"`
	AreaSummary
	LastUpdated time.Time `json:"lastUpdated"`
}
