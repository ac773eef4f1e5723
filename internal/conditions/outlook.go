package conditions

import (
	"github.com/i474232898/ski-conditions-aggregation/internal/common"
)

// Outlook levels, from best to worst.
const (
	OutlookPowderAlert = "powder-alert"
	OutlookMixed       = "mixed"
	OutlookLightSnow   = "light-snow"
	OutlookClear       = "clear"
	OutlookChecking    = "checking"
)

// Outlook is a one-line "should I go" verdict across all resorts.
type Outlook struct {
	Level       string  `json:"level"`
	Headline    string  `json:"headline"`
	Description string  `json:"description"`
	AvgSnow24h  float64 `json:"avgSnow24h"`
	AvgSnow48h  float64 `json:"avgSnow48h"`
	SnowPeriods int     `json:"snowPeriods"`
	MaxPrecip   int     `json:"maxPrecipChance"`
	Resorts     int     `json:"resorts"`
}

// ComputeOutlook scores recent snowfall and upcoming snow in today's and this
// weekend's forecasts.
func ComputeOutlook(resorts []ResortConditions) Outlook {
	if len(resorts) == 0 {
		return Outlook{
			Level:       OutlookChecking,
			Headline:    "Checking Conditions...",
			Description: "Analyzing weather and travel data",
		}
	}

	o := Outlook{Resorts: len(resorts)}
	var sum24, sum48 float64
	for _, r := range resorts {
		sum24 += r.Conditions.SnowDepth.NewSnow24h
		if r.Conditions.SnowDepth.NewSnow48h != nil {
			sum48 += *r.Conditions.SnowDepth.NewSnow48h
		}

		periods := append([]ForecastPeriod{r.Forecasts.Today}, r.Forecasts.ThisWeekend...)
		for _, p := range periods {
			if common.ContainsAnyFold(p.Conditions, "snow") {
				o.SnowPeriods++
			}
			o.MaxPrecip = max(o.MaxPrecip, p.PrecipChance)
		}
	}
	n := float64(len(resorts))
	o.AvgSnow24h = sum24 / n
	o.AvgSnow48h = sum48 / n

	switch {
	case o.AvgSnow24h >= 6 || o.AvgSnow48h >= 12 || o.SnowPeriods >= 3:
		o.Level, o.Headline, o.Description = OutlookPowderAlert, "Powder Alert!", "Fresh snow and great conditions expected"
	case o.AvgSnow24h >= 3 || o.AvgSnow48h >= 6 || o.SnowPeriods >= 1 || o.MaxPrecip >= 50:
		o.Level, o.Headline, o.Description = OutlookMixed, "Mixed Conditions", "Some snow possible - check individual resorts"
	case o.AvgSnow24h > 0 || o.MaxPrecip >= 30:
		o.Level, o.Headline, o.Description = OutlookLightSnow, "Light Snow Possible", "Check forecasts and road conditions"
	default:
		o.Level, o.Headline, o.Description = OutlookClear, "Clear Skies", "No new snow expected - good for spring skiing"
	}
	return o
}
