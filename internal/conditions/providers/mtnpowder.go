package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
)

// DefaultMtnPowderFeedURL is the data feed queried with the bearer token.
const DefaultMtnPowderFeedURL = "https://mtnpowder.com/feed/v3.json"

// MtnPowderProvider reads the mtnpowder feed. It needs two requests: the
// resort's config document yields a bearer token and internal resort ids,
// which then parameterize the data feed request.
type MtnPowderProvider struct {
	name       string
	feedURL    string
	fallbackID []int
	httpCfg    HTTPClientConfig
	circuits   *breakerSet
}

// NewMtnPowderProvider creates the adapter. fallbackIDs are used when the
// config document has no resortIds field.
func NewMtnPowderProvider(httpCfg HTTPClientConfig, feedURL string, fallbackIDs ...int) *MtnPowderProvider {
	if feedURL == "" {
		feedURL = DefaultMtnPowderFeedURL
	}
	if len(fallbackIDs) == 0 {
		fallbackIDs = []int{61}
	}
	return &MtnPowderProvider{
		name:       conditions.AdapterMtnPowder,
		feedURL:    feedURL,
		fallbackID: fallbackIDs,
		httpCfg:    httpCfg.withDefaults(),
		circuits:   newBreakerSet(conditions.AdapterMtnPowder),
	}
}

func (p *MtnPowderProvider) Name() string {
	return p.name
}

// tokenConfig is the first pipeline stage: the resort config document.
type tokenConfig struct {
	BearerToken string       `json:"bearerToken"`
	ResortIDs   []flexNumber `json:"resortIds"`
}

// feedRequest is the second stage: the data feed URL built from the token.
func (c tokenConfig) feedRequest(feedURL string, fallback []int) (string, error) {
	if c.BearerToken == "" {
		return "", errors.New("config document has no bearerToken")
	}
	u, err := url.Parse(feedURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("bearer_token", c.BearerToken)
	ids := make([]string, 0, len(c.ResortIDs))
	for _, id := range c.ResortIDs {
		ids = append(ids, strconv.Itoa(id.Int()))
	}
	// Only an absent (or null) list falls back; an explicit [] is sent as is.
	if c.ResortIDs == nil {
		for _, id := range fallback {
			ids = append(ids, strconv.Itoa(id))
		}
	}
	q["resortId[]"] = ids
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type mtnPowderFeed struct {
	Resorts []mtnPowderResort `json:"Resorts"`
}

type mtnPowderResort struct {
	SnowReport struct {
		BaseArea struct {
			BaseIn flexNumber `json:"BaseIn"`
		} `json:"BaseArea"`
		SummitArea struct {
			BaseIn flexNumber `json:"BaseIn"`
		} `json:"SummitArea"`
		Last24HoursIn   flexNumber `json:"Last24HoursIn"`
		Last48HoursIn   flexNumber `json:"Last48HoursIn"`
		Last7DaysIn     flexNumber `json:"Last7DaysIn"`
		SeasonTotalIn   flexNumber `json:"SeasonTotalIn"`
		TotalOpenLifts  flexNumber `json:"TotalOpenLifts"`
		TotalLifts      flexNumber `json:"TotalLifts"`
		TotalOpenTrails flexNumber `json:"TotalOpenTrails"`
		TotalTrails     flexNumber `json:"TotalTrails"`
	} `json:"SnowReport"`
	CurrentConditions struct {
		Base *mtnPowderBase `json:"Base"`
	} `json:"CurrentConditions"`
}

type mtnPowderBase struct {
	Skies            string     `json:"Skies"`
	TemperatureF     flexNumber `json:"TemperatureF"`
	TemperatureHighF flexNumber `json:"TemperatureHighF"`
	TemperatureLowF  flexNumber `json:"TemperatureLowF"`
	WindDirection    string     `json:"WindDirection"`
	WindStrengthMph  flexNumber `json:"WindStrengthMph"`
	WindGustsMph     flexNumber `json:"WindGustsMph"`
}

func (p *MtnPowderProvider) FetchConditions(ctx context.Context, resort conditions.Resort) (conditions.Report, error) {
	cb := p.circuits.get(resort.ID)

	var cfg tokenConfig
	if err := fetchJSON(ctx, p.httpCfg, cb, resort.ID, "config", jsonMediaTypes, p.get(resort.FeedURL), &cfg); err != nil {
		return conditions.Report{}, err
	}

	dataURL, err := cfg.feedRequest(p.feedURL, p.fallbackID)
	if err != nil {
		return conditions.Report{}, &conditions.UpstreamError{Source: resort.ID, Stage: "config", Status: http.StatusOK, Err: err}
	}

	var feed mtnPowderFeed
	if err := fetchJSON(ctx, p.httpCfg, cb, resort.ID, "feed", jsonMediaTypes, p.get(dataURL), &feed); err != nil {
		return conditions.Report{}, err
	}
	if len(feed.Resorts) == 0 {
		return conditions.Report{}, &conditions.UpstreamError{
			Source: resort.ID,
			Stage:  "feed",
			Status: http.StatusOK,
			Err:    errors.New("feed contains no resort blocks"),
		}
	}

	return feed.Resorts[0].toReport(), nil
}

func (p *MtnPowderProvider) get(u string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}
}

func (r mtnPowderResort) toReport() conditions.Report {
	sr := r.SnowReport
	return conditions.Report{
		SnowDepth: conditions.SnowDepth{
			Base:        sr.BaseArea.BaseIn.Whole(),
			Summit:      sr.SummitArea.BaseIn.Whole(),
			NewSnow24h:  sr.Last24HoursIn.Whole(),
			NewSnow48h:  sr.Last48HoursIn.WholePtr(),
			NewSnow7Day: sr.Last7DaysIn.WholePtr(),
			SeasonTotal: sr.SeasonTotalIn.WholePtr(),
		},
		Weather: r.CurrentConditions.Base.weather(),
		Lifts:   conditions.Count{Open: sr.TotalOpenLifts.Int(), Total: sr.TotalLifts.Int()},
		Trails:  &conditions.Count{Open: sr.TotalOpenTrails.Int(), Total: sr.TotalTrails.Int()},
	}
}

// weather returns nil when the feed carries no usable base-area reading, so
// the forecast's first period is used instead.
func (b *mtnPowderBase) weather() *conditions.Weather {
	if b == nil || (b.Skies == "" && !b.TemperatureF.set) {
		return nil
	}
	current := b.Skies
	if current == "" {
		current = "See forecast"
	}
	return &conditions.Weather{
		Current: current,
		Temp:    b.TemperatureF.Float(),
		High:    b.TemperatureHighF.Float(),
		Low:     b.TemperatureLowF.Float(),
		Wind:    formatWind(b.WindDirection, b.WindStrengthMph, b.WindGustsMph),
	}
}

// formatWind renders "SW 10-25 mph", using "-" for each missing part.
func formatWind(dir string, speed, gusts flexNumber) string {
	part := func(n flexNumber) string {
		if !n.set || n.value == 0 {
			return "-"
		}
		return strconv.FormatFloat(n.value, 'f', -1, 64)
	}
	if strings.TrimSpace(dir) == "" {
		dir = "-"
	}
	return fmt.Sprintf("%s %s-%s mph", dir, part(speed), part(gusts))
}
