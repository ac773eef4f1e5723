package providers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
)

// browserUserAgent is sent because the header API rejects default client identifiers.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// VailProvider reads the header weather endpoint shared by Vail-operated
// resorts. One GET per resort, no token exchange.
type VailProvider struct {
	name     string
	httpCfg  HTTPClientConfig
	circuits *breakerSet
	clock    clockwork.Clock
}

func NewVailProvider(httpCfg HTTPClientConfig, clock clockwork.Clock) *VailProvider {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &VailProvider{
		name:     conditions.AdapterVail,
		httpCfg:  httpCfg.withDefaults(),
		circuits: newBreakerSet(conditions.AdapterVail),
		clock:    clock,
	}
}

func (p *VailProvider) Name() string {
	return p.name
}

type vailPayload struct {
	BaseDepthStandard              flexNumber `json:"BaseDepthStandard"`
	TwentyFourHourSnowfallStandard flexNumber `json:"TwentyFourHourSnowfallStandard"`
	OpenLifts                      flexNumber `json:"OpenLifts"`
	TotalLifts                     flexNumber `json:"TotalLifts"`
	CurrentTempStandard            flexNumber `json:"CurrentTempStandard"`
	HighTempStandard               flexNumber `json:"HighTempStandard"`
	LowTempStandard                flexNumber `json:"LowTempStandard"`
	WeatherShortDescription        string     `json:"WeatherShortDescription"`
}

func (p *VailProvider) FetchConditions(ctx context.Context, resort conditions.Resort) (conditions.Report, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		u, err := url.Parse(resort.FeedURL)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		q.Set("_", strconv.FormatInt(p.clock.Now().UnixMilli(), 10))
		u.RawQuery = q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		site := siteRoot(resort.FeedURL)
		req.Header.Set("User-Agent", browserUserAgent)
		req.Header.Set("Accept", "application/json, text/plain, */*")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Referer", site)
		req.Header.Set("Origin", site)
		return req, nil
	}

	var payload vailPayload
	if err := fetchJSON(ctx, p.httpCfg, p.circuits.get(resort.ID), resort.ID, "conditions", jsonMediaTypes, buildRequest, &payload); err != nil {
		return conditions.Report{}, err
	}
	return payload.toReport(), nil
}

func (v vailPayload) toReport() conditions.Report {
	desc := v.WeatherShortDescription
	if desc == "" {
		desc = "Unknown"
	}
	return conditions.Report{
		SnowDepth: conditions.SnowDepth{
			Base: v.BaseDepthStandard.Float(),
			// The header API publishes a single depth.
			Summit:     v.BaseDepthStandard.Float(),
			NewSnow24h: v.TwentyFourHourSnowfallStandard.Float(),
		},
		Weather: &conditions.Weather{
			Current: desc,
			Temp:    v.CurrentTempStandard.Float(),
			High:    v.HighTempStandard.Float(),
			Low:     v.LowTempStandard.Float(),
		},
		Lifts: conditions.Count{Open: v.OpenLifts.Int(), Total: v.TotalLifts.Int()},
	}
}

// siteRoot returns the part of an API URL before "/api/".
func siteRoot(apiURL string) string {
	if i := strings.Index(apiURL, "/api/"); i >= 0 {
		return apiURL[:i]
	}
	return apiURL
}
