package config

import (
	"fmt"
	"log"
	"strings"
	"time"
	_ "time/tzdata" // TIME_ZONE must resolve on images without a zoneinfo database

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
)

type AppConfig struct {
	Port string `envconfig:"PORT" default:"3001" validate:"required,numeric"`

	// CacheTTL is the lifetime of every conditions cache entry.
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"10m" validate:"gt=0"`

	// FetchTimeout bounds one resort fetch; HTTPTimeout bounds one request.
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s" validate:"gt=0"`
	HTTPTimeout  time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s" validate:"gt=0"`

	// Upstream calls are not retried unless this is raised.
	UpstreamMaxRetries int `envconfig:"UPSTREAM_MAX_RETRIES" default:"0" validate:"gte=0,lte=5"`

	// WarmInterval refreshes the cache in the background; 0 disables it.
	WarmInterval time.Duration `envconfig:"WARM_INTERVAL" default:"0" validate:"gte=0"`

	NWSBaseURL       string `envconfig:"NWS_BASE_URL" default:"https://api.weather.gov" validate:"required,url"`
	NWSUserAgent     string `envconfig:"NWS_USER_AGENT" default:"TahoeMeter/1.0" validate:"required"`
	MtnPowderFeedURL string `envconfig:"MTNPOWDER_FEED_URL" default:"https://mtnpowder.com/feed/v3.json" validate:"required,url"`

	TimeZone string `envconfig:"TIME_ZONE" default:"America/Los_Angeles" validate:"required"`

	// General area forecast point (Palisades Tahoe).
	AreaLat float64 `envconfig:"AREA_LAT" default:"39.1911" validate:"latitude"`
	AreaLon float64 `envconfig:"AREA_LON" default:"-120.2359" validate:"longitude"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"*"`

	Resorts []conditions.Resort `ignored:"true" validate:"required,min=1,dive"`

	location *time.Location
}

// Location returns the parsed TimeZone.
func (c *AppConfig) Location() *time.Location {
	return c.location
}

var validate = validator.New()

// Load reads configuration from the environment (and an optional .env file)
// with sensible defaults, and attaches the static resort table.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv()
}

// FromEnv is Load without the .env file.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Resorts = DefaultResorts()

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE: %w", err)
	}
	cfg.location = loc

	return cfg, nil
}

// DefaultResorts is the static per-resort table: coordinates and the adapter
// that understands each resort's upstream.
func DefaultResorts() []conditions.Resort {
	return []conditions.Resort{
		{
			ID:      "palisades",
			Name:    "Palisades Tahoe",
			Lat:     39.1911,
			Lon:     -120.2359,
			Adapter: conditions.AdapterMtnPowder,
			FeedURL: "https://v4.mtnfeed.com/resorts/palisades-tahoe.json",
		},
		{
			ID:      "heavenly",
			Name:    "Heavenly",
			Lat:     38.9352,
			Lon:     -119.9392,
			Adapter: conditions.AdapterVail,
			FeedURL: "https://www.skiheavenly.com/api/PageApi/GetWeatherDataForHeader",
		},
		{
			ID:      "kirkwood",
			Name:    "Kirkwood",
			Lat:     38.684,
			Lon:     -120.0664,
			Adapter: conditions.AdapterVail,
			FeedURL: "https://www.kirkwood.com/api/PageApi/GetWeatherDataForHeader",
		},
		{
			ID:      "northstar",
			Name:    "Northstar",
			Lat:     39.2734,
			Lon:     -120.1218,
			Adapter: conditions.AdapterVail,
			FeedURL: "https://www.northstarcalifornia.com/api/PageApi/GetWeatherDataForHeader",
		},
	}
}
