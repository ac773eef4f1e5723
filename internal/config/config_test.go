package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.Zero(t, cfg.UpstreamMaxRetries)
	assert.Zero(t, cfg.WarmInterval)
	assert.Equal(t, "https://api.weather.gov", cfg.NWSBaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "America/Los_Angeles", cfg.Location().String())
	assert.Len(t, cfg.Resorts, 4)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("WARM_INTERVAL", "5m")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("TIME_ZONE", "UTC")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 5*time.Minute, cfg.WarmInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"unparseable ttl":  {"CACHE_TTL", "ten minutes"},
		"zero ttl":         {"CACHE_TTL", "0s"},
		"unknown level":    {"LOG_LEVEL", "verbose"},
		"bad port":         {"PORT", "http"},
		"too many retries": {"UPSTREAM_MAX_RETRIES", "9"},
		"bad zone":         {"TIME_ZONE", "Mars/Olympus_Mons"},
		"bad nws url":      {"NWS_BASE_URL", "not a url"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestDefaultResorts(t *testing.T) {
	resorts := DefaultResorts()
	require.NoError(t, validate.Var(resorts, "dive"))

	byID := map[string]conditions.Resort{}
	for _, r := range resorts {
		byID[r.ID] = r
	}
	assert.Equal(t, conditions.AdapterMtnPowder, byID["palisades"].Adapter)
	for _, id := range []string{"heavenly", "kirkwood", "northstar"} {
		assert.Equal(t, conditions.AdapterVail, byID[id].Adapter, id)
	}
	assert.InDelta(t, 38.684, byID["kirkwood"].Lat, 1e-9)
}
