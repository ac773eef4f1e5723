package store

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

type snapshot struct {
	Base   float64
	Trails *int
}

func TestTTLCache_GetReturnsStoredValue(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewTTLCache[snapshot](time.Minute, clock)

	trails := 12
	want := snapshot{Base: 48, Trails: &trails}
	c.Set("kirkwood", want)

	got, ok := c.Get("kirkwood")
	assert.True(t, ok)
	assert.Equal(t, want, got)
	assert.Same(t, want.Trails, got.Trails)

	_, ok = c.Get("heavenly")
	assert.False(t, ok)
}

func TestTTLCache_Expiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewTTLCache[string](time.Minute, clock)
	c.Set("k", "v")

	clock.Advance(59 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry must be gone once its TTL has fully elapsed")
}

func TestTTLCache_SetRestartsTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewTTLCache[int](time.Minute, clock)

	c.Set("k", 1)
	clock.Advance(50 * time.Second)
	c.Set("k", 2)
	clock.Advance(50 * time.Second)

	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 2, got)
	assert.Equal(t, 1, c.Len())
}

func TestTTLCache_Defaults(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewTTLCache[int](0, clock)
	c.Set("k", 1)

	clock.Advance(DefaultTTL - time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)

	assert.NotNil(t, NewTTLCache[int](time.Second, nil).clock)
}
