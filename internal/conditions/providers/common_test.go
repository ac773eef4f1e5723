package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRequest(u string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}
}

func TestBreaker_IgnoresRequestsAbandonedByCaller(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	cfg := testHTTPConfig(t, srv)
	cb := newBreaker("test")

	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		_, err := doRequestWithResilience(ctx, cfg, cb, getRequest(srv.URL))
		cancel()

		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled), "got %v", err)
	}

	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Zero(t, cb.Counts().TotalFailures)
}

func TestBreaker_CountsUpstreamFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testHTTPConfig(t, srv)
	cb := newBreaker("test")

	for i := 0; i < 6; i++ {
		_, err := doRequestWithResilience(context.Background(), cfg, cb, getRequest(srv.URL))
		var se *statusError
		require.ErrorAs(t, err, &se)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := doRequestWithResilience(context.Background(), cfg, cb, getRequest(srv.URL))
	assert.ErrorIs(t, err, errCircuitOpen)
}

func TestHasMediaType(t *testing.T) {
	assert.True(t, hasMediaType("application/json", jsonMediaTypes))
	assert.True(t, hasMediaType("Application/JSON; charset=utf-8", jsonMediaTypes))
	assert.False(t, hasMediaType("text/json", jsonMediaTypes))
	assert.False(t, hasMediaType("application/geo+json", jsonMediaTypes))
	assert.False(t, hasMediaType("", jsonMediaTypes))
	assert.True(t, hasMediaType("application/geo+json", geoJSONMediaTypes))
}
