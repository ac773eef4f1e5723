package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
	"github.com/i474232898/ski-conditions-aggregation/internal/metrics"
)

// maxBodyBytes bounds how much of an upstream payload is read.
const maxBodyBytes = 8 << 20

// BackoffConfig controls exponential backoff behaviour. MaxRetries of zero
// disables retries.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles the HTTP client, resilience settings and the
// observability hooks shared by all providers.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// NewHTTPClientConfig returns a config with the default backoff intervals.
func NewHTTPClientConfig(client *http.Client, maxRetries int, logger *zap.Logger, m *metrics.Metrics) HTTPClientConfig {
	if logger == nil {
		logger = zap.NewNop()
	}
	return HTTPClientConfig{
		Client: client,
		Backoff: BackoffConfig{
			MaxRetries:      maxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		Logger:  logger,
		Metrics: m,
	}
}

func (c HTTPClientConfig) withDefaults() HTTPClientConfig {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

var (
	errUnexpected    = errors.New("unexpected status code")
	errNotJSON       = errors.New("response is not JSON")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")

	// errRequestAbandoned marks a call cut short by the caller's context. It
	// says nothing about upstream health, so breakers do not count it.
	errRequestAbandoned = errors.New("request abandoned by caller")
)

// Accepted response media types per upstream.
var (
	jsonMediaTypes    = []string{"application/json"}
	geoJSONMediaTypes = []string{"application/geo+json", "application/json"}
)

// statusError carries a non-2xx response out of the circuit breaker.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v: %d", errUnexpected, e.status)
}

func (e *statusError) retryable() bool {
	return e.status == http.StatusTooManyRequests || e.status >= 500
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         name,
		MaxRequests:  5,
		Interval:     1 * time.Minute,
		Timeout:      2 * time.Minute,
		IsSuccessful: upstreamHealthy,
	})
}

// upstreamHealthy tells the breaker which outcomes do not count against the
// upstream. Calls abandoned by the caller are not failures.
func upstreamHealthy(err error) bool {
	return err == nil || errors.Is(err, errRequestAbandoned)
}

// breakerSet lazily creates one circuit breaker per upstream so a failing
// resort cannot open the circuit for its siblings on a shared adapter.
type breakerSet struct {
	prefix string
	mu     sync.Mutex
	m      map[string]*gobreaker.CircuitBreaker
}

func newBreakerSet(prefix string) *breakerSet {
	return &breakerSet{prefix: prefix, m: make(map[string]*gobreaker.CircuitBreaker)}
}

func (b *breakerSet) get(key string) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	cb, ok := b.m[key]
	if !ok {
		cb = newBreaker(b.prefix + ":" + key)
		b.m[key] = cb
	}
	return cb
}

// doRequestWithResilience executes the HTTP request through a circuit breaker,
// retrying transport errors, 429 and 5xx with exponential backoff when
// retries are configured.
func doRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || (cfg.Backoff.MaxRetries > 0 && cfg.Backoff.InitialInterval <= 0) {
		return nil, errInvalidConfig
	}

	var attempt int
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest(ctx)
		if err != nil {
			return nil, err
		}

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("%w: %w", errRequestAbandoned, execErr)
				}
				return nil, execErr
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				defer resp.Body.Close()
				return nil, &statusError{status: resp.StatusCode, body: readSnippet(resp.Body)}
			}
			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		if errors.Is(err, errRequestAbandoned) {
			return nil, err
		}

		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			return nil, err
		}
		if attempt >= cfg.Backoff.MaxRetries {
			return nil, err
		}

		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

// fetchJSON performs a GET through doRequestWithResilience and decodes a JSON
// body into out. The response media type must be one of mediaTypes. Every failure is returned as a *conditions.UpstreamError
// tagged with source and stage, and logged with status and body excerpt.
func fetchJSON(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	source, stage string,
	mediaTypes []string,
	buildRequest func(ctx context.Context) (*http.Request, error),
	out any,
) (err error) {
	defer func() {
		cfg.Metrics.UpstreamRequest(source, stage, err)
		var ue *conditions.UpstreamError
		if errors.As(err, &ue) {
			cfg.Logger.Warn("upstream request failed",
				zap.String("source", source),
				zap.String("stage", stage),
				zap.Int("status", ue.Status),
				zap.String("body", ue.Snippet),
				zap.Error(ue.Err),
			)
		}
	}()

	resp, err := doRequestWithResilience(ctx, cfg, cb, buildRequest)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return &conditions.UpstreamError{Source: source, Stage: stage, Status: se.status, Snippet: se.body, Err: errUnexpected}
		}
		return &conditions.UpstreamError{Source: source, Stage: stage, Err: err}
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !hasMediaType(ct, mediaTypes) {
		return &conditions.UpstreamError{
			Source:  source,
			Stage:   stage,
			Status:  resp.StatusCode,
			Snippet: readSnippet(resp.Body),
			Err:     fmt.Errorf("%w: content-type %q", errNotJSON, ct),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &conditions.UpstreamError{Source: source, Stage: stage, Status: resp.StatusCode, Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &conditions.UpstreamError{
			Source:  source,
			Stage:   stage,
			Status:  resp.StatusCode,
			Snippet: conditions.Truncate(string(body), conditions.MaxSnippetLen),
			Err:     fmt.Errorf("%w: %v", errNotJSON, err),
		}
	}
	return nil
}

// hasMediaType reports whether the Content-Type header names one of allowed,
// ignoring parameters such as charset.
func hasMediaType(contentType string, allowed []string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return slices.Contains(allowed, mt)
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4*conditions.MaxSnippetLen))
	return conditions.Truncate(string(b), conditions.MaxSnippetLen)
}
