package recipeapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/yungbote/foodgram-backend/internal/observability"
	"github.com/yungbote/foodgram-backend/internal/pkg/httpx"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

const (
	SourceMealDB     = "themealdb"
	SourceCocktailDB = "thecocktaildb"

	// DefaultTimeout bounds every outbound call.
	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 4 << 20
)

type Config struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Source     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Source, e.StatusCode)
}

func (e *StatusError) HTTPStatusCode() int { return e.StatusCode }

// Client fetches random entries from a TheMealDB-style JSON API. Calls go
// through a token bucket and a circuit breaker shared by all callers.
type Client struct {
	log     *logger.Logger
	source  string
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[json.RawMessage]
	metrics *observability.Metrics
}

func New(log *logger.Logger, source string, cfg Config, metrics *observability.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	c := &Client{
		log:     log.With("client", "RecipeAPI", "source", source),
		source:  source,
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		metrics: metrics,
	}
	metrics.SetCircuitState(source, 0)
	c.cb = gobreaker.NewCircuitBreaker[json.RawMessage](gobreaker.Settings{
		Name:        source,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Client errors say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || (!httpx.IsRetryableError(err) && !isTransportError(err))
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("circuit breaker state change", "from", from.String(), "to", to.String())
			c.metrics.SetCircuitState(name, stateValue(to))
			c.metrics.IncCircuitTransition(name, from.String(), to.String())
		},
	})
	return c
}

func (c *Client) Source() string { return c.source }

// RandomURL is GET {base}/api/json/v1/{key}/random.php.
func (c *Client) RandomURL() string {
	return fmt.Sprintf("%s/api/json/v1/%s/random.php", c.baseURL, c.apiKey)
}

// Random returns the raw JSON document of one random entry.
func (c *Client) Random(ctx context.Context) (json.RawMessage, error) {
	out, err := c.cb.Execute(func() (json.RawMessage, error) {
		return c.get(ctx, c.RandomURL())
	})
	switch {
	case err == nil:
		c.metrics.IncExternalRequest(c.source, "success")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.metrics.IncExternalRequest(c.source, "rejected")
		return nil, fmt.Errorf("%s: %w", c.source, err)
	default:
		c.metrics.IncExternalRequest(c.source, "failure")
	}
	return out, err
}

func (c *Client) get(ctx context.Context, url string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: rate limit wait: %w", c.source, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", c.source, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &transportError{source: c.source, err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{Source: c.source, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &transportError{source: c.source, err: err}
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%s: malformed JSON response", c.source)
	}
	return json.RawMessage(body), nil
}

type transportError struct {
	source string
	err    error
}

func (e *transportError) Error() string { return fmt.Sprintf("%s: request failed: %v", e.source, e.err) }
func (e *transportError) Unwrap() error { return e.err }

func isTransportError(err error) bool {
	var te *transportError
	return errors.As(err, &te)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
