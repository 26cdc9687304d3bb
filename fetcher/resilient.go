// Package fetcher wraps outbound HTTP GETs with retry-with-backoff and
// circuit breaking. Each logical upstream gets its own Client so breaker
// state is isolated per host.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"finsights/apperrors"
)

// Options tune the retry and breaker policy. Zero values fall back to the
// production defaults; tests shrink the backoff base. RetryMax < 0
// disables retries entirely.
type Options struct {
	Timeout          time.Duration
	RetryMax         int
	BackoffBase      time.Duration
	BreakerThreshold uint32
	BreakerCooldown  time.Duration
}

func (o *Options) withDefaults() {
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.RetryMax == 0 {
		o.RetryMax = 3
	}
	if o.RetryMax < 0 {
		o.RetryMax = 0
	}
	if o.BackoffBase == 0 {
		o.BackoffBase = time.Second
	}
	if o.BreakerThreshold == 0 {
		o.BreakerThreshold = 5
	}
	if o.BreakerCooldown == 0 {
		o.BreakerCooldown = 30 * time.Second
	}
}

// Client fetches over HTTP with the resilience policy applied. Safe for
// concurrent use.
type Client struct {
	name    string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.SugaredLogger
}

func New(name string, opts Options, logger *zap.SugaredLogger) *Client {
	opts.withDefaults()

	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = opts.RetryMax
	rc.HTTPClient.Timeout = opts.Timeout
	rc.CheckRetry = checkRetry
	base := opts.BackoffBase
	rc.Backoff = func(min, max time.Duration, attempt int, resp *http.Response) time.Duration {
		// Delay doubles per attempt: 2^1, 2^2, ... units of the base.
		return base * (1 << (attempt + 1))
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerThreshold
		},
		// Only transient faults trip the breaker. Plain 4xx means the
		// upstream is healthy and simply has nothing for us.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, apperrors.ErrUpstreamUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Infow("circuit state change", "upstream", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		name:    name,
		http:    rc.StandardClient(),
		breaker: breaker,
		logger:  logger,
	}
}

// checkRetry qualifies a failure for retry: network errors, 5xx and 429.
// Everything else, including other 4xx, propagates immediately.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return true, nil
	}
	return false, nil
}

// Fetch GETs url with the retry policy, guarded by the upstream's circuit
// breaker. While the breaker is open calls fail fast with no network
// attempt. header may be nil.
func (c *Client) Fetch(ctx context.Context, url string, header http.Header) ([]byte, error) {
	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, url, header)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s circuit open: %w", c.name, apperrors.ErrUpstreamUnavailable)
		}
		return nil, err
	}
	return body.([]byte), nil
}

func (c *Client) do(ctx context.Context, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// A caller cancellation is not an upstream fault. Surface the
		// context error itself so errors.Is sees it and the breaker's
		// IsSuccessful never counts it against the upstream.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s request failed: %v: %w", c.name, err, apperrors.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s read body: %v: %w", c.name, err, apperrors.ErrUpstreamUnavailable)
	}

	// Retryable statuses (5xx, 429) never reach this point: the retry
	// client turns them into a returned error once attempts run out, so
	// any status seen here is a non-retryable 4xx.
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s status %d: %w", c.name, resp.StatusCode, apperrors.ErrUpstreamDataInvalid)
	}

	return b, nil
}
