package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"finsights/apperrors"
)

func testOptions() Options {
	return Options{
		Timeout:     5 * time.Second,
		RetryMax:    3,
		BackoffBase: time.Millisecond,
	}
}

func newTestClient(opts Options) *Client {
	return New("test", opts, zap.NewNop().Sugar())
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := newTestClient(testOptions()).Fetch(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchRetriesRateLimiting(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := newTestClient(testOptions()).Fetch(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(testOptions()).Fetch(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstreamDataInvalid)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchExhaustedRetriesAreUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(testOptions()).Fetch(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
}

func TestFetchSendsHeaders(t *testing.T) {
	var agent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("User-Agent", "finsights test agent")
	_, err := newTestClient(testOptions()).Fetch(context.Background(), srv.URL, header)
	require.NoError(t, err)
	assert.Equal(t, "finsights test agent", agent)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	opts := testOptions()
	opts.RetryMax = -1 // each call is a single attempt
	opts.BreakerThreshold = 5
	opts.BreakerCooldown = time.Minute
	client := newTestClient(opts)

	for i := 0; i < 5; i++ {
		_, err := client.Fetch(context.Background(), srv.URL, nil)
		require.Error(t, err)
	}
	attemptsBefore := atomic.LoadInt32(&calls)
	require.Equal(t, int32(5), attemptsBefore)

	// Breaker is open now: the sixth call fails fast with no network
	// attempt.
	_, err := client.Fetch(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
	assert.Equal(t, attemptsBefore, atomic.LoadInt32(&calls))
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	opts := testOptions()
	opts.RetryMax = -1
	client := newTestClient(opts)

	// Plain 4xx responses never trip the breaker, however many occur.
	for i := 0; i < 8; i++ {
		_, err := client.Fetch(context.Background(), srv.URL, nil)
		require.ErrorIs(t, err, apperrors.ErrUpstreamDataInvalid)
	}
	assert.Equal(t, int32(8), atomic.LoadInt32(&calls))
}

func TestFetchHonorsCancellationDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	opts := testOptions()
	opts.BackoffBase = time.Second // first retry wait is 2s

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := newTestClient(opts).Fetch(ctx, srv.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second, "cancellation must abort the backoff wait")
}

func TestFetchSurfacesCallerCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	opts := testOptions()
	opts.RetryMax = -1

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestClient(opts).Fetch(ctx, srv.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
}

func TestBreakerIgnoresCallerCancellations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	opts := testOptions()
	opts.RetryMax = -1
	opts.BreakerThreshold = 3
	opts.BreakerCooldown = time.Minute
	client := newTestClient(opts)

	// Cancellations from the caller's own deadline must not count as
	// upstream faults, however many occur in a row.
	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		_, err := client.Fetch(ctx, srv.URL, nil)
		cancel()
		require.ErrorIs(t, err, context.DeadlineExceeded)
	}

	// The upstream is healthy and must still be reachable.
	body, err := client.Fetch(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestBreakerHalfOpenProbeRestoresService(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 5 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	opts := testOptions()
	opts.RetryMax = -1
	opts.BreakerThreshold = 5
	opts.BreakerCooldown = 50 * time.Millisecond
	client := newTestClient(opts)

	for i := 0; i < 5; i++ {
		_, err := client.Fetch(context.Background(), srv.URL, nil)
		require.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
	}

	// Open: fail fast, no network attempt.
	_, err := client.Fetch(context.Background(), srv.URL, nil)
	require.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
	require.Equal(t, int32(5), atomic.LoadInt32(&calls))

	time.Sleep(80 * time.Millisecond)

	// After the cooldown the half-open probe reaches the upstream; its
	// success closes the circuit and normal traffic resumes.
	body, err := client.Fetch(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))

	body, err = client.Fetch(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(7), atomic.LoadInt32(&calls))
}
