package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/scripthub/pkg/httpx"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestFixedWindowLimiter_Check(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	limiter := httpx.NewFixedWindowLimiter(httpx.NewMemoryWindowStore(), httpx.WithLimiterClock(clk.Now))

	for i := 1; i <= 3; i++ {
		d, err := limiter.Check(ctx, "1.2.3.4:refresh", 3, time.Minute)
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d", i)
		require.Equal(t, 3-i, d.Remaining)
	}

	d, err := limiter.Check(ctx, "1.2.3.4:refresh", 3, time.Minute)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Zero(t, d.Remaining)
	require.Equal(t, clk.Now().Add(time.Minute), d.ResetAt)

	t.Run("window boundary still counts", func(t *testing.T) {
		clk.Advance(time.Minute)
		d, err := limiter.Check(ctx, "1.2.3.4:refresh", 3, time.Minute)
		require.NoError(t, err)
		require.False(t, d.Allowed)
	})

	t.Run("window resets once it is older than the window", func(t *testing.T) {
		clk.Advance(time.Second)
		d, err := limiter.Check(ctx, "1.2.3.4:refresh", 3, time.Minute)
		require.NoError(t, err)
		require.True(t, d.Allowed)
		require.Equal(t, 2, d.Remaining, "count restarts at one")
	})

	t.Run("keys are independent", func(t *testing.T) {
		d, err := limiter.Check(ctx, "5.6.7.8:refresh", 3, time.Minute)
		require.NoError(t, err)
		require.True(t, d.Allowed)
		require.Equal(t, 2, d.Remaining)
	})
}

func TestFixedWindowLimiter_Concurrent(t *testing.T) {
	limiter := httpx.NewFixedWindowLimiter(httpx.NewMemoryWindowStore())

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := limiter.Check(context.Background(), "k", 50, time.Minute)
			if err == nil && d.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 50, allowed.Load())
}

func TestMemoryWindowStore_Sweep(t *testing.T) {
	ctx := context.Background()
	start := time.Unix(1700000000, 0)
	store := httpx.NewMemoryWindowStore()

	_, _, err := store.Increment(ctx, "short", time.Second, start)
	require.NoError(t, err)
	_, _, err = store.Increment(ctx, "long", time.Hour, start)
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	require.Zero(t, store.Sweep(start.Add(time.Second)))
	require.Equal(t, 1, store.Sweep(start.Add(2*time.Second)))
	require.Equal(t, 1, store.Len())
}

func TestDecision_RetryAfter(t *testing.T) {
	now := time.Unix(100, 0)
	require.Equal(t, 30, httpx.Decision{ResetAt: now.Add(29500 * time.Millisecond)}.RetryAfter(now))
	require.Equal(t, 1, httpx.Decision{ResetAt: now}.RetryAfter(now))
}

func TestFixedWindowLimiter_Middleware(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	limiter := httpx.NewFixedWindowLimiter(httpx.NewMemoryWindowStore(),
		httpx.WithLimiterClock(clk.Now),
		httpx.WithKeyExtractor(httpx.RemoteIPKeyExtractor),
	)
	budget := httpx.Budget{Name: "login", Limit: 2, Window: time.Minute}
	h := limiter.Limit(budget)(okHandler())

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, do("10.0.0.1:1").Code)
	rec := do("10.0.0.1:2")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	clk.Advance(15 * time.Second)
	rec = do("10.0.0.1:3")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "45", rec.Header().Get("Retry-After"))
	require.Contains(t, rec.Body.String(), "rate_limit_exceeded")
	require.NotContains(t, rec.Body.String(), "remaining")

	require.Equal(t, http.StatusOK, do("10.0.0.2:1").Code, "other clients keep their budget")
}

type brokenStore struct{}

func (brokenStore) Increment(context.Context, string, time.Duration, time.Time) (int64, time.Time, error) {
	return 0, time.Time{}, errors.New("store down")
}

func TestFixedWindowLimiter_FailsOpen(t *testing.T) {
	limiter := httpx.NewFixedWindowLimiter(brokenStore{})
	h := limiter.Limit(httpx.Budget{Name: "scripts_read", Limit: 1, Window: time.Minute})(okHandler())

	for range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Zero(t, limiter.Sweep())
}

func TestParseBudgetFromEnv(t *testing.T) {
	t.Setenv("RATELIMIT_LOGIN_REQUESTS", "50")
	t.Setenv("RATELIMIT_LOGIN_WINDOW_SEC", "abc")

	got := httpx.ParseBudgetFromEnv("LOGIN", httpx.Budget{Name: "login", Limit: 5, Window: time.Minute})
	require.Equal(t, 50, got.Limit)
	require.Equal(t, time.Minute, got.Window)
	require.Equal(t, "login", got.Name)
}
