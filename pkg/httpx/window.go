package httpx

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/aussiebroadwan/scripthub/pkg/slogx"
)

// Budget is the number of requests one client may make to a route within a
// fixed window.
type Budget struct {
	// Name identifies the budget in limiter keys and env overrides,
	// e.g. "login" is read from RATELIMIT_LOGIN_*.
	Name   string
	Limit  int
	Window time.Duration
}

// ParseBudgetFromEnv reads RATELIMIT_{prefix}_REQUESTS and
// RATELIMIT_{prefix}_WINDOW_SEC over def.
func ParseBudgetFromEnv(prefix string, def Budget) Budget {
	b := def
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_REQUESTS"); ok {
		b.Limit = n
	}
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_WINDOW_SEC"); ok {
		b.Window = time.Duration(n) * time.Second
	}
	return b
}

// WindowStore holds fixed-window counters. Increment must be atomic per key:
// it starts a new window when the current one is older than window, then
// counts the request and returns the new count with the window end.
type WindowStore interface {
	Increment(ctx context.Context, key string, window time.Duration, now time.Time) (count int64, resetAt time.Time, err error)
}

// Sweeper is implemented by stores that need idle entries purged.
type Sweeper interface {
	Sweep(now time.Time) int
}

// Decision is the outcome of a single rate-limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the whole number of seconds until the window resets, at
// least one.
func (d Decision) RetryAfter(now time.Time) int {
	secs := int(math.Ceil(d.ResetAt.Sub(now).Seconds()))
	return max(secs, 1)
}

// FixedWindowLimiter enforces per-route budgets keyed by client identity.
type FixedWindowLimiter struct {
	store WindowStore
	keyFn KeyExtractor
	now   func() time.Time
}

// LimiterOption customises a FixedWindowLimiter.
type LimiterOption func(*FixedWindowLimiter)

// WithLimiterClock overrides the limiter's time source.
func WithLimiterClock(now func() time.Time) LimiterOption {
	return func(l *FixedWindowLimiter) { l.now = now }
}

// WithKeyExtractor overrides how the client identity is derived. The
// default is IPKeyExtractor.
func WithKeyExtractor(fn KeyExtractor) LimiterOption {
	return func(l *FixedWindowLimiter) { l.keyFn = fn }
}

func NewFixedWindowLimiter(store WindowStore, opts ...LimiterOption) *FixedWindowLimiter {
	l := &FixedWindowLimiter{
		store: store,
		keyFn: IPKeyExtractor,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check counts one request against key and reports whether it fits in
// limit for the current window.
func (l *FixedWindowLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	count, resetAt, err := l.store.Increment(ctx, key, window, l.now())
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: max(limit-int(count), 0),
		ResetAt:   resetAt,
	}, nil
}

// Sweep purges idle counters when the store keeps them in process.
func (l *FixedWindowLimiter) Sweep() int {
	if s, ok := l.store.(Sweeper); ok {
		return s.Sweep(l.now())
	}
	return 0
}

// Limit returns middleware enforcing b. The key is the client identity
// joined with the budget name, so every route has its own counter.
func (l *FixedWindowLimiter) Limit(b Budget) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			key := l.keyFn(r) + ":" + b.Name
			d, err := l.Check(ctx, key, b.Limit, b.Window)
			if err != nil {
				// Fail open. A broken counter store must not lock the owner out.
				log.Error("rate limit store failed, allowing request", "err", err, "route", b.Name)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				retryAfter := d.RetryAfter(l.now())
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				log.Warn("rate limit exceeded", "key", key, "route", b.Name, "retry_after", retryAfter)
				writeRateLimited(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type windowEntry struct {
	count  int64
	start  time.Time
	window time.Duration
}

// MemoryWindowStore keeps counters in process memory.
type MemoryWindowStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
}

var (
	_ WindowStore = (*MemoryWindowStore)(nil)
	_ Sweeper     = (*MemoryWindowStore)(nil)
)

func NewMemoryWindowStore() *MemoryWindowStore {
	return &MemoryWindowStore{entries: make(map[string]*windowEntry)}
}

func (s *MemoryWindowStore) Increment(_ context.Context, key string, window time.Duration, now time.Time) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || now.Sub(e.start) > window {
		e = &windowEntry{start: now, window: window}
		s.entries[key] = e
	}
	e.count++
	return e.count, e.start.Add(e.window), nil
}

// Sweep deletes entries whose window ended before now and returns how many
// were removed.
func (s *MemoryWindowStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if now.Sub(e.start) > e.window {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of live counters.
func (s *MemoryWindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
