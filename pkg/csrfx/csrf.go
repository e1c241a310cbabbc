// Package csrfx issues and checks one-time CSRF nonces bound to a form
// session.
//
// A form session is an opaque id held in an HttpOnly cookie. Each session
// has at most one outstanding nonce: generating a new one invalidates the
// previous, and a successful Verify consumes it.
package csrfx

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/aussiebroadwan/scripthub/pkg/cryptox"
)

const (
	// DefaultTTL bounds how long an unused nonce stays valid.
	DefaultTTL = time.Hour

	// HeaderName carries the nonce on privileged form submissions.
	HeaderName = "X-CSRF-Token"

	// CookieName holds the form session id.
	CookieName = "csrf_session"
)

var ErrNoSession = errors.New("csrfx: no form session")

type entry struct {
	fingerprint string
	expiresAt   time.Time
}

// Guard stores the outstanding nonce of every form session.
type Guard struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

type Option func(*Guard)

func WithTTL(ttl time.Duration) Option {
	return func(g *Guard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

func NewGuard(opts ...Option) *Guard {
	g := &Guard{
		entries: make(map[string]entry),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// TTL is the nonce lifetime.
func (g *Guard) TTL() time.Duration { return g.ttl }

// NewSessionID returns a fresh form session id.
func NewSessionID() (string, error) {
	return cryptox.GenerateToken(cryptox.TokenSize256)
}

// Generate mints a nonce for sessionID, replacing any outstanding one.
func (g *Guard) Generate(sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrNoSession
	}
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries[sessionID] = entry{
		fingerprint: cryptox.FingerprintToken(token),
		expiresAt:   g.now().Add(g.ttl),
	}
	return token, nil
}

// Verify reports whether candidate is the outstanding nonce of sessionID.
// A match consumes the nonce.
func (g *Guard) Verify(sessionID, candidate string) bool {
	if sessionID == "" || candidate == "" {
		return false
	}
	fp := cryptox.FingerprintToken(candidate)

	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.entries[sessionID]
	if !ok {
		return false
	}
	if !g.now().Before(e.expiresAt) {
		delete(g.entries, sessionID)
		return false
	}
	if !cryptox.EqualTokens(e.fingerprint, fp) {
		return false
	}
	delete(g.entries, sessionID)
	return true
}

// Sweep drops expired nonces and returns how many were removed.
func (g *Guard) Sweep() int {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for id, e := range g.entries {
		if !now.Before(e.expiresAt) {
			delete(g.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of outstanding nonces.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// SessionFromRequest reads the form session id cookie.
func SessionFromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
