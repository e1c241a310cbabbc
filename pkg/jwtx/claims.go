package jwtx

import (
	"time"

	"github.com/aussiebroadwan/scripthub/pkg/idx"
	"github.com/golang-jwt/jwt/v5"
)

// Default lifetimes for the owner session.
const (
	DefaultAccessTokenTTL  = 24 * time.Hour
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// Role is the privilege carried by an access token.
type Role string

const (
	RoleNone  Role = ""
	RoleAdmin Role = "admin"
)

// TokenType separates access tokens from refresh tokens so one can never be
// presented in place of the other.
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

// Claims are the fields signed into every token this service issues.
type Claims struct {
	jwt.RegisteredClaims

	// Session ID. Stays constant across refresh rotations so a detected
	// replay can revoke the whole family.
	SID string `json:"sid,omitempty"`

	Role Role      `json:"role,omitempty"`
	Type TokenType `json:"type"`

	// Extra carries caller supplied claims. Keys here never override the
	// registered or typed fields above.
	Extra map[string]any `json:"ext,omitempty"`
}

// NewAccessClaims builds admin access-token claims for subject.
func NewAccessClaims(subject, sid string, ttl time.Duration, issuer string, now time.Time) Claims {
	c := newClaims(subject, sid, ttl, issuer, now)
	c.Role = RoleAdmin
	c.Type = TypeAccess
	return c
}

// NewRefreshClaims builds refresh-token claims. Refresh tokens carry no role.
func NewRefreshClaims(subject, sid string, ttl time.Duration, issuer string, now time.Time) Claims {
	c := newClaims(subject, sid, ttl, issuer, now)
	c.Type = TypeRefresh
	return c
}

func newClaims(subject, sid string, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        idx.NewAt(now).String(),
		},
		SID: sid,
	}
}

// IsAdmin reports whether the claims grant admin access.
func (c Claims) IsAdmin() bool {
	return c.Type == TypeAccess && c.Role == RoleAdmin
}

// Expiry returns exp as a time, or the zero time when unset.
func (c Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
