package domain

import "time"

// OwnerSubject is the only principal this service authenticates.
const OwnerSubject = "owner"

// Session is what a successful login or refresh hands back: the bearer
// access token for the dashboard and the refresh token for the cookie.
type Session struct {
	ID               string
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	IssuedAt         time.Time
}

// AccessTTL is the access token lifetime as issued.
func (s *Session) AccessTTL() time.Duration { return s.AccessExpiresAt.Sub(s.IssuedAt) }

// RefreshTTL is the refresh token lifetime as issued.
func (s *Session) RefreshTTL() time.Duration { return s.RefreshExpiresAt.Sub(s.IssuedAt) }

// RefreshToken is the ledger record of an issued refresh token, keyed by its
// jti. A record is usable only while it is neither consumed nor revoked and
// has not expired.
type RefreshToken struct {
	ID         string // jti
	SessionID  string // sid, shared by every rotation of one login
	Subject    string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	Revoked    bool
	CreatedAt  time.Time
}

// Active reports whether the token can still be exchanged at now.
func (t RefreshToken) Active(now time.Time) bool {
	return t.ConsumedAt == nil && !t.Revoked && now.Before(t.ExpiresAt)
}
