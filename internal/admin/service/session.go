package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/scripthub/internal/admin/domain"
	"github.com/aussiebroadwan/scripthub/internal/admin/store"
	"github.com/aussiebroadwan/scripthub/pkg/cryptox"
	"github.com/aussiebroadwan/scripthub/pkg/idx"
	"github.com/aussiebroadwan/scripthub/pkg/jwtx"
	"github.com/aussiebroadwan/scripthub/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TokenCodec signs and verifies session tokens.
type TokenCodec interface {
	jwtx.Signer
	jwtx.Verifier
}

// SessionService authenticates the owner and issues, rotates and revokes
// session tokens.
type SessionService struct {
	Codec  TokenCodec
	Store  store.Store
	Issuer string

	// PasswordHash is the owner's argon2id PHC hash.
	PasswordHash string
	// TOTPSecret enables a second factor when set.
	TOTPSecret string

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

var errRefreshRejected = errors.New("refresh token not active")

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *SessionService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *SessionService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// MFAEnabled reports whether login requires a TOTP code.
func (s *SessionService) MFAEnabled() bool { return s.TOTPSecret != "" }

// Login checks the owner password (and TOTP code when enabled) and starts a
// new session. Every mismatch returns ErrInvalidCredentials.
func (s *SessionService) Login(ctx context.Context, password, code string) (*domain.Session, error) {
	l := slogx.FromContext(ctx)
	now := s.now()

	if err := cryptox.VerifyPassword(password, s.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Error("owner password hash is unusable", "error", err)
		}
		return nil, ErrInvalidCredentials
	}

	if s.MFAEnabled() {
		ok, err := totp.ValidateCustom(code, s.TOTPSecret, now, totp.ValidateOpts{
			Period:    30,
			Skew:      1,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		if err != nil || !ok {
			l.Info("owner login rejected: bad totp code")
			return nil, ErrInvalidCredentials
		}
	}

	var session *domain.Session
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		session, err = s.issue(ctx, tx, domain.OwnerSubject, idx.NewAt(now).String(), now)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.Info("owner session started", "sid", session.ID)
	return session, nil
}

// Refresh exchanges a refresh token for a new session pair. The presented
// token is consumed; presenting it again revokes the whole session.
func (s *SessionService) Refresh(ctx context.Context, raw string) (*domain.Session, error) {
	l := slogx.FromContext(ctx)
	now := s.now()

	claims, err := s.Codec.Verify(raw)
	if err != nil {
		l.Info("refresh token rejected", "error", err)
		return nil, ErrInvalidRefresh
	}
	if claims.Type != jwtx.TypeRefresh || claims.ID == "" || claims.SID == "" {
		l.Info("refresh token rejected", "error", "not a refresh token")
		return nil, ErrInvalidRefresh
	}

	var session *domain.Session
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().ConsumeRefreshToken(ctx, claims.ID, now); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errRefreshRejected
			}
			return err
		}

		var err error
		session, err = s.issue(ctx, tx, claims.Subject, claims.SID, now)
		return err
	})
	switch {
	case errors.Is(err, errRefreshRejected):
		s.handleRejectedRefresh(ctx, claims)
		return nil, ErrInvalidRefresh
	case err != nil:
		return nil, err
	}

	return session, nil
}

// handleRejectedRefresh revokes the whole session when the rejected token
// had already been consumed.
func (s *SessionService) handleRejectedRefresh(ctx context.Context, claims jwtx.Claims) {
	l := slogx.FromContext(ctx)

	rec, err := s.Store.RefreshTokens().GetRefreshToken(ctx, claims.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			l.Error("failed to load refresh token", "error", err)
		}
		l.Info("refresh token rejected", "error", "unknown token")
		return
	}
	if rec.ConsumedAt == nil {
		l.Info("refresh token rejected", "error", "revoked or expired", "sid", rec.SessionID)
		return
	}

	n, err := s.Store.RefreshTokens().RevokeSession(ctx, rec.SessionID)
	if err != nil {
		l.Error("failed to revoke session after refresh reuse", "error", err, "sid", rec.SessionID)
		return
	}
	l.Warn("refresh token reuse detected, session revoked", "sid", rec.SessionID, "revoked", n)
}

// Logout revokes the session behind raw. It never fails: an unusable token
// has nothing to revoke. Access tokens already issued stay valid until they
// expire.
func (s *SessionService) Logout(ctx context.Context, raw string) {
	if raw == "" {
		return
	}
	l := slogx.FromContext(ctx)

	claims, err := s.Codec.Verify(raw)
	if err != nil || claims.Type != jwtx.TypeRefresh || claims.SID == "" {
		l.Debug("logout with unusable refresh token", "error", err)
		return
	}

	n, err := s.Store.RefreshTokens().RevokeSession(ctx, claims.SID)
	if err != nil {
		l.Error("failed to revoke session on logout", "error", err, "sid", claims.SID)
		return
	}
	l.Info("owner session ended", "sid", claims.SID, "revoked", n)
}

// issue signs an access/refresh pair for sid and records the refresh token.
func (s *SessionService) issue(ctx context.Context, tx store.Tx, subject, sid string, now time.Time) (*domain.Session, error) {
	access := jwtx.NewAccessClaims(subject, sid, s.accessTTL(), s.Issuer, now)
	refresh := jwtx.NewRefreshClaims(subject, sid, s.refreshTTL(), s.Issuer, now)

	accessToken, err := s.Codec.Sign(access)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, err := s.Codec.Sign(refresh)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	err = tx.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        refresh.ID,
		SessionID: sid,
		Subject:   subject,
		ExpiresAt: refresh.Expiry(),
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("record refresh token: %w", err)
	}

	return &domain.Session{
		ID:               sid,
		AccessToken:      accessToken,
		AccessExpiresAt:  access.Expiry(),
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refresh.Expiry(),
		IssuedAt:         access.IssuedAt.Time,
	}, nil
}
