package sqlite_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/scripthub/internal/admin/domain"
	"github.com/aussiebroadwan/scripthub/internal/admin/store"
	"github.com/aussiebroadwan/scripthub/internal/admin/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func record(id, sid string, now time.Time, ttl time.Duration) domain.RefreshToken {
	return domain.RefreshToken{
		ID:        id,
		SessionID: sid,
		Subject:   domain.OwnerSubject,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

func TestApplyMigrationsIdempotent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestRefreshTokens_CreateGet(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Unix(1700000000, 0).UTC()

	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, record("jti-1", "sid-1", now, time.Hour)))

	got, err := s.RefreshTokens().GetRefreshToken(ctx, "jti-1")
	require.NoError(t, err)
	require.Equal(t, "sid-1", got.SessionID)
	require.Equal(t, domain.OwnerSubject, got.Subject)
	require.Equal(t, now.Add(time.Hour), got.ExpiresAt)
	require.Nil(t, got.ConsumedAt)
	require.False(t, got.Revoked)
	require.True(t, got.Active(now))

	t.Run("duplicate id", func(t *testing.T) {
		err := s.RefreshTokens().CreateRefreshToken(ctx, record("jti-1", "sid-2", now, time.Hour))
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := s.RefreshTokens().GetRefreshToken(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestRefreshTokens_ConsumeOnce(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Unix(1700000000, 0).UTC()
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, record("jti-1", "sid-1", now, time.Hour)))

	require.NoError(t, s.RefreshTokens().ConsumeRefreshToken(ctx, "jti-1", now))
	require.ErrorIs(t, s.RefreshTokens().ConsumeRefreshToken(ctx, "jti-1", now), store.ErrNotFound)

	got, err := s.RefreshTokens().GetRefreshToken(ctx, "jti-1")
	require.NoError(t, err)
	require.NotNil(t, got.ConsumedAt)
	require.False(t, got.Active(now))
}

func TestRefreshTokens_ConsumeConcurrent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now().UTC()
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, record("jti-1", "sid-1", now, time.Hour)))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithTx(ctx, func(tx store.Tx) error {
				return tx.RefreshTokens().ConsumeRefreshToken(ctx, "jti-1", now)
			})
			if err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, wins.Load())
}

func TestRefreshTokens_ConsumeRejectsExpiredAndRevoked(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Unix(1700000000, 0).UTC()

	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, record("expired", "sid-1", now, time.Minute)))
	require.ErrorIs(t, s.RefreshTokens().ConsumeRefreshToken(ctx, "expired", now.Add(time.Minute)), store.ErrNotFound)

	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, record("a", "sid-2", now, time.Hour)))
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, record("b", "sid-2", now, time.Hour)))
	n, err := s.RefreshTokens().RevokeSession(ctx, "sid-2")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	require.ErrorIs(t, s.RefreshTokens().ConsumeRefreshToken(ctx, "b", now), store.ErrNotFound)
}

func TestRefreshTokens_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Unix(1700000000, 0).UTC()

	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, record("old", "sid", now, time.Minute)))
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, record("new", "sid", now, time.Hour)))

	n, err := s.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = s.RefreshTokens().GetRefreshToken(ctx, "old")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.RefreshTokens().GetRefreshToken(ctx, "new")
	require.NoError(t, err)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now().UTC()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.RefreshTokens().CreateRefreshToken(ctx, record("jti", "sid", now, time.Hour)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.RefreshTokens().GetRefreshToken(ctx, "jti")
	require.ErrorIs(t, err, store.ErrNotFound)
}
