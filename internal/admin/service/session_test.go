package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/scripthub/internal/admin/domain"
	"github.com/aussiebroadwan/scripthub/internal/admin/store/drivers/sqlite"
	"github.com/aussiebroadwan/scripthub/pkg/cryptox"
	"github.com/aussiebroadwan/scripthub/pkg/jwtx"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

const ownerPassword = "correct horse battery staple"

var (
	hashOnce  sync.Once
	ownerHash string
)

func testOwnerHash(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		h, err := cryptox.HashPassword(ownerPassword)
		if err != nil {
			panic(err)
		}
		ownerHash = h
	})
	return ownerHash
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newSessionService(t *testing.T) (*SessionService, *testClock) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	clk := &testClock{now: time.Unix(1700000000, 0).UTC()}
	codec, err := jwtx.NewHS256Codec([]byte("0123456789abcdef0123456789abcdef"), "scripthub-admin", jwtx.WithClock(clk.Now))
	require.NoError(t, err)

	return &SessionService{
		Codec:        codec,
		Store:        st,
		Issuer:       "scripthub-admin",
		PasswordHash: testOwnerHash(t),
		Now:          clk.Now,
	}, clk
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, clk := newSessionService(t)

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "not the password", "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("issues admin access and refresh tokens", func(t *testing.T) {
		s, err := svc.Login(ctx, ownerPassword, "")
		require.NoError(t, err)
		require.NotEmpty(t, s.ID)
		require.WithinDuration(t, clk.Now().Add(24*time.Hour), s.AccessExpiresAt, 0)
		require.WithinDuration(t, clk.Now().Add(30*24*time.Hour), s.RefreshExpiresAt, 0)

		access, err := svc.Codec.Verify(s.AccessToken)
		require.NoError(t, err)
		require.Equal(t, domain.OwnerSubject, access.Subject)
		require.True(t, access.IsAdmin())
		require.Equal(t, s.ID, access.SID)

		refresh, err := svc.Codec.Verify(s.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, jwtx.TypeRefresh, refresh.Type)
		require.Equal(t, jwtx.RoleNone, refresh.Role)

		rec, err := svc.Store.RefreshTokens().GetRefreshToken(ctx, refresh.ID)
		require.NoError(t, err)
		require.True(t, rec.Active(clk.Now()))
	})

	t.Run("unusable stored hash", func(t *testing.T) {
		broken := *svc
		broken.PasswordHash = "not-a-hash"
		_, err := broken.Login(ctx, ownerPassword, "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLoginWithTOTP(t *testing.T) {
	ctx := context.Background()
	svc, clk := newSessionService(t)

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "scripthub", AccountName: "owner"})
	require.NoError(t, err)
	svc.TOTPSecret = key.Secret()
	require.True(t, svc.MFAEnabled())

	_, err = svc.Login(ctx, ownerPassword, "")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, ownerPassword, "000000x")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	code, err := totp.GenerateCode(key.Secret(), clk.Now())
	require.NoError(t, err)

	_, err = svc.Login(ctx, "wrong password", code)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	s, err := svc.Login(ctx, ownerPassword, code)
	require.NoError(t, err)
	require.NotEmpty(t, s.AccessToken)
}

func TestRefreshRotation(t *testing.T) {
	ctx := context.Background()
	svc, clk := newSessionService(t)

	first, err := svc.Login(ctx, ownerPassword, "")
	require.NoError(t, err)

	clk.Advance(time.Minute)
	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID, "rotation keeps the session id")
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	access, err := svc.Codec.Verify(second.AccessToken)
	require.NoError(t, err)
	require.True(t, access.IsAdmin())

	t.Run("consumed token is rejected", func(t *testing.T) {
		_, err := svc.Refresh(ctx, first.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("reuse revokes the rest of the session", func(t *testing.T) {
		_, err := svc.Refresh(ctx, second.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("other sessions are untouched", func(t *testing.T) {
		other, err := svc.Login(ctx, ownerPassword, "")
		require.NoError(t, err)
		_, err = svc.Refresh(ctx, other.RefreshToken)
		require.NoError(t, err)
	})
}

func TestRefreshConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSessionService(t)

	s, err := svc.Login(ctx, ownerPassword, "")
	require.NoError(t, err)

	results := make(chan error, 8)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(ctx, s.RefreshToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, ErrInvalidRefresh)
		}
	}
	require.Equal(t, 1, wins)
}

func TestRefreshRejects(t *testing.T) {
	ctx := context.Background()
	svc, clk := newSessionService(t)

	s, err := svc.Login(ctx, ownerPassword, "")
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Refresh(ctx, "not.a.token")
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("access token", func(t *testing.T) {
		_, err := svc.Refresh(ctx, s.AccessToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("signed but never issued", func(t *testing.T) {
		forged, err := svc.Codec.Sign(jwtx.NewRefreshClaims(domain.OwnerSubject, "sid", time.Hour, "scripthub-admin", clk.Now()))
		require.NoError(t, err)
		_, err = svc.Refresh(ctx, forged)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("expired", func(t *testing.T) {
		clk.Advance(31 * 24 * time.Hour)
		_, err := svc.Refresh(ctx, s.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})
}

func TestLogoutRevokesSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSessionService(t)

	s, err := svc.Login(ctx, ownerPassword, "")
	require.NoError(t, err)

	svc.Logout(ctx, s.RefreshToken)

	_, err = svc.Refresh(ctx, s.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// Unusable input is ignored.
	svc.Logout(ctx, "")
	svc.Logout(ctx, "garbage")
}
