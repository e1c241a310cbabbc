package app

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/scripthub/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ADMIN_ISSUER", "")
	t.Setenv("RATELIMIT_STORE", "")
	t.Setenv("PORT", "")

	cfg := LoadConfig()
	require.Equal(t, "scripthub-admin", cfg.Issuer)
	require.Equal(t, "memory", cfg.RateLimitStore)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 24*time.Hour, cfg.AccessTTL)
	require.Equal(t, 30*24*time.Hour, cfg.RefreshTTL)
	require.Equal(t, time.Hour, cfg.CSRFTTL)
	require.False(t, cfg.SecureCookies())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("PORT", "9090")
	t.Setenv("ADMIN_ACCESS_TTL", "15m")
	t.Setenv("HOUSEKEEPING_INTERVAL", "5")
	t.Setenv("TRUST_PROXY_HEADERS", "true")
	t.Setenv("ADMIN_AUDIT_CAPACITY", "not-a-number")

	cfg := LoadConfig()
	require.True(t, cfg.SecureCookies())
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.Equal(t, 5*time.Minute, cfg.HousekeepingInterval)
	require.True(t, cfg.TrustProxyHeaders)
	require.Equal(t, 1000, cfg.AuditCapacity)
}

func testConfig(t *testing.T) Config {
	t.Helper()

	hash, err := cryptox.HashPassword("correct horse battery staple")
	require.NoError(t, err)

	return Config{
		Issuer:               "scripthub-admin",
		OwnerPasswordHash:    hash,
		DatabaseFile:         filepath.Join(t.TempDir(), "admin.db"),
		RateLimitStore:       "memory",
		LogLevel:             "error",
		LogFormat:            "json",
		Port:                 0,
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Minute,
		AuditCapacity:        10,
	}
}

func TestNew(t *testing.T) {
	t.Run("memory store", func(t *testing.T) {
		app, err := New(testConfig(t))
		require.NoError(t, err)
		t.Cleanup(func() { _ = app.closeStores() })

		rec := httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("redis store", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig(t)
		cfg.RateLimitStore = "redis"
		cfg.RedisURL = "redis://" + mr.Addr()

		app, err := New(cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = app.closeStores() })

		rec := httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scripts", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "19", rec.Header().Get("X-RateLimit-Remaining"))
		require.NotEmpty(t, mr.Keys())
	})

	t.Run("missing owner hash", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.OwnerPasswordHash = ""
		_, err := New(cfg)
		require.Error(t, err)
	})

	t.Run("short token secret", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.TokenSecret = "too-short"
		_, err := New(cfg)
		require.Error(t, err)
	})

	t.Run("unknown rate limit store", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.RateLimitStore = "memcached"
		_, err := New(cfg)
		require.Error(t, err)
	})
}

func TestSeedFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.SeedFile = filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(cfg.SeedFile, []byte(`{
		"version": "1.0.0",
		"scripts": [{"id": 1, "title": "Infinite Jump Script", "description": "Jump forever.", "link": "https://example.com/jump", "downloads": 12453, "category": "Movement"}]
	}`), 0o600))

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.closeStores() })
	require.Len(t, app.contentService.ListScripts(), 1)

	cfg.SeedFile = filepath.Join(t.TempDir(), "missing.json")
	_, err = New(cfg)
	require.Error(t, err)
}
