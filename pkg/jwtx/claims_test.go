package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/scripthub/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestNewAccessClaims(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	c := jwtx.NewAccessClaims("owner", "sid-1", time.Hour, "scripthub", now)

	require.Equal(t, "owner", c.Subject)
	require.Equal(t, "sid-1", c.SID)
	require.Equal(t, jwtx.RoleAdmin, c.Role)
	require.Equal(t, jwtx.TypeAccess, c.Type)
	require.Equal(t, now.Add(time.Hour), c.Expiry())
	require.NotEmpty(t, c.ID)
	require.True(t, c.IsAdmin())
}

func TestNewRefreshClaims(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	c := jwtx.NewRefreshClaims("owner", "sid-1", jwtx.DefaultRefreshTokenTTL, "", now)

	require.Equal(t, jwtx.RoleNone, c.Role)
	require.Equal(t, jwtx.TypeRefresh, c.Type)
	require.False(t, c.IsAdmin(), "refresh tokens never grant admin")
	require.Equal(t, now.Add(30*24*time.Hour), c.Expiry())
}

func TestUniqueTokenIDs(t *testing.T) {
	now := time.Now()
	a := jwtx.NewRefreshClaims("owner", "s", time.Hour, "", now)
	b := jwtx.NewRefreshClaims("owner", "s", time.Hour, "", now)
	require.NotEqual(t, a.ID, b.ID)
}

func TestExpiryUnset(t *testing.T) {
	require.True(t, jwtx.Claims{}.Expiry().IsZero())
}
