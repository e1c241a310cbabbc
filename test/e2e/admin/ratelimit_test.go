//go:build e2e

package admin_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/scripthub/pkg/adminsdk"
	"github.com/stretchr/testify/require"
)

// TestRateLimitLogin checks the default login budget of five attempts per
// minute. The sixth attempt is refused even with the right password.
func TestRateLimitLogin(t *testing.T) {
	baseURL := setupAdminContainer(t, nil)
	ctx := context.Background()

	client := adminsdk.NewClient(baseURL)
	for i := range 5 {
		_, err := client.Login(ctx, "wrong password", "")
		require.Error(t, err)
		require.NotErrorIs(t, err, adminsdk.ErrRateLimited, "attempt %d limited too early", i+1)
	}

	_, err := client.Login(ctx, ownerPassword, "")
	requireAPIError(t, err, http.StatusTooManyRequests, adminsdk.ErrorCodeRateLimited)
}

func TestRateLimitOverride(t *testing.T) {
	baseURL := setupAdminContainer(t, map[string]string{
		"RATELIMIT_CSRF_REQUESTS": "2",
	})
	ctx := context.Background()

	client := adminsdk.NewClient(baseURL)
	for range 2 {
		_, err := client.CSRFToken(ctx)
		require.NoError(t, err)
	}

	_, err := client.CSRFToken(ctx)
	requireAPIError(t, err, http.StatusTooManyRequests, adminsdk.ErrorCodeRateLimited)
}
