//go:build e2e

package admin_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/scripthub/pkg/adminsdk"
	"github.com/stretchr/testify/require"
)

func TestScriptLifecycle(t *testing.T) {
	baseURL := setupAdminContainer(t, nil)
	ctx := context.Background()

	client, session := login(t, baseURL)

	saved, err := session.SaveScript(ctx, adminsdk.Script{
		Title:       "Backup rotation",
		Description: "Rotates nightly snapshots",
		Link:        "https://example.com/rotate.sh",
		Category:    "ops",
	})
	require.NoError(t, err)
	require.NotZero(t, saved.ID)

	// Reads are public.
	anon := adminsdk.NewClient(baseURL)
	got, err := anon.GetScript(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, "Backup rotation", got.Title)

	backup, err := session.ExportBackup(ctx)
	require.NoError(t, err)
	require.Len(t, backup.Scripts, 1)

	require.NoError(t, session.DeleteScript(ctx, saved.ID))
	_, err = client.GetScript(ctx, saved.ID)
	requireAPIError(t, err, http.StatusNotFound, adminsdk.ErrorCodeNotFound)

	restored, err := session.RestoreBackup(ctx, *backup)
	require.NoError(t, err)
	require.Equal(t, 1, restored)

	scripts, err := anon.ListScripts(ctx)
	require.NoError(t, err)
	require.Len(t, scripts, 1)

	logs, err := session.ListAudit(ctx, 0, 50)
	require.NoError(t, err)
	require.NotZero(t, logs.Total)
}

func TestWritesRequireAuthentication(t *testing.T) {
	baseURL := setupAdminContainer(t, nil)
	ctx := context.Background()

	client := adminsdk.NewClient(baseURL)
	_, err := client.ResumeSession(ctx)
	requireAPIError(t, err, http.StatusUnauthorized, adminsdk.ErrorCodeInvalidGrant)
}
