package adminsdk

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorWriteAndParse(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	ErrForbidden.WriteError(rec)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, ErrorCodeAccessDenied, body.Error)

	err := parseErrorResponse(rec.Result(), rec.Body.Bytes())
	require.ErrorIs(t, err, ErrForbidden)
	require.NotErrorIs(t, err, ErrInvalidCSRFToken)
}

func TestParseErrorResponse_Fallback(t *testing.T) {
	t.Parallel()

	resp := &http.Response{StatusCode: http.StatusBadGateway}
	err := parseErrorResponse(resp, []byte("<html>bad gateway</html>"))

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Equal(t, ErrorCodeServerError, apiErr.Code)

	require.NoError(t, parseErrorResponse(&http.Response{StatusCode: http.StatusOK}, nil))
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := ValidationError("title", "Title must be at least 3 characters")
	require.Equal(t, http.StatusBadRequest, err.StatusCode)
	require.Equal(t, "title: Title must be at least 3 characters", err.Description)
}

// fakeServer mimics the auth endpoints closely enough to drive the client.
func fakeServer(t *testing.T, refreshes *atomic.Int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/csrf", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrf_session", Value: "form-1", Path: "/"})
		_ = json.NewEncoder(w).Encode(CSRFResponse{CSRFToken: "nonce-123456"})
	})
	mux.HandleFunc("POST /api/auth", func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Token != "nonce-123456" || req.Password != "owner-password" {
			ErrUnauthenticated.WriteError(w)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: RefreshCookieName, Value: "r0", Path: "/"})
		// Expired on arrival so the first call refreshes.
		_ = json.NewEncoder(w).Encode(TokenResponse{Success: true, AccessToken: "a0", ExpiresIn: 0})
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(RefreshCookieName)
		if err != nil || c.Value != "r0" {
			ErrUnauthenticated.WriteError(w)
			return
		}
		refreshes.Add(1)
		http.SetCookie(w, &http.Cookie{Name: RefreshCookieName, Value: "r1", Path: "/"})
		_ = json.NewEncoder(w).Encode(TokenResponse{Success: true, AccessToken: "a1", ExpiresIn: 3600})
	})
	mux.HandleFunc("GET /api/settings", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer a1" {
			ErrInvalidToken.WriteError(w)
			return
		}
		_ = json.NewEncoder(w).Encode(SettingsResponse{Settings: map[string]any{"theme": "dark"}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientLoginAndAutoRefresh(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	srv := fakeServer(t, &refreshes)
	client := NewClient(srv.URL + "/")

	_, err := client.Login(t.Context(), "wrong-password", "")
	require.ErrorIs(t, err, ErrUnauthenticated)

	session, err := client.Login(t.Context(), "owner-password", "")
	require.NoError(t, err)
	require.Equal(t, "a0", session.AccessToken())
	require.Equal(t, "r0", client.RefreshCookie())

	settings, err := session.GetSettings(t.Context())
	require.NoError(t, err)
	require.Equal(t, "dark", settings["theme"])
	require.EqualValues(t, 1, refreshes.Load())
	require.Equal(t, "r1", client.RefreshCookie())

	// The rotated token is still fresh, so no second refresh.
	_, err = session.GetSettings(t.Context())
	require.NoError(t, err)
	require.EqualValues(t, 1, refreshes.Load())

	client.SetRefreshCookie("stale")
	_, err = client.Refresh(t.Context())
	require.ErrorIs(t, err, ErrUnauthenticated)
}
