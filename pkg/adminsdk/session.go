package adminsdk

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Session is an authenticated owner session. It refreshes the access token
// through the refresh cookie shortly before it expires.
type Session struct {
	client *Client

	mu          sync.RWMutex
	accessToken string
	expiresAt   time.Time
}

func newSession(c *Client, tokenResp *TokenResponse) *Session {
	s := &Session{client: c}
	s.update(tokenResp)
	return s
}

func (s *Session) update(tokenResp *TokenResponse) {
	s.accessToken = tokenResp.AccessToken
	// Refresh 30 seconds before actual expiry
	s.expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - 30*time.Second)
}

// AccessToken returns the current access token without refreshing it.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// Refresh rotates the session now.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokenResp, err := s.client.Refresh(ctx)
	if err != nil {
		return err
	}
	s.update(tokenResp)
	return nil
}

// Logout ends the session on the server.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accessToken = ""
	s.expiresAt = time.Time{}
	return s.client.Logout(ctx)
}

func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.accessToken != "" && time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited for the lock
	if s.accessToken != "" && time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	tokenResp, err := s.client.Refresh(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}
	s.update(tokenResp)
	return s.accessToken, nil
}

// doAuthRequest sends an authenticated request. When withCSRF is set a
// fresh nonce is fetched and sent in the X-CSRF-Token header.
func (s *Session) doAuthRequest(ctx context.Context, method, path string, body any, withCSRF bool) (*http.Response, error) {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{"Authorization": "Bearer " + token}
	if withCSRF {
		csrf, err := s.client.CSRFToken(ctx)
		if err != nil {
			return nil, err
		}
		headers[CSRFHeader] = csrf
	}

	return s.client.doRequest(ctx, method, path, body, headers)
}

// CSRFHeader carries the nonce on privileged submissions.
const CSRFHeader = "X-CSRF-Token"

// SaveScript creates (ID zero) or replaces a script.
func (s *Session) SaveScript(ctx context.Context, script Script) (*Script, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/api/scripts", script, true)
	if err != nil {
		return nil, err
	}

	var out SaveScriptResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.Script, nil
}

// DeleteScript removes a script.
func (s *Session) DeleteScript(ctx context.Context, id int64) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, scriptPath(id), nil, false)
	if err != nil {
		return err
	}

	var out SuccessResponse
	return decodeJSON(resp, &out, http.StatusOK)
}

// ExportBackup downloads the catalog and settings.
func (s *Session) ExportBackup(ctx context.Context) (*Backup, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/api/backup", nil, false)
	if err != nil {
		return nil, err
	}

	var out Backup
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RestoreBackup replaces the catalog and settings with b.
func (s *Session) RestoreBackup(ctx context.Context, b Backup) (int, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/api/backup", b, true)
	if err != nil {
		return 0, err
	}

	var out RestoreResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return 0, err
	}
	return out.Restored, nil
}

// RecordAudit appends an entry to the audit log.
func (s *Session) RecordAudit(ctx context.Context, req AuditRequest) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/api/audit", req, false)
	if err != nil {
		return err
	}

	var out SuccessResponse
	return decodeJSON(resp, &out, http.StatusOK)
}

// ListAudit returns a page of the audit log, newest first.
func (s *Session) ListAudit(ctx context.Context, offset, limit int) (*ListAuditResponse, error) {
	path := "/api/audit?offset=" + strconv.Itoa(offset) + "&limit=" + strconv.Itoa(limit)
	resp, err := s.doAuthRequest(ctx, http.MethodGet, path, nil, false)
	if err != nil {
		return nil, err
	}

	var out ListAuditResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSettings returns the site settings.
func (s *Session) GetSettings(ctx context.Context) (map[string]any, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/api/settings", nil, false)
	if err != nil {
		return nil, err
	}

	var out SettingsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Settings, nil
}

// UpdateSettings replaces the site settings.
func (s *Session) UpdateSettings(ctx context.Context, settings map[string]any) (map[string]any, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPut, "/api/settings", SettingsRequest{Settings: settings}, true)
	if err != nil {
		return nil, err
	}

	var out SettingsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Settings, nil
}

func scriptPath(id int64) string {
	return "/api/scripts/" + strconv.FormatInt(id, 10)
}
