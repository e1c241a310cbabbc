package http

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/aussiebroadwan/scripthub/internal/admin/domain"
	"github.com/aussiebroadwan/scripthub/internal/admin/service"
	"github.com/aussiebroadwan/scripthub/pkg/adminsdk"
	"github.com/aussiebroadwan/scripthub/pkg/csrfx"
	"github.com/aussiebroadwan/scripthub/pkg/httpx"
	"github.com/aussiebroadwan/scripthub/pkg/slogx"
)

const (
	minPasswordLen  = 8
	minCSRFTokenLen = 10
)

// AuthHandler serves login, refresh, logout and CSRF nonce issuance.
type AuthHandler struct {
	SessionService *service.SessionService
	AuditService   *service.AuditService
	Guard          *csrfx.Guard
	SecureCookies  bool
	ClientIP       httpx.KeyExtractor
}

// HandleLogin handles POST /api/auth
//
//	@Summary		Owner login
//	@Description	Verifies the owner password (and TOTP code when configured) together with a CSRF nonce from GET /api/auth/csrf.
//	@Description	Returns an access token and sets the refresh_token cookie. All credential failures return the same 401.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		adminsdk.LoginRequest	true	"password, token, otp"
//	@Success		200		{object}	adminsdk.TokenResponse	"success, accessToken, expiresIn"
//	@Failure		400		{object}	adminsdk.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	adminsdk.ErrorResponse	"error, error_description"
//	@Failure		403		{object}	adminsdk.ErrorResponse	"error, error_description"
//	@Failure		429		{object}	adminsdk.ErrorResponse	"error, error_description"
//	@Failure		500		{object}	adminsdk.ErrorResponse	"error, error_description"
//	@Router			/api/auth [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req adminsdk.LoginRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		adminsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLen || len(req.Token) < minCSRFTokenLen {
		adminsdk.ErrInvalidRequest.WithDescription("Invalid request data").WriteError(w)
		return
	}

	sid, _ := csrfx.SessionFromRequest(r)
	if !h.Guard.Verify(sid, req.Token) {
		log.Warn("login rejected: invalid csrf token", "ip", h.ClientIP(r))
		adminsdk.ErrInvalidCSRFToken.WriteError(w)
		return
	}

	session, err := h.SessionService.Login(ctx, req.Password, req.OTP)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		log.Warn("failed login attempt", "ip", h.ClientIP(r))
		adminsdk.ErrUnauthenticated.WithDescription("Invalid credentials").WriteError(w)
		return
	case err != nil:
		log.Error("login failed", "error", err)
		adminsdk.ErrServerError.WriteError(w)
		return
	}

	h.recordAudit(r, "auth.login", "session "+session.ID)
	h.writeSession(w, session)
}

// HandleRefresh handles POST /api/auth/refresh
//
//	@Summary		Rotate session
//	@Description	Exchanges the refresh_token cookie for a new access token and a new refresh cookie.
//	@Description	The presented refresh token is consumed. Presenting a consumed token again revokes the whole session.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	adminsdk.TokenResponse	"success, accessToken, expiresIn"
//	@Failure		401	{object}	adminsdk.ErrorResponse	"error, error_description"
//	@Failure		429	{object}	adminsdk.ErrorResponse	"error, error_description"
//	@Failure		500	{object}	adminsdk.ErrorResponse	"error, error_description"
//	@Router			/api/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	cookie, err := r.Cookie(adminsdk.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		clearRefreshCookie(w, h.SecureCookies)
		adminsdk.ErrUnauthenticated.WithDescription("No refresh token").WriteError(w)
		return
	}

	session, err := h.SessionService.Refresh(ctx, cookie.Value)
	switch {
	case errors.Is(err, service.ErrInvalidRefresh):
		clearRefreshCookie(w, h.SecureCookies)
		adminsdk.ErrUnauthenticated.WithDescription("Invalid refresh token").WriteError(w)
		return
	case err != nil:
		log.Error("refresh failed", "error", err)
		adminsdk.ErrServerError.WriteError(w)
		return
	}

	h.writeSession(w, session)
}

// HandleLogout handles POST /api/auth/logout
//
//	@Summary		Logout
//	@Description	Revokes the session behind the refresh_token cookie and clears the cookie. Always succeeds.
//	@Description	Access tokens already issued stay valid until they expire.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	adminsdk.SuccessResponse	"success"
//	@Failure		429	{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Router			/api/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(adminsdk.RefreshCookieName); err == nil {
		h.SessionService.Logout(r.Context(), cookie.Value)
	}

	clearRefreshCookie(w, h.SecureCookies)
	httpx.WriteJSON(w, http.StatusOK, adminsdk.SuccessResponse{Success: true})
}

// HandleCSRF handles GET /api/auth/csrf
//
//	@Summary		Issue CSRF nonce
//	@Description	Returns a one-time nonce bound to the csrf_session cookie, creating the cookie when absent.
//	@Description	A new nonce replaces the previous one for the same form session.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	adminsdk.CSRFResponse	"csrfToken"
//	@Failure		429	{object}	adminsdk.ErrorResponse	"error, error_description"
//	@Failure		500	{object}	adminsdk.ErrorResponse	"error, error_description"
//	@Router			/api/auth/csrf [get].
func (h *AuthHandler) HandleCSRF(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	sid, ok := csrfx.SessionFromRequest(r)
	if !ok {
		var err error
		if sid, err = csrfx.NewSessionID(); err != nil {
			log.Error("failed to create form session", "error", err)
			adminsdk.ErrServerError.WriteError(w)
			return
		}
	}

	token, err := h.Guard.Generate(sid)
	if err != nil {
		log.Error("failed to generate csrf token", "error", err)
		adminsdk.ErrServerError.WriteError(w)
		return
	}

	// Refreshing the cookie keeps it alive as long as the nonce.
	setFormSessionCookie(w, sid, h.Guard.TTL(), h.SecureCookies)
	httpx.WriteJSON(w, http.StatusOK, adminsdk.CSRFResponse{CSRFToken: token})
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, s *domain.Session) {
	setRefreshCookie(w, s.RefreshToken, s.RefreshTTL(), h.SecureCookies)
	httpx.WriteJSON(w, http.StatusOK, adminsdk.TokenResponse{
		Success:     true,
		AccessToken: s.AccessToken,
		ExpiresIn:   int64(s.AccessTTL().Seconds()),
	})
}

func (h *AuthHandler) recordAudit(r *http.Request, action, details string) {
	if h.AuditService == nil {
		return
	}
	if _, err := h.AuditService.Record(service.AuditInput{
		Action:  action,
		Details: details,
		IP:      h.ClientIP(r),
	}); err != nil {
		slogx.FromContext(r.Context()).Error("failed to record audit entry", "error", err, "action", action)
	}
}
