package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/scripthub/internal/admin/service"
	"github.com/aussiebroadwan/scripthub/internal/admin/store"
	"github.com/aussiebroadwan/scripthub/pkg/csrfx"
	"github.com/aussiebroadwan/scripthub/pkg/httpx"
	"github.com/aussiebroadwan/scripthub/pkg/jwtx"
	"github.com/aussiebroadwan/scripthub/pkg/slogx"

	_ "github.com/aussiebroadwan/scripthub/api/admin" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware
	handler     http.Handler

	verifier     jwtx.Verifier
	limiter      *httpx.FixedWindowLimiter
	guard        *csrfx.Guard
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	// Budgets are the per-route fixed windows. Defaults to DefaultBudgets.
	Budgets Budgets
	// SiteLimit is the token bucket applied in front of every route.
	SiteLimit httpx.RateLimitConfig
	// ClientIP identifies the caller for rate limiting and audit entries.
	ClientIP httpx.KeyExtractor
	// SecureCookies marks cookies Secure and enables HSTS.
	SecureCookies bool
	// LimiterCheck reports the health of a shared rate-limit store. Optional.
	LimiterCheck func(ctx context.Context) error

	SessionService *service.SessionService
	ContentService *service.ContentService
	AuditService   *service.AuditService
}

func NewRouter(
	verifier jwtx.Verifier,
	limiter *httpx.FixedWindowLimiter,
	guard *csrfx.Guard,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		limiter:      limiter,
		guard:        guard,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		Budgets:      DefaultBudgets(),
		SiteLimit:    httpx.SiteLimit,
		ClientIP:     httpx.IPKeyExtractor,
	}
}

// ApplyRoutes registers every route and builds the global middleware chain.
// Configure the exported fields before calling it.
func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerScripts()
	r.registerBackup()
	r.registerAudit()
	r.registerSettings()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpx.Chain(httpSwagger.Handler(), httpx.ContentSecurityPolicy(httpx.SwaggerCSP)))

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.SecurityHeaders(r.SecureCookies),
		httpx.RateLimitMiddleware(r.SiteLimit, r.ClientIP),
	}
	r.handler = httpx.Chain(r.Mux, r.middlewares...)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Scripthub Admin API
//	@version		0.1.0
//	@description	Owner-only administration API for the scripthub script catalog.
//	@description
//	@description				Access tokens are HS256 JWTs. The refresh token travels in the refresh_token cookie only.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/scripthub
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// public rate limits h.
func (r *Router) public(h http.Handler, b httpx.Budget) http.Handler {
	return httpx.Chain(h, r.limiter.Limit(b))
}

// admin gates h: rate limit, bearer token, admin role.
func (r *Router) admin(h http.Handler, b httpx.Budget) http.Handler {
	return httpx.Chain(h,
		r.limiter.Limit(b),
		httpx.BearerAuth(r.verifier),
		httpx.RequireRole(jwtx.RoleAdmin),
	)
}

// adminForm is admin plus a one-time CSRF nonce in X-CSRF-Token.
func (r *Router) adminForm(h http.Handler, b httpx.Budget) http.Handler {
	return httpx.Chain(h,
		r.limiter.Limit(b),
		httpx.BearerAuth(r.verifier),
		httpx.RequireRole(jwtx.RoleAdmin),
		r.guard.Require(),
	)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		SessionService: r.SessionService,
		AuditService:   r.AuditService,
		Guard:          r.guard,
		SecureCookies:  r.SecureCookies,
		ClientIP:       r.ClientIP,
	}

	// The login limit applies before the body is read, so it caps password
	// guesses whatever they contain.
	r.Mux.Handle("POST /api/auth", r.public(http.HandlerFunc(h.HandleLogin), r.Budgets.Login))
	r.Mux.Handle("POST /api/auth/refresh", r.public(http.HandlerFunc(h.HandleRefresh), r.Budgets.Refresh))
	r.Mux.Handle("POST /api/auth/logout", r.public(http.HandlerFunc(h.HandleLogout), r.Budgets.Logout))
	r.Mux.Handle("GET /api/auth/csrf", r.public(http.HandlerFunc(h.HandleCSRF), r.Budgets.CSRF))
}

func (r *Router) registerScripts() {
	h := &ScriptsHandler{ContentService: r.ContentService}

	r.Mux.Handle("GET /api/scripts", r.public(http.HandlerFunc(h.HandleList), r.Budgets.ScriptsRead))
	r.Mux.Handle("GET /api/scripts/{id}", r.public(http.HandlerFunc(h.HandleGet), r.Budgets.ScriptsRead))
	r.Mux.Handle("POST /api/scripts", r.adminForm(http.HandlerFunc(h.HandleSave), r.Budgets.ScriptsWrite))
	r.Mux.Handle("DELETE /api/scripts/{id}", r.admin(http.HandlerFunc(h.HandleDelete), r.Budgets.ScriptsDelete))
}

func (r *Router) registerBackup() {
	h := &BackupHandler{ContentService: r.ContentService}

	r.Mux.Handle("GET /api/backup", r.admin(http.HandlerFunc(h.HandleExport), r.Budgets.BackupExport))
	r.Mux.Handle("POST /api/backup", r.adminForm(http.HandlerFunc(h.HandleRestore), r.Budgets.BackupRestore))
}

func (r *Router) registerAudit() {
	h := &AuditHandler{AuditService: r.AuditService, ClientIP: r.ClientIP}

	r.Mux.Handle("POST /api/audit", r.admin(http.HandlerFunc(h.HandleRecord), r.Budgets.AuditWrite))
	r.Mux.Handle("GET /api/audit", r.admin(http.HandlerFunc(h.HandleList), r.Budgets.AuditRead))
}

func (r *Router) registerSettings() {
	h := &SettingsHandler{ContentService: r.ContentService}

	r.Mux.Handle("GET /api/settings", r.admin(http.HandlerFunc(h.HandleGet), r.Budgets.Settings))
	r.Mux.Handle("PUT /api/settings", r.adminForm(http.HandlerFunc(h.HandleUpdate), r.Budgets.Settings))
}

func (r *Router) registerSystem() {
	// Health checks only sit behind the site throttle.
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.LimiterCheck))
}
