package httpx

import (
	"net/http"

	"github.com/aussiebroadwan/scripthub/pkg/jwtx"
)

// RequireRole lets the request through only when BearerAuth attached claims
// carrying role. Must run after BearerAuth.
func RequireRole(role jwtx.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok || claims.Role != role {
				w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope"`)
				writeError(w, http.StatusForbidden, "access_denied", "admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
