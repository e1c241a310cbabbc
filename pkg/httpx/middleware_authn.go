package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/scripthub/pkg/jwtx"
	"github.com/aussiebroadwan/scripthub/pkg/slogx"
)

// BearerAuth verifies the access token in the Authorization header and
// stores its claims in the request context. Every failure produces the same
// 401 body; the cause only goes to the log.
func BearerAuth(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := bearerToken(r)
			if !ok {
				writeBearerError(w)
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("bearer token rejected", "err", err)
				writeBearerError(w)
				return
			}
			if claims.Type != jwtx.TypeAccess {
				log.Warn("bearer token rejected", "err", "not an access token", "type", claims.Type)
				writeBearerError(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithClaims(ctx, claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, raw, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// RFC 6750 error response for bearer auth.
func writeBearerError(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	writeError(w, http.StatusUnauthorized, "invalid_token", "authentication required")
}
