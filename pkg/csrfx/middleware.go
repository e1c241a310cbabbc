package csrfx

import (
	"encoding/json"
	"net/http"

	"github.com/aussiebroadwan/scripthub/pkg/slogx"
)

// Require rejects requests whose X-CSRF-Token header does not match the
// outstanding nonce of the caller's form session.
func (g *Guard) Require() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid, _ := SessionFromRequest(r)
			if !g.Verify(sid, r.Header.Get(HeaderName)) {
				slogx.FromContext(r.Context()).Warn("csrf token rejected", "has_session", sid != "")
				writeForbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeForbidden(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             "invalid_csrf_token",
		"error_description": "invalid or expired form token",
	})
}
