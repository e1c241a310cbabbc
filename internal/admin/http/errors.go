package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/scripthub/internal/admin/service"
	"github.com/aussiebroadwan/scripthub/pkg/adminsdk"
	"github.com/aussiebroadwan/scripthub/pkg/slogx"
)

// writeServiceError maps content and audit service errors onto API errors.
// Anything unexpected is logged and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		adminsdk.ValidationError(verr.Field, verr.Message).WriteError(w)
	case errors.Is(err, service.ErrScriptNotFound):
		adminsdk.ErrNotFound.WithDescription("Script not found").WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error(op+" failed", "error", err)
		adminsdk.ErrServerError.WriteError(w)
	}
}
