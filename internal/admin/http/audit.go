package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/scripthub/internal/admin/service"
	"github.com/aussiebroadwan/scripthub/pkg/adminsdk"
	"github.com/aussiebroadwan/scripthub/pkg/httpx"
)

const maxAuditPage = 1000

// AuditHandler appends to and pages through the audit log.
type AuditHandler struct {
	AuditService *service.AuditService
	ClientIP     httpx.KeyExtractor
}

// HandleRecord handles POST /api/audit
//
//	@Summary		Record audit entry
//	@Description	Appends an owner action to the audit log. The client IP is recorded server side.
//	@Tags			Audit
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		adminsdk.AuditRequest		true	"action, details, timestamp"
//	@Success		200		{object}	adminsdk.SuccessResponse	"success"
//	@Failure		400		{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		401		{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		403		{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		429		{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Router			/api/audit [post].
func (h *AuditHandler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	var req adminsdk.AuditRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		adminsdk.ErrInvalidRequest.WithDescription("Invalid audit data").WriteError(w)
		return
	}

	_, err := h.AuditService.Record(service.AuditInput{
		Action:    req.Action,
		Details:   req.Details,
		Timestamp: req.Timestamp,
		IP:        h.ClientIP(r),
	})
	if err != nil {
		writeServiceError(w, r, err, "record audit entry")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, adminsdk.SuccessResponse{Success: true})
}

// HandleList handles GET /api/audit
//
//	@Summary		List audit entries
//	@Description	Returns a page of the audit log, newest first, with the number of entries held.
//	@Tags			Audit
//	@Produce		json
//	@Security		BearerAuth
//	@Param			limit	query		int							false	"Page size (default 50, max 1000)"
//	@Param			offset	query		int							false	"Entries to skip (default 0)"
//	@Success		200		{object}	adminsdk.ListAuditResponse	"logs, total"
//	@Failure		400		{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		401		{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		403		{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		429		{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Router			/api/audit [get].
func (h *AuditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", service.DefaultAuditPageSize)
	if !ok || limit <= 0 {
		adminsdk.ErrInvalidRequest.WithDescription("Invalid limit").WriteError(w)
		return
	}
	offset, ok := queryInt(r, "offset", 0)
	if !ok || offset < 0 {
		adminsdk.ErrInvalidRequest.WithDescription("Invalid offset").WriteError(w)
		return
	}

	logs, total := h.AuditService.List(offset, min(limit, maxAuditPage))
	httpx.WriteJSON(w, http.StatusOK, adminsdk.ListAuditResponse{
		Logs:  toSDKAuditEntries(logs),
		Total: total,
	})
}

func queryInt(r *http.Request, key string, def int) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}
