package http

import (
	"net/http"

	"github.com/aussiebroadwan/scripthub/internal/admin/domain"
	"github.com/aussiebroadwan/scripthub/internal/admin/service"
	"github.com/aussiebroadwan/scripthub/pkg/adminsdk"
	"github.com/aussiebroadwan/scripthub/pkg/httpx"
	"github.com/aussiebroadwan/scripthub/pkg/slogx"
)

// BackupHandler exports and restores the catalog and settings.
type BackupHandler struct {
	ContentService *service.ContentService
}

// HandleExport handles GET /api/backup
//
//	@Summary		Export backup
//	@Description	Returns the catalog and settings as one document, served as an attachment.
//	@Tags			Backup
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	adminsdk.Backup			"scripts, settings, version, timestamp"
//	@Failure		401	{object}	adminsdk.ErrorResponse	"error, error_description"
//	@Failure		403	{object}	adminsdk.ErrorResponse	"error, error_description"
//	@Failure		429	{object}	adminsdk.ErrorResponse	"error, error_description"
//	@Router			/api/backup [get].
func (h *BackupHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	b := h.ContentService.Export()

	w.Header().Set("Content-Disposition", `attachment; filename="scripthub-backup.json"`)
	httpx.WriteJSON(w, http.StatusOK, adminsdk.Backup{
		Scripts:   toSDKScripts(b.Scripts),
		Settings:  b.Settings,
		Version:   b.Version,
		Timestamp: b.Timestamp,
	})
}

// HandleRestore handles POST /api/backup
//
//	@Summary		Restore backup
//	@Description	Validates the whole document, then replaces the catalog and settings in one step.
//	@Description	Nothing changes when any script is invalid. Requires a CSRF nonce.
//	@Tags			Backup
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			X-CSRF-Token	header		string						true	"CSRF nonce"
//	@Param			request			body		adminsdk.Backup				true	"Backup document"
//	@Success		200				{object}	adminsdk.RestoreResponse	"success, restored"
//	@Failure		400				{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		401				{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		403				{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		429				{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Router			/api/backup [post].
func (h *BackupHandler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	var req adminsdk.Backup
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		adminsdk.ErrInvalidRequest.WithDescription("Invalid backup data").WriteError(w)
		return
	}

	n, err := h.ContentService.Restore(domain.Backup{
		Scripts:   fromSDKScripts(req.Scripts),
		Settings:  req.Settings,
		Version:   req.Version,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		writeServiceError(w, r, err, "restore backup")
		return
	}

	slogx.FromContext(r.Context()).Info("backup restored", "scripts", n, "version", req.Version)
	httpx.WriteJSON(w, http.StatusOK, adminsdk.RestoreResponse{Success: true, Restored: n})
}
