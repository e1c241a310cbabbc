package http

import (
	"net/http"

	"github.com/aussiebroadwan/scripthub/internal/admin/service"
	"github.com/aussiebroadwan/scripthub/pkg/adminsdk"
	"github.com/aussiebroadwan/scripthub/pkg/httpx"
)

type SettingsHandler struct {
	ContentService *service.ContentService
}

// HandleGet handles GET /api/settings
//
//	@Summary		Get site settings
//	@Tags			Settings
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	adminsdk.SettingsResponse	"settings"
//	@Failure		401	{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		403	{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		429	{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Router			/api/settings [get].
func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, adminsdk.SettingsResponse{Settings: h.ContentService.Settings()})
}

// HandleUpdate handles PUT /api/settings
//
//	@Summary		Replace site settings
//	@Description	Replaces the settings object wholesale. Requires a CSRF nonce.
//	@Tags			Settings
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			X-CSRF-Token	header		string						true	"CSRF nonce"
//	@Param			request			body		adminsdk.SettingsRequest	true	"settings"
//	@Success		200				{object}	adminsdk.SettingsResponse	"success, settings"
//	@Failure		400				{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		401				{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		403				{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		429				{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Router			/api/settings [put].
func (h *SettingsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req adminsdk.SettingsRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		adminsdk.ErrInvalidRequest.WithDescription("Invalid settings").WriteError(w)
		return
	}

	settings := h.ContentService.UpdateSettings(req.Settings)
	httpx.WriteJSON(w, http.StatusOK, adminsdk.SettingsResponse{Success: true, Settings: settings})
}
