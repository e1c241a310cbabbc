package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/scripthub/internal/admin/service"
	"github.com/aussiebroadwan/scripthub/pkg/adminsdk"
	"github.com/aussiebroadwan/scripthub/pkg/httpx"
	"github.com/aussiebroadwan/scripthub/pkg/slogx"
)

// ScriptsHandler serves the script catalog.
type ScriptsHandler struct {
	ContentService *service.ContentService
}

// HandleList handles GET /api/scripts
//
//	@Summary		List scripts
//	@Description	Returns the whole public catalog.
//	@Tags			Scripts
//	@Produce		json
//	@Success		200	{object}	adminsdk.ListScriptsResponse	"scripts"
//	@Failure		429	{object}	adminsdk.ErrorResponse			"error, error_description"
//	@Router			/api/scripts [get].
func (h *ScriptsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, adminsdk.ListScriptsResponse{
		Scripts: toSDKScripts(h.ContentService.ListScripts()),
	})
}

// HandleGet handles GET /api/scripts/{id}
//
//	@Summary		Get script
//	@Tags			Scripts
//	@Produce		json
//	@Param			id	path		int						true	"Script ID"
//	@Success		200	{object}	adminsdk.ScriptResponse	"script"
//	@Failure		400	{object}	adminsdk.ErrorResponse	"error, error_description"
//	@Failure		404	{object}	adminsdk.ErrorResponse	"error, error_description"
//	@Failure		429	{object}	adminsdk.ErrorResponse	"error, error_description"
//	@Router			/api/scripts/{id} [get].
func (h *ScriptsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := scriptID(w, r)
	if !ok {
		return
	}

	script, err := h.ContentService.GetScript(id)
	if err != nil {
		writeServiceError(w, r, err, "get script")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, adminsdk.ScriptResponse{Script: toSDKScript(script)})
}

// HandleSave handles POST /api/scripts
//
//	@Summary		Create or update script
//	@Description	Creates a script when id is 0, otherwise replaces the script with that id.
//	@Description	Text fields are HTML escaped before they are stored. Requires a CSRF nonce.
//	@Tags			Scripts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			X-CSRF-Token	header		string						true	"CSRF nonce"
//	@Param			request			body		adminsdk.Script				true	"Script"
//	@Success		200				{object}	adminsdk.SaveScriptResponse	"success, script"
//	@Failure		400				{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		401				{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		403				{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		404				{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		429				{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		500				{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Router			/api/scripts [post].
func (h *ScriptsHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req adminsdk.Script
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		adminsdk.ErrInvalidRequest.WithDescription("Invalid script data").WriteError(w)
		return
	}

	script, created, err := h.ContentService.SaveScript(fromSDKScript(req))
	if err != nil {
		writeServiceError(w, r, err, "save script")
		return
	}

	slogx.FromContext(r.Context()).Info("script saved", "id", script.ID, "created", created)
	httpx.WriteJSON(w, http.StatusOK, adminsdk.SaveScriptResponse{
		Success: true,
		Script:  toSDKScript(script),
	})
}

// HandleDelete handles DELETE /api/scripts/{id}
//
//	@Summary		Delete script
//	@Tags			Scripts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int							true	"Script ID"
//	@Success		200	{object}	adminsdk.SuccessResponse	"success"
//	@Failure		400	{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		401	{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		403	{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		404	{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Failure		429	{object}	adminsdk.ErrorResponse		"error, error_description"
//	@Router			/api/scripts/{id} [delete].
func (h *ScriptsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := scriptID(w, r)
	if !ok {
		return
	}

	if err := h.ContentService.DeleteScript(id); err != nil {
		writeServiceError(w, r, err, "delete script")
		return
	}

	slogx.FromContext(r.Context()).Info("script deleted", "id", id)
	httpx.WriteJSON(w, http.StatusOK, adminsdk.SuccessResponse{Success: true})
}

func scriptID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		adminsdk.ErrInvalidRequest.WithDescription("Invalid script ID").WriteError(w)
		return 0, false
	}
	return id, true
}
