package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/dailyboard/internal/model"
	"github.com/dukerupert/dailyboard/internal/tracker"
)

// CharacterHandler serves a character's checklist. Characters are addressed
// by their Name@Server key.
type CharacterHandler struct {
	svc    *tracker.Service
	logger *slog.Logger
}

func NewCharacterHandler(svc *tracker.Service, logger *slog.Logger) *CharacterHandler {
	return &CharacterHandler{svc: svc, logger: logger}
}

// selectionRequest carries the chosen group ids. A null or missing list
// selects every group; an empty list selects none.
type selectionRequest struct {
	Groups *[]string `json:"groups"`
}

func (h *CharacterHandler) Todos(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.CharacterBoard(r.PathValue("key"))
	if err != nil {
		writeError(w, h.logger, "load character todos", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *CharacterHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if !decode(w, r, &req) {
		return
	}
	sel := model.AllGroups()
	if req.Groups != nil {
		sel = model.SpecificGroups(*req.Groups...)
	}
	writeResult(w, h.logger, "save selection", h.svc.SetSelection(r.Context(), r.PathValue("key"), sel))
}

func (h *CharacterHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.logger, "clear selection", h.svc.ClearSelection(r.Context(), r.PathValue("key")))
}

func (h *CharacterHandler) SetProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Value == nil {
		writeMessage(w, http.StatusBadRequest, "value is required")
		return
	}
	res := h.svc.SetProgress(r.Context(), r.PathValue("key"), r.PathValue("group_id"), r.PathValue("item_id"), *req.Value)
	writeResult(w, h.logger, "save progress", res)
}

func (h *CharacterHandler) IncrementProgress(w http.ResponseWriter, r *http.Request) {
	var req deltaRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.svc.IncrementProgress(r.Context(), r.PathValue("key"), r.PathValue("group_id"), r.PathValue("item_id"), req.Delta)
	writeResult(w, h.logger, "save progress", res)
}
