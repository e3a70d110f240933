package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/dailyboard/internal/model"
	"github.com/dukerupert/dailyboard/internal/tracker"
)

type GroupHandler struct {
	svc    *tracker.Service
	logger *slog.Logger
}

func NewGroupHandler(svc *tracker.Service, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{svc: svc, logger: logger}
}

type searchRequest struct {
	Name string `json:"name"`
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.State().Groups())
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	g, ok := h.svc.State().Group(r.PathValue("id"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "character group not found")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Search looks up a character and stores its account roster as a new group.
func (h *GroupHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decode(w, r, &req) {
		return
	}
	g, err := h.svc.Search(r.Context(), req.Name)
	if err != nil {
		writeError(w, h.logger, "search character", err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *GroupHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Refresh(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "refresh group", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteGroup(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, h.logger, "delete group", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GroupHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !decode(w, r, &req) {
		return
	}
	writeResult(w, h.logger, "reorder groups", h.svc.ReorderGroups(r.Context(), req.IDs))
}

type characterOrderRequest struct {
	Keys []string `json:"keys"`
}

func (h *GroupHandler) ReorderCharacters(w http.ResponseWriter, r *http.Request) {
	var req characterOrderRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.svc.ReorderCharacters(r.Context(), r.PathValue("id"), req.Keys)
	writeResult(w, h.logger, "reorder characters", res)
}

func (h *GroupHandler) MoveCharacter(w http.ResponseWriter, r *http.Request) {
	var req deltaRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.svc.MoveCharacter(r.Context(), r.PathValue("id"), r.PathValue("key"), req.Delta)
	writeResult(w, h.logger, "move character", res)
}

func (h *GroupHandler) Expedition(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.ExpeditionBoard(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "load expedition todos", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type progressRequest struct {
	Value *model.Progress `json:"value"`
}

func (h *GroupHandler) SetExpeditionProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Value == nil {
		writeMessage(w, http.StatusBadRequest, "value is required")
		return
	}
	res := h.svc.SetExpeditionProgress(r.Context(), r.PathValue("id"), r.PathValue("item_id"), *req.Value)
	writeResult(w, h.logger, "save expedition progress", res)
}

func (h *GroupHandler) IncrementExpeditionProgress(w http.ResponseWriter, r *http.Request) {
	var req deltaRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.svc.IncrementExpeditionProgress(r.Context(), r.PathValue("id"), r.PathValue("item_id"), req.Delta)
	writeResult(w, h.logger, "save expedition progress", res)
}
