package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/dailyboard/internal/model"
	"github.com/dukerupert/dailyboard/internal/tracker"
)

// TodoHandler edits the todo templates: per-character groups and the
// account-wide expedition list.
type TodoHandler struct {
	svc    *tracker.Service
	logger *slog.Logger
}

func NewTodoHandler(svc *tracker.Service, logger *slog.Logger) *TodoHandler {
	return &TodoHandler{svc: svc, logger: logger}
}

type todoGroupRequest struct {
	Name string `json:"name"`
}

type todoItemRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	TargetCount *int   `json:"target_count"`
}

func (req todoItemRequest) spec() tracker.ItemSpec {
	return tracker.ItemSpec{Name: req.Name, Type: model.ItemType(req.Type), TargetCount: req.TargetCount}
}

func (h *TodoHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.State().TodoGroups())
}

func (h *TodoHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req todoGroupRequest
	if !decode(w, r, &req) {
		return
	}
	g, err := h.svc.CreateTodoGroup(r.Context(), req.Name)
	if err != nil {
		writeError(w, h.logger, "create todo group", err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *TodoHandler) RenameGroup(w http.ResponseWriter, r *http.Request) {
	var req todoGroupRequest
	if !decode(w, r, &req) {
		return
	}
	g, err := h.svc.RenameTodoGroup(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		writeError(w, h.logger, "rename todo group", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *TodoHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTodoGroup(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, h.logger, "delete todo group", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TodoHandler) ReorderGroups(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !decode(w, r, &req) {
		return
	}
	writeResult(w, h.logger, "reorder todo groups", h.svc.ReorderTodoGroups(r.Context(), req.IDs))
}

func (h *TodoHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req todoItemRequest
	if !decode(w, r, &req) {
		return
	}
	item, err := h.svc.AddTodoItem(r.Context(), r.PathValue("id"), req.spec())
	if err != nil {
		writeError(w, h.logger, "add todo", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *TodoHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTodoItem(r.Context(), r.PathValue("id"), r.PathValue("item_id")); err != nil {
		writeError(w, h.logger, "delete todo", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TodoHandler) ReorderItems(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.svc.ReorderTodoItems(r.Context(), r.PathValue("id"), req.IDs)
	writeResult(w, h.logger, "reorder todos", res)
}

func (h *TodoHandler) ListExpedition(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.State().ExpeditionItems())
}

func (h *TodoHandler) AddExpedition(w http.ResponseWriter, r *http.Request) {
	var req todoItemRequest
	if !decode(w, r, &req) {
		return
	}
	item, err := h.svc.AddExpeditionItem(r.Context(), req.spec())
	if err != nil {
		writeError(w, h.logger, "add expedition todo", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *TodoHandler) DeleteExpedition(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteExpeditionItem(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, h.logger, "delete expedition todo", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TodoHandler) ReorderExpedition(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !decode(w, r, &req) {
		return
	}
	writeResult(w, h.logger, "reorder expedition todos", h.svc.ReorderExpeditionItems(r.Context(), req.IDs))
}
