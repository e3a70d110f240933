package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/dailyboard/internal/tracker"
)

type SettingsHandler struct {
	svc    *tracker.Service
	logger *slog.Logger
}

func NewSettingsHandler(svc *tracker.Service, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{svc: svc, logger: logger}
}

type tokenRequest struct {
	Token    string `json:"token"`
	Validate bool   `json:"validate"`
}

type tokenStatus struct {
	Configured bool `json:"configured"`
}

// GetToken reports whether a token is stored. The token itself is never returned.
func (h *SettingsHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.TokenStatus(r.Context())
	if err != nil {
		writeError(w, h.logger, "read token", err)
		return
	}
	writeJSON(w, http.StatusOK, tokenStatus{Configured: ok})
}

func (h *SettingsHandler) PutToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.SetToken(r.Context(), req.Token, req.Validate); err != nil {
		writeError(w, h.logger, "save token", err)
		return
	}
	writeJSON(w, http.StatusOK, tokenStatus{Configured: true})
}

func (h *SettingsHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearToken(r.Context()); err != nil {
		writeError(w, h.logger, "clear token", err)
		return
	}
	writeJSON(w, http.StatusOK, tokenStatus{Configured: false})
}
