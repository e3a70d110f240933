// Package handler serves the JSON API over the tracker service.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/dailyboard/internal/lostark"
	"github.com/dukerupert/dailyboard/internal/tracker"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// writeError maps a service error to a status code. Unexpected errors are
// logged and hidden behind "failed to <action>".
func writeError(w http.ResponseWriter, logger *slog.Logger, action string, err error) {
	var verr *tracker.ValidationError
	var apiErr *lostark.APIError
	switch {
	case errors.As(err, &verr):
		writeMessage(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, tracker.ErrCharacterNotFound):
		writeMessage(w, http.StatusNotFound, "character not found")
	case errors.Is(err, tracker.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, lostark.ErrNoToken):
		writeMessage(w, http.StatusUnauthorized, "set a lost ark api token first")
	case errors.Is(err, lostark.ErrInvalidToken):
		writeMessage(w, http.StatusBadRequest, "the api rejected this token")
	case errors.As(err, &apiErr):
		logger.Warn("lost ark api error", "action", action, "status", apiErr.Status, "path", apiErr.Path)
		writeMessage(w, http.StatusBadGateway, "lost ark api request failed")
	default:
		logger.Error("request failed", "action", action, "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// writeResult answers an optimistic command with its current value.
func writeResult[T any](w http.ResponseWriter, logger *slog.Logger, action string, res tracker.Result[T]) {
	if res.Err != nil {
		writeError(w, logger, action, res.Err)
		return
	}
	writeJSON(w, http.StatusOK, res.Current)
}

type orderRequest struct {
	IDs []string `json:"ids"`
}

type deltaRequest struct {
	Delta int `json:"delta"`
}
