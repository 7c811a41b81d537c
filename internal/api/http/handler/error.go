package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/postpilot/postpilot-server/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleError maps service errors to transport responses in one place.
// Ownership failures surface as 404, indistinguishable from absent rows.
func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "post not found")
	case errors.Is(err, model.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid status")
	case errors.Is(err, model.ErrInvalidRawEvent):
		writeError(w, http.StatusBadRequest, "invalid raw event")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
