package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/gallery"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes appropriate error response based on error type
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gallery.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "Image not found")
	case errors.Is(err, gallery.ErrInvalidInput):
		slog.Info("rejected request", "error", err)
		WriteError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, gallery.ErrUnauthorized):
		slog.Info("rejected signature", "error", err)
		WriteError(w, http.StatusForbidden, "unauthorized", err.Error())
	case errors.Is(err, gallery.ErrStorage):
		slog.Error("request error", "error", err)
		WriteError(w, http.StatusInternalServerError, "storage_error", "Failed to store image")
	case errors.Is(err, gallery.ErrPersistence):
		slog.Error("request error", "error", err)
		WriteError(w, http.StatusInternalServerError, "persistence_error", "Failed to access image metadata")
	default:
		slog.Error("request error", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
