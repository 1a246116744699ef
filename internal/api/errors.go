package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-holograms/internal/definition"
	"github.com/nerrad567/gray-logic-holograms/internal/hologram"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest = "bad_request"
	ErrCodeNotFound   = "not_found"
	ErrCodeConflict   = "conflict"
	ErrCodeInternal   = "internal_error"
	ErrCodeValidation = "validation_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// isValidationError reports whether err stems from bad client input.
func isValidationError(err error) bool {
	return errors.Is(err, hologram.ErrInvalidName) ||
		errors.Is(err, hologram.ErrInvalidDefinition) ||
		errors.Is(err, hologram.ErrNoPages) ||
		errors.Is(err, hologram.ErrInvalidClickType) ||
		errors.Is(err, hologram.ErrInvalidAction) ||
		errors.Is(err, hologram.ErrInvalidDuration) ||
		errors.Is(err, definition.ErrInvalidSource)
}

// writeDisplayError maps manager and store errors onto HTTP responses.
func writeDisplayError(w http.ResponseWriter, err error) {
	switch {
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, hologram.ErrDisplayNotFound), errors.Is(err, definition.ErrNotFound):
		writeNotFound(w, err.Error())
	case errors.Is(err, hologram.ErrStoreReadOnly), errors.Is(err, hologram.ErrManagerDestroyed):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
