package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"estimate-desk/internal/app"
	"estimate-desk/internal/core"
	"estimate-desk/internal/render"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeServiceError maps an ApplicationService error onto an HTTP status and code.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsValidation(err):
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrEstimateConverted),
		errors.Is(err, core.ErrAlreadyConverted),
		errors.Is(err, core.ErrInvalidStatusTransition),
		errors.Is(err, core.ErrInvalidState):
		writeError(w, r, err.Error(), "CONFLICT", http.StatusConflict)
	case errors.Is(err, app.ErrDrafterUnavailable):
		writeError(w, r, err.Error(), "UNAVAILABLE", http.StatusServiceUnavailable)
	case errors.Is(err, render.ErrTotalMismatch):
		log.Printf("[RENDER] rid=%s %v", requestIDFromContext(r.Context()), err)
		writeError(w, r, err.Error(), "TOTAL_MISMATCH", http.StatusInternalServerError)
	default:
		log.Printf("[ERROR] rid=%s %s %s: %v", requestIDFromContext(r.Context()), r.Method, r.URL.Path, err)
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
