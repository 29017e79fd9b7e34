package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

type errorBody struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// WriteError emits the uniform error envelope shared by every failure,
// tagged with the chi request id when one is present.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string, details interface{}) {
	resp := errorResponse{
		Error: errorBody{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: middleware.GetReqID(r.Context()),
		},
	}
	WriteJSON(w, statusCode, resp)
}

// WriteUnauthorized collapses every authentication failure into one
// indistinguishable 401 so callers cannot probe which check failed.
func WriteUnauthorized(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Unauthorized", nil)
}

func writeInternalError(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
}
