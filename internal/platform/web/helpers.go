// Package web holds the JSON response helpers and HTTP middleware shared by the handlers.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// RespondJSON writes payload with the given status. A nil payload writes the status alone.
func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to encode JSON response", "status", status, "error", err)
		body, status = []byte(`{"error":"Internal Server Error"}`), http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logger.Debug("failed to write response", "error", err)
	}
}

func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	RespondErrorDetail(w, logger, status, message, "")
}

// RespondErrorDetail is RespondError with a diagnostic detail. An empty detail is omitted.
func RespondErrorDetail(w http.ResponseWriter, logger *slog.Logger, status int, message, detail string) {
	RespondJSON(w, logger, status, ErrorResponse{Error: message, Detail: detail})
}
