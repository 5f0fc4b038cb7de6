package handler

// RESPONSE HELPERS:
// Every endpoint answers with JSON. Success bodies are whatever the service
// returned; failures always have the same small envelope:
//
//	{"error": "Username is required"}
//
// The dashboard frontend displays the "error" string as-is, so the text must
// be fixed, caller-facing wording. Internal causes (upstream status codes,
// URLs, decode errors) are logged by the handler and never written here.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/gh-profile-dashboard/internal/apperror"
)

// msgInternal is sent for errors that carry no caller-facing message.
const msgInternal = "Internal server error"

// ErrorResponse is the error envelope returned by all API endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set BEFORE the body is written. Once Encode
// calls w.Write, the headers are on the wire and later changes are ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent, so all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorStatus maps a service error to its HTTP status.
//
// ERROR MAPPING:
// errors.Is walks the whole chain (AppError.Unwrap returns both the sentinel
// and the cause), so a FetchFailed that wraps an Upstream still matches
// ErrFetchFailed here.
//
//	ErrValidation  → 400
//	ErrInProgress  → 429
//	ErrFetchFailed → 500
//	anything else  → 500
func errorStatus(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrInProgress):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends the envelope for err. Only the AppError's Message is
// exposed; an error without one gets a generic 500.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		writeJSON(w, errorStatus(err), ErrorResponse{Error: appErr.Message})
		return
	}

	// NEVER expose raw error text: it may contain upstream URLs or tokens.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msgInternal})
}
