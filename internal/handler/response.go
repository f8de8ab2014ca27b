package handler

// RESPONSE HELPERS:
// Every JSON response goes through writeJSON, every failure through
// writeError, so the API has one body shape for errors:
//
//	{"msg": "Todo not found", "error": "not_found"}
//
// "msg" is what the browser shows in a toast. "error" is a stable machine
// code the client can branch on.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/todolist/internal/apperror"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// MessageResponse is the success body of every mutating endpoint.
type MessageResponse struct {
	Msg string `json:"msg"`
}

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Msg   string `json:"msg"`             // human-readable, safe to display
	Error string `json:"error"`           // machine-readable type, e.g. "not_found"
	Field string `json:"field,omitempty"` // offending request field for validation errors
}

// errorText overrides the client message per error class. Empty fields fall
// back to the AppError's own message (or a generic one for 500s).
type errorText struct {
	NotFound string
	Conflict string
	Internal string
}

// writeJSON sends data as JSON with the given status.
//
// HEADER ORDER MATTERS: headers, then WriteHeader, then the body. Anything
// set on the header map after the first Write is silently dropped.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// decodeJSON reads a JSON body of at most maxBodyBytes into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

func writeBadJSON(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Msg: "Invalid JSON body", Error: "bad_request"})
}

// writeError maps a domain error to a status code and sends it.
//
// ERROR MAPPING:
//
//	ErrValidation         → 400
//	ErrUnauthorized       → 401
//	ErrNotFound           → 404
//	ErrInvalidCredentials → 404 (a failed login reads like "no such account")
//	ErrConflict           → 409
//	anything else         → 500, logged, with no internal detail in the body
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, text errorText) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		msg := text.Internal
		if msg == "" {
			msg = "Internal Server Error"
		}
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Msg: msg, Error: "internal_error"})
		return
	}

	resp := ErrorResponse{Msg: appErr.Message, Error: "internal_error"}
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, resp.Error, resp.Field = http.StatusBadRequest, "validation_error", appErr.Field
	case errors.Is(err, apperror.ErrUnauthorized):
		status, resp.Error = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrNotFound):
		status, resp.Error = http.StatusNotFound, "not_found"
		if text.NotFound != "" {
			resp.Msg = text.NotFound
		}
	case errors.Is(err, apperror.ErrInvalidCredentials):
		status, resp.Error = http.StatusNotFound, "invalid_credentials"
	case errors.Is(err, apperror.ErrConflict):
		status, resp.Error = http.StatusConflict, "conflict"
		if text.Conflict != "" {
			resp.Msg = text.Conflict
		}
	}

	writeJSON(w, status, resp)
}
