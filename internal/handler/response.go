package handler

// RESPONSE HELPERS:
// Every response body is JSON. Failures share one shape:
//
//	{"error": true, "message": "Note not found"}
//
// and successful note/account responses carry "error": false alongside the
// payload, which is what the web client checks first.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/notes-api/internal/apperror"
)

// MaxBodyBytes caps every JSON request body.
const MaxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

const internalErrorMessage = "An internal error occurred"

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps a domain error onto an HTTP status. Anything that is not
// an *apperror.AppError is a 500.
func statusFor(err error) int {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}

	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrUnauthenticated), errors.Is(err, apperror.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends err to the client as an ErrorResponse.
//
// Domain errors carry a message written for users and it is sent as is.
// Anything else may hold SQL, file paths or driver detail, so the client
// gets a generic message and the cause goes to the log only.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)

	var appErr *apperror.AppError
	if status == http.StatusInternalServerError || !errors.As(err, &appErr) {
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: true, Message: internalErrorMessage})
		return
	}

	writeJSON(w, status, ErrorResponse{Error: true, Message: appErr.Message})
}

// decodeJSON reads a JSON request body into dst.
//
// An empty body decodes as {} so that a bare POST gets the same
// "X is required" answer as one with the field left out. Bodies over
// MaxBodyBytes, malformed JSON and anything after the first JSON value are
// validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return decodeError(err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return decodeError(err)
	}
	return nil
}

func decodeError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperror.ValidationFailed("", fmt.Sprintf("Request body must not exceed %d bytes", maxErr.Limit))
	}
	return apperror.ValidationFailed("", "Invalid JSON body")
}
