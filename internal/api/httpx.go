package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"pkg.jsn.cam/foodjournal/pkg/journal"
)

// maxBodyBytes caps request payloads.
const maxBodyBytes = 64 << 10

// handlerFunc is an http handler that may fail; errors are mapped to status codes.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// wrap converts a handlerFunc to an http.HandlerFunc by handling errors.
func wrap(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				log.Printf("[API] %s %s %s: %v", requestID(r.Context()), r.Method, r.URL.Path, err)
			}
			writeError(w, status, err.Error())
		}
	}
}

// statusFor maps the journal error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, journal.ErrNotFound):
		// The referenced user is a precondition of the request, not its target.
		return http.StatusPreconditionFailed
	case errors.Is(err, journal.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, journal.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, journal.ErrStorageUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody decodes a size-limited JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: request body: %w", journal.ErrInvalidInput, err)
	}
	return nil
}
