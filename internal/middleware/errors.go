// Package middleware holds the HTTP cross-cutting pieces: JWT authentication,
// JSON error shaping, and the API not-found handler.
package middleware

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

// APIError is an error with an HTTP status attached. Handlers return it when
// they want a specific status; anything else becomes a 500.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Errorf builds an APIError for a handler to return.
func Errorf(status int, message string) error {
	return &APIError{Status: status, Message: message}
}

// HandlerFunc is an http handler that reports failure by returning an error
// instead of writing its own error response.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Wrap converts a HandlerFunc into an http.HandlerFunc, shaping any returned
// error into a JSON body with the appropriate status.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) {
			RespondError(w, apiErr.Status, apiErr.Message)
			return
		}

		log.Printf("handler error: %s %s: %v", r.Method, r.URL.Path, err)
		RespondError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// NotFound shapes unmatched routes into the JSON 404 body.
func NotFound(w http.ResponseWriter, r *http.Request) {
	RespondError(w, http.StatusNotFound, "Not Found - "+r.URL.Path)
}

// RespondJSON writes v as a JSON response body with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// RespondError writes the uniform JSON error body.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"message": message})
}
