// Package response writes the gateway's JSON bodies.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSON writes data as a JSON body with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Debug("write response body", "error", err)
	}
}

// Error writes {"error": message}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Invalid writes a 400 naming the rejected input field.
func Invalid(w http.ResponseWriter, field, message string) {
	JSON(w, http.StatusBadRequest, map[string]string{"error": message, "field": field})
}

// NoContent writes an empty 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
