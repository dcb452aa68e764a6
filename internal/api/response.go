package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// maxJSONBody bounds login and position bodies; only upserts carry photos.
const maxJSONBody = 64 << 10

// decodeJSON decodes a small JSON request body into target, answering 413
// or 400 itself. It reports whether the handler may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	defer r.Body.Close()
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(target)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		jsonError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	jsonError(w, http.StatusBadRequest, "invalid request body")
	return false
}
