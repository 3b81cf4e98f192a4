// internal/infra/httpapi/respond.go
package httpapi

import (
	"encoding/json"
	"net/http"

	"menstrual_tracker_daemon/internal/infra/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondError sends a JSON error payload with the given status code.
func respondError(w http.ResponseWriter, r *http.Request, code int, message string) {
	if code > 499 {
		logger.Log.Errorf("Responding with %d on %s %s: %s", code, r.Method, r.URL.Path, message)
	}
	respondJSON(w, r, code, errorResponse{Error: message})
}

// respondJSON marshals the payload and writes it with the given status code.
func respondJSON(w http.ResponseWriter, r *http.Request, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.WithError(err).Errorf("Failed to marshal JSON response for %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}
