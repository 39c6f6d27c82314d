package api

import (
	"encoding/json"
	"net/http"

	"strom_dashboard/internal/log"
)

func respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warnf("Failed to encode JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, apiErr APIError) {
	respondJSON(w, apiErr.StatusCode, apiErr)
}
