package handler

import (
	"encoding/json"
	"net/http"

	"postpulse/pkg/errors"
	"postpulse/pkg/logger"
)

// SuccessResponse is the body of endpoints that only acknowledge. Every
// tracking response is a flat object carrying "success" next to its fields;
// errors use the {"success":false,"error":{...}} envelope.
type SuccessResponse struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}, log *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func writeOK(w http.ResponseWriter, body interface{}, log *logger.Logger) {
	writeJSON(w, http.StatusOK, body, log)
}

func writeError(w http.ResponseWriter, err error) {
	errors.WriteJSON(w, err)
}
