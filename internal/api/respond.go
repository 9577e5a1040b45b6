package api

import (
	"encoding/json"
	"log"
	"net/http"

	apperrors "parkfacil/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := apperrors.StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
		http.Error(w, "Internal server error", status)
		return
	}
	writeJSON(w, status, map[string]interface{}{
		"error":     err.Error(),
		"retryable": apperrors.Retryable(err),
	})
}
