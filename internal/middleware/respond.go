package middleware

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/benvon/taskcloud/internal/models"
)

// respondError writes an error envelope
func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(models.Envelope{Code: status, Msg: message}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
