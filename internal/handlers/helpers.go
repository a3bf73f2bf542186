package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/benvon/taskcloud/internal/models"
	"github.com/benvon/taskcloud/internal/request"
	"github.com/benvon/taskcloud/internal/validation"
	"github.com/gorilla/mux"
)

// maxErrorMessageLength caps messages echoed back to clients
const maxErrorMessageLength = 200

// respondJSON sends a success envelope. The envelope code is always 200, even
// when the HTTP status is 201.
func respondJSON(w http.ResponseWriter, status int, msg string, data any) {
	writeEnvelope(w, status, models.Envelope{Code: http.StatusOK, Msg: msg, Data: data})
}

// respondJSONError sends an error envelope whose code mirrors the HTTP status
func respondJSONError(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, models.Envelope{Code: status, Msg: sanitizeErrorMessage(message)})
}

func writeEnvelope(w http.ResponseWriter, status int, env models.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage truncates overly long messages
func sanitizeErrorMessage(message string) string {
	if len(message) > maxErrorMessageLength {
		return message[:maxErrorMessageLength] + "..."
	}
	return message
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the error response itself and reports whether the caller may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}

	if err := validation.Validate.Struct(dst); err != nil {
		respondJSONError(w, http.StatusBadRequest, validation.Message(err))
		return false
	}
	return true
}

// requirePrincipal returns the caller or writes a 401
func requirePrincipal(w http.ResponseWriter, r *http.Request) *request.Principal {
	p := request.PrincipalFromContext(r)
	if p == nil {
		respondJSONError(w, http.StatusUnauthorized, "Authentication required")
	}
	return p
}

// taskIDFromPath parses the {id} route variable
func taskIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respondJSONError(w, http.StatusBadRequest, "Invalid task ID")
		return 0, false
	}
	return id, true
}
