package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"speechcheck/internal/service"
)

type errorResponse struct {
	Success bool            `json:"success"`
	Kind    string          `json:"kind,omitempty"`
	Field   string          `json:"field,omitempty"`
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, errorResponse{Success: false, Error: userMsg})
}

// respondServiceError maps a service error kind to a status code and writes
// the message unchanged
func respondServiceError(w http.ResponseWriter, logMsg string, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
		return
	}

	status := statusForKind(svcErr.Kind)
	if status >= http.StatusInternalServerError {
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, errorResponse{
		Success: false,
		Kind:    string(svcErr.Kind),
		Field:   svcErr.Field,
		Error:   svcErr.Message,
		Details: svcErr.Details,
	})
}

func statusForKind(kind service.Kind) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
