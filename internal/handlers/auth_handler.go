package handlers

import (
	"errors"
	"net/http"
	"time"

	"speechcheck/internal/security"
	"speechcheck/internal/service"
)

// AuthHandler handles operator login and logout
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login exchanges the operator password for a token. The token is returned
// in the body and set as a cookie for browser clients.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, expiresAt, err := h.authService.Login(req.Password)
	switch {
	case errors.Is(err, service.ErrAuthDisabled):
		respondWithError(w, http.StatusNotFound, "Operator login is not enabled", "", nil)
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "Invalid password", "", nil)
		return
	case err != nil:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to issue operator token", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, security.OperatorCookieName, token, expiresAt))
	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"token":      token,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
}

// Logout clears the operator cookie. Tokens are stateless and stay valid
// until they expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, security.CreateDeleteCookie(r, security.OperatorCookieName))
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
