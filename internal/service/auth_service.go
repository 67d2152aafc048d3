package service

import (
	"errors"
	"fmt"
	"time"

	"speechcheck/internal/security"
)

var (
	ErrAuthDisabled       = errors.New("operator authentication is not configured")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrSessionExpired     = errors.New("session expired or invalid")
)

// AuthService guards the API with a single operator password. Successful
// logins receive a signed token instead of a server-side session.
type AuthService struct {
	passwordHash string
	tokens       *security.TokenManager
	now          func() time.Time
}

// NewAuthService creates a new auth service. An empty password hash
// disables authentication.
func NewAuthService(passwordHash, tokenSecret string, tokenTTL time.Duration) (*AuthService, error) {
	s := &AuthService{passwordHash: passwordHash, now: time.Now}
	if passwordHash == "" {
		return s, nil
	}
	if tokenSecret == "" {
		return nil, errors.New("OPERATOR_TOKEN_SECRET is required when OPERATOR_PASSWORD_HASH is set")
	}
	tokens, err := security.NewTokenManager(tokenSecret, tokenTTL)
	if err != nil {
		return nil, err
	}
	s.tokens = tokens
	return s, nil
}

// Enabled reports whether callers must present a token
func (s *AuthService) Enabled() bool {
	return s.passwordHash != ""
}

// Login checks the operator password and issues a token
func (s *AuthService) Login(password string) (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, ErrAuthDisabled
	}
	if !security.CheckPassword(password, s.passwordHash) {
		return "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(s.now())
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, expiresAt, nil
}

// IssueToken mints a token without a password check, for the CLI
func (s *AuthService) IssueToken() (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, ErrAuthDisabled
	}
	return s.tokens.Issue(s.now())
}

// ValidateToken checks a presented token
func (s *AuthService) ValidateToken(token string) error {
	if !s.Enabled() {
		return nil
	}
	if token == "" {
		return ErrSessionExpired
	}
	if _, err := s.tokens.Verify(token); err != nil {
		return ErrSessionExpired
	}
	return nil
}
