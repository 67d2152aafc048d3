package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"speechcheck/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Limits on user-supplied values
const (
	MaxUsernameLength = 100
	MaxContentLength  = 1000
	MaxAge            = 150
	MaxResultLimit    = 10000
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateUsername checks a test subject's display name
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ValidationError{Field: "username", Message: "username is required"}
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return ValidationError{Field: "username", Message: fmt.Sprintf("username must be at most %d characters", MaxUsernameLength)}
	}
	return nil
}

// ValidateAge checks that an age is plausible
func ValidateAge(age int) error {
	if age <= 0 || age > MaxAge {
		return ValidationError{Field: "age", Message: fmt.Sprintf("age must be between 1 and %d", MaxAge)}
	}
	return nil
}

// ValidateGender checks that gender is male, female or other
func ValidateGender(gender string) error {
	if !models.ValidGender(gender) {
		return ValidationError{Field: "gender", Message: "gender must be one of male, female, other"}
	}
	return nil
}

// ValidateContent checks the text of a target item
func ValidateContent(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ValidationError{Field: "content", Message: "content is required"}
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return ValidationError{Field: "content", Message: fmt.Sprintf("content must be at most %d characters", MaxContentLength)}
	}
	return nil
}

// ValidateItemType checks that a target item type is sentence or word
func ValidateItemType(itemType string) error {
	if !models.ValidItemType(itemType) {
		return ValidationError{Field: "type", Message: "type must be sentence or word"}
	}
	return nil
}

// ValidateSetNumber checks a target item set number
func ValidateSetNumber(set int) error {
	if set < 1 {
		return ValidationError{Field: "set_number", Message: "set_number must be at least 1"}
	}
	return nil
}

// ValidateConfidence checks that a confidence score lies in [0, 1]
func ValidateConfidence(field string, c float64) error {
	if math.IsNaN(c) || c < 0 || c > 1 {
		return ValidationError{Field: field, Message: "confidence must be between 0 and 1"}
	}
	return nil
}

// ValidateLimit checks a listing row limit
func ValidateLimit(limit int) error {
	if limit < 1 || limit > MaxResultLimit {
		return ValidationError{Field: "limit", Message: fmt.Sprintf("limit must be between 1 and %d", MaxResultLimit)}
	}
	return nil
}
