package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"speechcheck/internal/speech"
	"speechcheck/internal/validation"
)

// Kind classifies a failure surfaced to callers
type Kind string

const (
	KindNotFound        Kind = "NotFound"
	KindValidation      Kind = "Validation"
	KindExternalService Kind = "ExternalService"
	KindPersistence     Kind = "Persistence"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrExternalService = errors.New("external service error")
	ErrPersistence     = errors.New("persistence error")
)

// Error is a structured failure. Message is shown to the operator as is.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Details json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindNotFound:
		return target == ErrNotFound
	case KindValidation:
		return target == ErrValidation
	case KindExternalService:
		return target == ErrExternalService
	case KindPersistence:
		return target == ErrPersistence
	}
	return false
}

// KindOf returns the kind of err, or "" when it is not a service error
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return ""
}

func notFoundError(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func validationError(err error) *Error {
	e := &Error{Kind: KindValidation, Message: err.Error(), Err: err}
	var ve validation.ValidationError
	if errors.As(err, &ve) {
		e.Field = ve.Field
	}
	return e
}

func invalidField(field, message string) *Error {
	return validationError(validation.ValidationError{Field: field, Message: message})
}

func externalServiceError(err error) *Error {
	e := &Error{Kind: KindExternalService, Message: err.Error(), Err: err}
	var apiErr *speech.APIError
	if errors.As(err, &apiErr) {
		e.Message = "Google API Error: " + apiErr.Message
		if apiErr.Message == "" {
			e.Message = apiErr.Error()
		}
		e.Details = apiErr.Details
	}
	return e
}

func persistenceError(err error) *Error {
	return &Error{Kind: KindPersistence, Message: err.Error(), Err: err}
}
