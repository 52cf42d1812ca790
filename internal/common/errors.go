// Package common defines the error taxonomy shared by every layer of the
// workload tracker. Callers should classify errors with errors.Is / errors.As.
package common

import (
	"errors"
	"sort"
	"strings"
)

var (
	// Boundary kinds. Every error that reaches the HTTP layer is expected to
	// wrap exactly one of these.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrConnectivity = errors.New("database unavailable")
	ErrInternal     = errors.New("internal error")

	// Token verification kinds.
	ErrTokenExpired     = &kindError{msg: "token expired", kind: ErrUnauthorized}
	ErrTokenInvalid     = &kindError{msg: "invalid token", kind: ErrUnauthorized}
	ErrTokenNotYetValid = &kindError{msg: "token not active", kind: ErrUnauthorized}
	ErrTokenRevoked     = &kindError{msg: "token revoked", kind: ErrUnauthorized}

	// ErrInvalidCredentials never says which factor was wrong.
	ErrInvalidCredentials = &kindError{msg: "invalid username or password", kind: ErrUnauthorized}
)

// kindError is a sentinel that also matches its parent kind.
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// ValidationError reports per-field problems in a request payload.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

// Add records a message for field. The first message per field wins.
func (e *ValidationError) Add(field, msg string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// OrNil returns e when at least one field failed, nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// PolicyError is a Forbidden decision with a resource specific message.
type PolicyError struct {
	Message string
}

func (e *PolicyError) Error() string { return e.Message }

func (e *PolicyError) Unwrap() error { return ErrForbidden }

// Forbidden builds a PolicyError.
func Forbidden(msg string) error {
	return &PolicyError{Message: msg}
}

// ConflictError is a Conflict with a message that is safe to show to callers.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// Conflict builds a ConflictError.
func Conflict(msg string) error {
	return &ConflictError{Message: msg}
}

// Unauthorized builds an ErrUnauthorized with a caller-facing message.
func Unauthorized(msg string) error {
	return &kindError{msg: msg, kind: ErrUnauthorized}
}

// NotFound builds an ErrNotFound with a caller-facing message.
func NotFound(msg string) error {
	return &kindError{msg: msg, kind: ErrNotFound}
}

// PublicMessage returns the message err carries for API callers, if it was
// built by one of the constructors in this package. Anything else is internal
// detail.
func PublicMessage(err error) (string, bool) {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg, true
	}
	var pe *PolicyError
	if errors.As(err, &pe) {
		return pe.Message, true
	}
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Message, true
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return "Validation Error", true
	}
	return "", false
}
