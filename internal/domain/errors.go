package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("access denied")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrNotPending         = errors.New("donor is not pending review")
	ErrNotRejected        = errors.New("Can only delete rejected donors")
	ErrInvalidExportType  = errors.New("Invalid export type")

	// Token failures still match ErrUnauthenticated.
	ErrTokenExpired = fmt.Errorf("token expired: %w", ErrUnauthenticated)
	ErrTokenInvalid = fmt.Errorf("token invalid: %w", ErrUnauthenticated)
)

// ValidationError reports malformed or missing input. Fields is keyed by the
// request field name.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// Add records a field failure. The first failure becomes the headline
// message unless one was already set.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
	if e.Message == "" {
		e.Message = message
	}
}

// OrNil returns nil when no field failed, so callers can `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if e == nil || (len(e.Fields) == 0 && e.Message == "") {
		return nil
	}
	return e
}

// UploadError reports an attachment that broke a type or size rule.
type UploadError struct {
	Field  string
	Reason string
}

func (e *UploadError) Error() string {
	return e.Reason
}

// publicError pairs a sentinel with the message shown to clients.
type publicError struct {
	kind error
	msg  string
}

func (e *publicError) Error() string { return e.msg }
func (e *publicError) Unwrap() error { return e.kind }

// WithMessage attaches a client-facing message to one of the sentinel errors
// above while keeping errors.Is working against the sentinel.
func WithMessage(kind error, msg string) error {
	return &publicError{kind: kind, msg: msg}
}

// PublicMessage extracts the client-facing message carried by err, if any.
func PublicMessage(err error) (string, bool) {
	var pe *publicError
	if errors.As(err, &pe) {
		return pe.msg, true
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message, true
	}
	var ue *UploadError
	if errors.As(err, &ue) {
		return ue.Reason, true
	}
	return "", false
}
