package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diagnosis/lifesave-bloodbank/internal/domain"
	"github.com/diagnosis/lifesave-bloodbank/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Details string            `json:"details,omitempty"`
}

// Common error codes
const (
	CodeInvalidInput   = "INVALID_INPUT"
	CodeUploadRejected = "UPLOAD_REJECTED"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeExpiredToken   = "EXPIRED_TOKEN"
	CodeInvalidToken   = "INVALID_TOKEN"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodeInvalidState   = "INVALID_STATE"
	CodeRateLimit      = "RATE_LIMIT_EXCEEDED"
	CodeInternalError  = "INTERNAL_ERROR"
)

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	write(w, statusCode, ErrorResponse{Message: message, Code: code})
}

func write(w http.ResponseWriter, statusCode int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode error response", "error", err)
	}
}

// Error maps err onto a status code and JSON body. Internal details are
// included only when dev is true.
func Error(w http.ResponseWriter, r *http.Request, err error, dev bool) {
	status, body := Classify(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		if dev {
			body.Details = err.Error()
		}
	}
	write(w, status, body)
}

// Classify returns the status and body for err without writing anything.
func Classify(err error) (int, ErrorResponse) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ErrorResponse{Message: ve.Message, Code: CodeInvalidInput, Errors: ve.Fields}
	}
	var ue *domain.UploadError
	if errors.As(err, &ue) {
		return http.StatusBadRequest, ErrorResponse{
			Message: ue.Reason,
			Code:    CodeUploadRejected,
			Errors:  map[string]string{ue.Field: ue.Reason},
		}
	}

	type mapping struct {
		target  error
		status  int
		code    string
		message string
	}
	table := []mapping{
		{domain.ErrInvalidCredentials, http.StatusBadRequest, CodeInvalidInput, "Invalid credentials"},
		{domain.ErrConflict, http.StatusBadRequest, CodeConflict, "Already exists"},
		{domain.ErrNotRejected, http.StatusBadRequest, CodeInvalidState, "Can only delete rejected donors"},
		{domain.ErrInvalidExportType, http.StatusBadRequest, CodeInvalidInput, "Invalid export type"},
		{domain.ErrTokenExpired, http.StatusUnauthorized, CodeExpiredToken, "Token expired"},
		{domain.ErrTokenInvalid, http.StatusUnauthorized, CodeInvalidToken, "Token is not valid"},
		{domain.ErrUnauthenticated, http.StatusUnauthorized, CodeUnauthorized, "Token is not valid"},
		{domain.ErrForbidden, http.StatusForbidden, CodeForbidden, "Access denied"},
		{domain.ErrNotFound, http.StatusNotFound, CodeNotFound, "Not found"},
		{domain.ErrNotPending, http.StatusConflict, CodeInvalidState, "Donor has already been reviewed"},
	}
	for _, m := range table {
		if errors.Is(err, m.target) {
			msg := m.message
			if pm, ok := domain.PublicMessage(err); ok && pm != "" {
				msg = pm
			}
			return m.status, ErrorResponse{Message: msg, Code: m.code}
		}
	}

	return http.StatusInternalServerError, ErrorResponse{Message: "Server error", Code: CodeInternalError}
}

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}
