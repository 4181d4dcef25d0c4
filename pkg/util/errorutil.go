package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by the portal and the gateway.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeConflict         = "CONFLICT"
	CodeInternal         = "INTERNAL_ERROR"
	CodeRateLimited      = "RATE_LIMITED"

	CodeInvalidResponse  = "INVALID_RESPONSE"
	CodeRequestRejected  = "REQUEST_REJECTED"
	CodeRoleMismatch     = "ROLE_MISMATCH"
	CodeNotAuthenticated = "NOT_AUTHENTICATED"
)

// Messages surfaced verbatim to forms.
const (
	MsgInvalidResponse  = "Invalid response from server"
	MsgRoleMismatch     = "Account type does not match selected role"
	MsgNotAuthenticated = "Not authenticated"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

// NewFieldErrors reports per-field problems as a validation failure.
func NewFieldErrors(problems map[string]string) error {
	details := make(map[string]any, len(problems))
	for field, problem := range problems {
		details[field] = problem
	}
	return NewValidationError("Invalid request body", details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewRateLimited() error {
	return NewDomainError(CodeRateLimited, "too many requests", http.StatusTooManyRequests, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewInvalidResponse reports a transport failure or an unparseable body.
func NewInvalidResponse(err error) error {
	return &DomainError{
		Code:       CodeInvalidResponse,
		Message:    MsgInvalidResponse,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewRequestRejected carries the remote API's message for a non-2xx reply.
// status is the upstream status and is reused for the portal response.
func NewRequestRejected(message string, status int) error {
	if status < 400 || status > 599 {
		status = http.StatusBadGateway
	}
	return NewDomainError(CodeRequestRejected, message, status, nil)
}

func NewRoleMismatch() error {
	return NewDomainError(CodeRoleMismatch, MsgRoleMismatch, http.StatusForbidden, nil)
}

func NewNotAuthenticated() error {
	return NewDomainError(CodeNotAuthenticated, MsgNotAuthenticated, http.StatusUnauthorized, nil)
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// HasCode reports whether err carries a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}

// Message returns the human readable message for err, suitable for inline
// display next to a form.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}
