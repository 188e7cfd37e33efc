// Package errors defines the service error taxonomy shared by the HTTP layer
// and the domain services.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode is a stable, machine-readable error identifier.
type ErrorCode string

const (
	// Validation (400)
	CodeInvalidBody      ErrorCode = "INVALID_BODY"
	CodeMissingField     ErrorCode = "MISSING_FIELD"
	CodeInvalidPublicKey ErrorCode = "INVALID_PUBLIC_KEY"
	CodeInvalidUsername  ErrorCode = "INVALID_USERNAME"
	CodeInvalidEmail     ErrorCode = "INVALID_EMAIL"
	CodeValidation       ErrorCode = "VALIDATION_FAILED"
	CodeDuplicateRating  ErrorCode = "DUPLICATE_RATING"

	// Conflict (409)
	CodeWalletTaken   ErrorCode = "WALLET_TAKEN"
	CodeUsernameTaken ErrorCode = "USERNAME_TAKEN"
	CodeEmailTaken    ErrorCode = "EMAIL_TAKEN"

	// Auth (401/403)
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeInvalidToken ErrorCode = "INVALID_TOKEN"
	CodeForbidden    ErrorCode = "FORBIDDEN"

	CodeRateLimited ErrorCode = "RATE_LIMITED"
	CodeInternal    ErrorCode = "INTERNAL_ERROR"
)

// ServiceError carries an error code, a client-safe message and the HTTP
// status it maps to. Err holds the underlying cause and is never rendered.
type ServiceError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// WithDetails returns the error with an extra detail attached.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsConflict reports whether the error is a uniqueness conflict.
func (e *ServiceError) IsConflict() bool {
	return e.HTTPStatus == http.StatusConflict
}

func newError(code ErrorCode, status int, message string, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// Validation returns a 400 error with the given code.
func Validation(code ErrorCode, message string) *ServiceError {
	return newError(code, http.StatusBadRequest, message, nil)
}

// Conflict returns a 409 error with the given code.
func Conflict(code ErrorCode, message string) *ServiceError {
	return newError(code, http.StatusConflict, message, nil)
}

// Unauthorized returns a 401 error.
func Unauthorized(message string) *ServiceError {
	if message == "" {
		message = "Unauthorized"
	}
	return newError(CodeUnauthorized, http.StatusUnauthorized, message, nil)
}

// InvalidToken returns a 401 error for a rejected session token.
func InvalidToken(err error) *ServiceError {
	return newError(CodeInvalidToken, http.StatusUnauthorized, "Invalid session token", err)
}

// Forbidden returns a 403 error.
func Forbidden(message string) *ServiceError {
	if message == "" {
		message = "Forbidden"
	}
	return newError(CodeForbidden, http.StatusForbidden, message, nil)
}

// RateLimitExceeded returns a 429 error.
func RateLimitExceeded(limit int, window string) *ServiceError {
	return newError(CodeRateLimited, http.StatusTooManyRequests, "Too many requests", nil).
		WithDetails("limit", limit).
		WithDetails("window", window)
}

// Internal returns a 500 error wrapping err.
func Internal(message string, err error) *ServiceError {
	if message == "" {
		message = "Internal server error"
	}
	return newError(CodeInternal, http.StatusInternalServerError, message, err)
}

// GetServiceError extracts a *ServiceError from err's chain.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if stderrors.As(err, &se) {
		return se
	}
	return nil
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	se := GetServiceError(err)
	return se != nil && se.Code == code
}

// IsInternal reports whether err is, or will be rendered as, a 500.
func IsInternal(err error) bool {
	se := GetServiceError(err)
	return se == nil || se.HTTPStatus >= http.StatusInternalServerError
}
