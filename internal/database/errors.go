package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrDatabaseError = errors.New("database error")
)

// CodeUniqueViolation is the SQLSTATE of a unique-constraint violation.
const CodeUniqueViolation = "23505"

// APIError is an error reported by the store, either as a PostgREST error
// body or translated from a PostgreSQL driver error.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	Hint       string `json:"hint,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	// Constraint is the violated constraint when the driver reports it.
	Constraint string `json:"constraint,omitempty"`
}

func (e *APIError) Error() string {
	var b strings.Builder
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, "store error %d", e.StatusCode)
	} else {
		b.WriteString("store error")
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Details != "" {
		b.WriteString(": ")
		b.WriteString(e.Details)
	}
	return b.String()
}

// parseAPIError decodes a PostgREST error body. Bodies that are not JSON are
// kept verbatim in Message.
func parseAPIError(body []byte, statusCode int) *APIError {
	if !gjson.ValidBytes(body) {
		return &APIError{Code: "unknown", Message: strings.TrimSpace(string(body)), StatusCode: statusCode}
	}

	res := gjson.ParseBytes(body)
	msg := res.Get("message").String()
	if msg == "" {
		msg = res.Get("error").String()
	}
	if msg == "" {
		msg = res.Get("error_description").String()
	}

	return &APIError{
		Code:       res.Get("code").String(),
		Message:    msg,
		Details:    res.Get("details").String(),
		Hint:       res.Get("hint").String(),
		StatusCode: statusCode,
	}
}

// AsAPIError extracts an *APIError from err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
func IsUniqueViolation(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Code == CodeUniqueViolation
}

// ViolatedColumn returns the first of columns named by the violated
// constraint, or "" when err is not a unique violation or names none of
// them. Only the constraint name is inspected: Details echoes the
// offending value, which is user input and may itself contain a column
// name.
func ViolatedColumn(err error, columns ...string) string {
	if !IsUniqueViolation(err) {
		return ""
	}
	apiErr, _ := AsAPIError(err)
	constraint := apiErr.Constraint
	if constraint == "" {
		constraint = constraintFromMessage(apiErr.Message)
	}
	for _, col := range columns {
		if strings.Contains(constraint, col) {
			return col
		}
	}
	return ""
}

// constraintFromMessage extracts the quoted constraint name from
// `duplicate key value violates unique constraint "users_email_key"`.
// Messages without a quoted name are returned unchanged.
func constraintFromMessage(msg string) string {
	start := strings.IndexByte(msg, '"')
	if start < 0 {
		return msg
	}
	end := strings.IndexByte(msg[start+1:], '"')
	if end < 0 {
		return msg
	}
	return msg[start+1 : start+1+end]
}
