package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	apperrors "github.com/payeasy/payeasy-api/internal/errors"
)

// APIResponse is the standard response envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// WriteJSON writes data as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 success envelope.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

// WriteCreated writes a 201 success envelope.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, APIResponse{Success: true, Data: data})
}

// WriteError writes an error envelope.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, APIResponse{Error: message})
}

// WriteServiceError maps err onto an error envelope. Internal errors are
// logged through entry and reported with their generic message only.
func WriteServiceError(w http.ResponseWriter, entry *logrus.Entry, err error) {
	svcErr := apperrors.GetServiceError(err)
	if svcErr == nil {
		svcErr = apperrors.Internal("Internal server error", err)
	}
	if svcErr.HTTPStatus >= http.StatusInternalServerError && entry != nil {
		entry.WithError(err).WithField("code", svcErr.Code).Error(svcErr.Message)
	}
	WriteJSON(w, svcErr.HTTPStatus, APIResponse{Error: svcErr.Message, Code: string(svcErr.Code)})
}
