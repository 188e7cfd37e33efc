package main

import (
	"context"
	"net/http"
	"time"

	"github.com/payeasy/payeasy-api/internal/audit"
	"github.com/payeasy/payeasy-api/internal/errors"
	"github.com/payeasy/payeasy-api/internal/httputil"
	"github.com/payeasy/payeasy-api/internal/logging"
	"github.com/payeasy/payeasy-api/internal/metrics"
	"github.com/payeasy/payeasy-api/internal/registration"
	"github.com/payeasy/payeasy-api/internal/session"
)

// =============================================================================
// Health & Info Handlers
// =============================================================================

type pinger interface {
	Ping(ctx context.Context) error
}

func healthHandler(store pinger, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "healthy", http.StatusOK
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			logger.WithContext(r.Context()).WithError(err).Warn("store health check failed")
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		httputil.WriteJSON(w, code, map[string]interface{}{
			"status":    status,
			"service":   serviceName,
			"version":   version,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// =============================================================================
// Auth Handlers
// =============================================================================

func registerHandler(flow *registration.Flow, sessions *session.Manager, m *metrics.Metrics, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := httputil.ReadRequestBody(r)
		if err != nil {
			m.RecordRegistration(string(errors.CodeInvalidBody))
			httputil.WriteServiceError(w, nil, errors.Validation(errors.CodeInvalidBody, registration.MsgInvalidBody))
			return
		}

		res, err := flow.Register(r.Context(), registration.Request{
			Body:      body,
			ClientIP:  audit.ClientIP(r),
			UserAgent: r.UserAgent(),
			RequestID: logging.GetTraceID(r.Context()),
		})
		if err != nil {
			outcome := string(errors.CodeInternal)
			if se := errors.GetServiceError(err); se != nil {
				outcome = string(se.Code)
			}
			m.RecordRegistration(outcome)
			httputil.WriteServiceError(w, logger.WithContext(r.Context()), err)
			return
		}

		m.RecordRegistration("success")
		http.SetCookie(w, sessions.Cookie(res.Token))
		httputil.WriteCreated(w, res.User)
	}
}

func logoutHandler(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, sessions.ClearCookie())
		httputil.WriteSuccess(w, map[string]string{"status": "logged out"})
	}
}
