// Package middleware provides HTTP middleware for the PayEasy API.
package middleware

import (
	"context"
	"net/http"

	"github.com/payeasy/payeasy-api/internal/errors"
	"github.com/payeasy/payeasy-api/internal/httputil"
	"github.com/payeasy/payeasy-api/internal/logging"
	"github.com/payeasy/payeasy-api/internal/session"
)

// TokenVerifier validates session tokens.
type TokenVerifier interface {
	Verify(token string) (*session.Claims, error)
}

// AuthMiddleware resolves the session token of a request into the user id
// and wallet public key stored in the request context.
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *logging.Logger
}

// NewAuthMiddleware creates a new authentication middleware.
func NewAuthMiddleware(verifier TokenVerifier, logger *logging.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// Handler authenticates requests that carry a token. Requests without a
// valid one pass through anonymously; RequireUserID rejects them where a
// session is mandatory. A stale cookie must not block signup.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := session.TokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			m.logger.LogSecurityEvent(r.Context(), "invalid_session_token", map[string]interface{}{
				"path":   r.URL.Path,
				"method": r.Method,
				"error":  err.Error(),
			})
			next.ServeHTTP(w, r)
			return
		}

		ctx := logging.WithUserID(r.Context(), claims.UserID)
		ctx = logging.WithPublicKey(ctx, claims.PublicKey())
		m.logger.WithContext(ctx).Debug("Authentication successful")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID extracts the authenticated user id from ctx.
func GetUserID(ctx context.Context) string {
	return logging.GetUserID(ctx)
}

// RequireUserID rejects anonymous requests with 401.
func RequireUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserID(r.Context()) == "" {
			httputil.WriteServiceError(w, nil, errors.Unauthorized(""))
			return
		}
		next.ServeHTTP(w, r)
	})
}
