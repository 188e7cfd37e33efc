package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORS returns a CORS handler wrapper for the given origins. Credentials
// are allowed so the session cookie reaches the API from the web client.
func NewCORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Trace-ID"},
		ExposedHeaders:   []string{"X-Trace-ID"},
		AllowCredentials: true,
		MaxAge:           3600,
	})
	return c.Handler
}
