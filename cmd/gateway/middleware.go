package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/payeasy/payeasy-api/internal/listings"
	"github.com/payeasy/payeasy-api/internal/logging"
	"github.com/payeasy/payeasy-api/internal/metrics"
	"github.com/payeasy/payeasy-api/internal/middleware"
	"github.com/payeasy/payeasy-api/internal/ratings"
	"github.com/payeasy/payeasy-api/internal/registration"
	"github.com/payeasy/payeasy-api/internal/session"
	"github.com/payeasy/payeasy-api/internal/userstats"
)

// gateway bundles what the router needs.
type gateway struct {
	logger         *logging.Logger
	metrics        *metrics.Metrics
	sessions       *session.Manager
	store          pinger
	registration   *registration.Flow
	ratings        *ratings.Service
	stats          *userstats.Service
	listings       *listings.Service
	limiter        *middleware.RateLimiter
	allowedOrigins []string
}

// =============================================================================
// Router
// =============================================================================

// newRouter wires routes and the middleware chain. Order, outermost first:
// CORS, tracing, metrics, session auth, rate limiting.
func newRouter(g *gateway) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.NewTracingMiddleware(g.logger).Handler)
	r.Use(middleware.MetricsMiddleware(serviceName, g.metrics))
	r.Use(middleware.NewAuthMiddleware(g.sessions, g.logger).Handler)
	if g.limiter != nil {
		r.Use(g.limiter.Handler)
	}

	r.HandleFunc("/health", healthHandler(g.store, g.logger)).Methods(http.MethodGet)
	r.Handle("/metrics", g.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", registerHandler(g.registration, g.sessions, g.metrics, g.logger)).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", logoutHandler(g.sessions)).Methods(http.MethodPost)
	api.Handle("/ratings", middleware.RequireUserID(submitRatingHandler(g.ratings, g.metrics, g.logger))).Methods(http.MethodPost)
	api.HandleFunc("/ratings", listRatingsHandler(g.ratings, g.logger)).Methods(http.MethodGet)
	api.Handle("/users/{id}/stats", middleware.RequireUserID(userStatsHandler(g.stats, g.logger))).Methods(http.MethodGet)
	api.HandleFunc("/listings/search", searchListingsHandler(g.listings, g.logger)).Methods(http.MethodGet)

	return middleware.NewCORS(g.allowedOrigins)(r)
}
