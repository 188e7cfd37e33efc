// Command gateway serves the PayEasy HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/payeasy/payeasy-api/internal/audit"
	"github.com/payeasy/payeasy-api/internal/config"
	"github.com/payeasy/payeasy-api/internal/listings"
	"github.com/payeasy/payeasy-api/internal/logging"
	"github.com/payeasy/payeasy-api/internal/metrics"
	"github.com/payeasy/payeasy-api/internal/middleware"
	"github.com/payeasy/payeasy-api/internal/ratings"
	"github.com/payeasy/payeasy-api/internal/registration"
	"github.com/payeasy/payeasy-api/internal/session"
	"github.com/payeasy/payeasy-api/internal/userstats"
)

const serviceName = "payeasy-api"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// limiterIdle is how long an unused per-client limiter is kept.
const limiterIdle = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load configuration")
	}
	logger := logging.New(serviceName, cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("gateway stopped")
	}
}

func run(cfg *config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	repo, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	store := instrument(repo, m)

	statsCache, closeCache := openStatsCache(ctx, cfg, logger)
	defer closeCache()

	sessions, err := session.NewManager(session.Options{
		Secret: cfg.Session.Secret,
		Issuer: cfg.Session.Issuer,
		TTL:    cfg.Session.TTL,
		Secure: cfg.IsProduction(),
	})
	if err != nil {
		return err
	}

	recorder := audit.NewRecorder(audit.NewLogSink(logger), audit.NewStoreSink(store))

	limiter := middleware.NewRateLimiter(float64(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst, limiterIdle, logger)
	if err := limiter.TrustProxies(cfg.TrustedProxies()); err != nil {
		return err
	}
	stopCleanup, err := limiter.StartCleanup(cfg.RateLimit.CleanupSchedule)
	if err != nil {
		return err
	}
	defer stopCleanup()

	handler := newRouter(&gateway{
		logger:         logger,
		metrics:        m,
		sessions:       sessions,
		store:          store,
		registration:   registration.NewFlow(store, sessions, recorder, logger),
		ratings:        ratings.NewService(store),
		stats:          userstats.NewService(store, statsCache, m),
		listings:       listings.NewService(store),
		limiter:        limiter,
		allowedOrigins: cfg.Origins(),
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":    cfg.HTTP.Addr,
			"env":     cfg.Env,
			"store":   cfg.Store.Backend,
			"cache":   cfg.Cache.Backend,
			"version": version,
		}).Info("gateway listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
