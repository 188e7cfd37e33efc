package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/payeasy/payeasy-api/internal/cache"
	"github.com/payeasy/payeasy-api/internal/config"
	"github.com/payeasy/payeasy-api/internal/database"
	"github.com/payeasy/payeasy-api/internal/database/postgres"
	"github.com/payeasy/payeasy-api/internal/logging"
	"github.com/payeasy/payeasy-api/internal/metrics"
	"github.com/payeasy/payeasy-api/internal/userstats"
)

// openStore returns the configured repository and a function releasing it.
func openStore(cfg *config.Config) (database.RepositoryInterface, func() error, error) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		store, err := postgres.Open(cfg.Store.DatabaseURL, cfg.Store.MaxOpenConns)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		client, err := database.NewClient(database.Config{
			URL:        cfg.Store.SupabaseURL,
			ServiceKey: cfg.Store.SupabaseServiceKey,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("supabase client: %w", err)
		}
		return database.NewRepository(client), func() error { return nil }, nil
	}
}

// openStatsCache returns the configured user stats cache. An unreachable
// Redis is only logged: the cache falls back to computing every lookup.
func openStatsCache(ctx context.Context, cfg *config.Config, logger *logging.Logger) (cache.Cache[database.UserStats], func() error) {
	if cfg.Cache.Backend != config.CacheRedis {
		return cache.NewMemory[database.UserStats](cfg.Cache.StatsTTL), func() error { return nil }
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr, DB: cfg.Cache.RedisDB})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).WithField("addr", cfg.Cache.RedisAddr).Warn("redis unreachable; user stats will not be cached until it recovers")
	}
	entry := logger.WithField("cache", userstats.CacheName)
	return cache.NewRedis[database.UserStats](client, "payeasy:user_stats:", cfg.Cache.StatsTTL, entry), client.Close
}

// instrumentedStore records the duration of every store call.
type instrumentedStore struct {
	next    database.RepositoryInterface
	metrics *metrics.Metrics
}

var _ database.RepositoryInterface = (*instrumentedStore)(nil)

func instrument(next database.RepositoryInterface, m *metrics.Metrics) *instrumentedStore {
	return &instrumentedStore{next: next, metrics: m}
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	s.metrics.RecordStoreOperation(op, time.Since(start), err == nil)
}

func (s *instrumentedStore) Ping(ctx context.Context) (err error) {
	defer func(start time.Time) { s.observe("Ping", start, err) }(time.Now())
	return s.next.Ping(ctx)
}

func (s *instrumentedStore) UserExistsByPublicKey(ctx context.Context, publicKey string) (ok bool, err error) {
	defer func(start time.Time) { s.observe("UserExistsByPublicKey", start, err) }(time.Now())
	return s.next.UserExistsByPublicKey(ctx, publicKey)
}

func (s *instrumentedStore) UserExistsByUsername(ctx context.Context, username string) (ok bool, err error) {
	defer func(start time.Time) { s.observe("UserExistsByUsername", start, err) }(time.Now())
	return s.next.UserExistsByUsername(ctx, username)
}

func (s *instrumentedStore) UserExistsByEmail(ctx context.Context, email string) (ok bool, err error) {
	defer func(start time.Time) { s.observe("UserExistsByEmail", start, err) }(time.Now())
	return s.next.UserExistsByEmail(ctx, email)
}

func (s *instrumentedStore) CreateUser(ctx context.Context, user *database.User) (err error) {
	defer func(start time.Time) { s.observe("CreateUser", start, err) }(time.Now())
	return s.next.CreateUser(ctx, user)
}

func (s *instrumentedStore) RatingExistsForInteraction(ctx context.Context, raterID, interactionID string) (ok bool, err error) {
	defer func(start time.Time) { s.observe("RatingExistsForInteraction", start, err) }(time.Now())
	return s.next.RatingExistsForInteraction(ctx, raterID, interactionID)
}

func (s *instrumentedStore) PaymentRecordExists(ctx context.Context, id string) (ok bool, err error) {
	defer func(start time.Time) { s.observe("PaymentRecordExists", start, err) }(time.Now())
	return s.next.PaymentRecordExists(ctx, id)
}

func (s *instrumentedStore) RentAgreementExists(ctx context.Context, id string) (ok bool, err error) {
	defer func(start time.Time) { s.observe("RentAgreementExists", start, err) }(time.Now())
	return s.next.RentAgreementExists(ctx, id)
}

func (s *instrumentedStore) CreateRating(ctx context.Context, rating *database.Rating) (err error) {
	defer func(start time.Time) { s.observe("CreateRating", start, err) }(time.Now())
	return s.next.CreateRating(ctx, rating)
}

func (s *instrumentedStore) ListRatings(ctx context.Context, filter database.RatingFilter) (out []database.Rating, err error) {
	defer func(start time.Time) { s.observe("ListRatings", start, err) }(time.Now())
	return s.next.ListRatings(ctx, filter)
}

func (s *instrumentedStore) GetUserStats(ctx context.Context, userID string) (out *database.UserStats, err error) {
	defer func(start time.Time) { s.observe("GetUserStats", start, err) }(time.Now())
	return s.next.GetUserStats(ctx, userID)
}

func (s *instrumentedStore) SearchListings(ctx context.Context, filter database.ListingFilter) (out []database.Listing, total int, err error) {
	defer func(start time.Time) { s.observe("SearchListings", start, err) }(time.Now())
	return s.next.SearchListings(ctx, filter)
}

func (s *instrumentedStore) CreateAuthEvent(ctx context.Context, event *database.AuthEvent) (err error) {
	defer func(start time.Time) { s.observe("CreateAuthEvent", start, err) }(time.Now())
	return s.next.CreateAuthEvent(ctx, event)
}
