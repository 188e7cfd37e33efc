// Package userstats serves per-user dashboard counters through a TTL cache.
package userstats

import (
	"context"
	"fmt"

	"github.com/payeasy/payeasy-api/internal/cache"
	"github.com/payeasy/payeasy-api/internal/database"
	apperrors "github.com/payeasy/payeasy-api/internal/errors"
)

// CacheName labels this cache in metrics.
const CacheName = "user_stats"

// Observer receives cache hit and miss notifications.
type Observer interface {
	RecordCacheLookup(cache string, hit bool)
}

// Service returns cached UserStats.
type Service struct {
	store    database.StatsRepository
	cache    cache.Cache[database.UserStats]
	observer Observer
}

// NewService creates a Service. observer may be nil.
func NewService(store database.StatsRepository, c cache.Cache[database.UserStats], observer Observer) *Service {
	return &Service{store: store, cache: c, observer: observer}
}

// Get returns the stats of userID on behalf of requesterID. Only the user
// may read their own stats.
func (s *Service) Get(ctx context.Context, requesterID, userID string) (database.UserStats, error) {
	if requesterID == "" {
		return database.UserStats{}, apperrors.Unauthorized("")
	}
	if requesterID != userID {
		return database.UserStats{}, apperrors.Forbidden("")
	}

	computed := false
	stats, err := s.cache.GetOrCompute(ctx, userID, func(ctx context.Context) (database.UserStats, error) {
		computed = true
		st, err := s.store.GetUserStats(ctx, userID)
		if err != nil {
			return database.UserStats{}, err
		}
		if st == nil {
			return database.UserStats{}, nil
		}
		return *st, nil
	})
	if s.observer != nil {
		s.observer.RecordCacheLookup(CacheName, !computed)
	}
	if err != nil {
		return database.UserStats{}, apperrors.Internal("", fmt.Errorf("user stats %s: %w", userID, err))
	}
	return stats, nil
}

// Invalidate drops the cached stats of userID.
func (s *Service) Invalidate(ctx context.Context, userID string) error {
	return s.cache.Invalidate(ctx, userID)
}
