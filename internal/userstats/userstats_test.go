package userstats

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payeasy/payeasy-api/internal/cache"
	"github.com/payeasy/payeasy-api/internal/database"
	apperrors "github.com/payeasy/payeasy-api/internal/errors"
)

type lookupCounter struct {
	hits, misses int
}

func (c *lookupCounter) RecordCacheLookup(_ string, hit bool) {
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

func TestGetCachesWithinTTL(t *testing.T) {
	repo := database.NewMockRepository()
	repo.SetUserStats("u1", database.UserStats{ListingsCount: 2, UnreadMessagesCount: 5})
	obs := &lookupCounter{}
	svc := NewService(repo, cache.NewMemory[database.UserStats](time.Minute), obs)

	first, err := svc.Get(context.Background(), "u1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, first.ListingsCount)

	repo.SetUserStats("u1", database.UserStats{ListingsCount: 9})
	second, err := svc.Get(context.Background(), "u1", "u1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.Calls("GetUserStats"))
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)
}

func TestInvalidateForcesRecompute(t *testing.T) {
	repo := database.NewMockRepository()
	repo.SetUserStats("u1", database.UserStats{ListingsCount: 1})
	svc := NewService(repo, cache.NewMemory[database.UserStats](time.Minute), nil)

	_, err := svc.Get(context.Background(), "u1", "u1")
	require.NoError(t, err)
	repo.SetUserStats("u1", database.UserStats{ListingsCount: 3})
	require.NoError(t, svc.Invalidate(context.Background(), "u1"))

	stats, err := svc.Get(context.Background(), "u1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.ListingsCount)
}

func TestUnknownUserGetsZeros(t *testing.T) {
	svc := NewService(database.NewMockRepository(), cache.NewMemory[database.UserStats](time.Minute), nil)
	stats, err := svc.Get(context.Background(), "new", "new")
	require.NoError(t, err)
	assert.Equal(t, database.UserStats{}, stats)
}

func TestGetAccessControl(t *testing.T) {
	repo := database.NewMockRepository()
	svc := NewService(repo, cache.NewMemory[database.UserStats](time.Minute), nil)

	_, err := svc.Get(context.Background(), "", "u1")
	se := apperrors.GetServiceError(err)
	require.NotNil(t, se)
	assert.Equal(t, http.StatusUnauthorized, se.HTTPStatus)
	assert.Equal(t, "Unauthorized", se.Message)

	_, err = svc.Get(context.Background(), "u2", "u1")
	se = apperrors.GetServiceError(err)
	require.NotNil(t, se)
	assert.Equal(t, http.StatusForbidden, se.HTTPStatus)
	assert.Equal(t, apperrors.CodeForbidden, se.Code)

	assert.Zero(t, repo.Calls("GetUserStats"))
}

func TestStoreFailureIsInternalAndNotCached(t *testing.T) {
	repo := database.NewMockRepository()
	repo.FailOn("GetUserStats", errors.New("rpc failed"))
	svc := NewService(repo, cache.NewMemory[database.UserStats](time.Minute), nil)

	_, err := svc.Get(context.Background(), "u1", "u1")
	assert.True(t, apperrors.IsInternal(err))

	repo.FailOn("GetUserStats", nil)
	_, err = svc.Get(context.Background(), "u1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.Calls("GetUserStats"))
}

func TestGetServesStatsWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	logger, _ := test.NewNullLogger()

	repo := database.NewMockRepository()
	repo.SetUserStats("u1", database.UserStats{ListingsCount: 4})
	svc := NewService(repo, cache.NewRedis[database.UserStats](client, "payeasy:user_stats:", time.Minute, logger), nil)

	stats, err := svc.Get(context.Background(), "u1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.ListingsCount)
	assert.Equal(t, 1, repo.Calls("GetUserStats"))
}
