package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Redis is a cache shared between gateway instances. Values are stored as
// JSON under prefix+key with the configured TTL.
//
// Redis is best effort: when it cannot be read or written the value is
// computed and returned anyway, and the failure is only logged.
type Redis[V any] struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger logrus.FieldLogger
}

var _ Cache[int] = (*Redis[int])(nil)

// NewRedis creates a Redis-backed cache. A nil logger uses the logrus
// standard logger.
func NewRedis[V any](client redis.UniversalClient, prefix string, ttl time.Duration, logger logrus.FieldLogger) *Redis[V] {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Redis[V]{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (c *Redis[V]) GetOrCompute(ctx context.Context, key string, compute ComputeFunc[V]) (V, error) {
	var value V
	log := c.logger.WithField("cache_key", c.prefix+key)

	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	switch {
	case err == nil:
		jsonErr := json.Unmarshal(data, &value)
		if jsonErr == nil {
			return value, nil
		}
		log.WithError(jsonErr).Warn("discarding undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		log.WithError(err).Warn("redis get failed; computing without cache")
	}

	value, err = compute(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		log.WithError(err).Warn("cache value not encodable; not stored")
		return value, nil
	}
	if err := c.client.Set(ctx, c.prefix+key, encoded, c.ttl).Err(); err != nil {
		log.WithError(err).Warn("redis set failed")
	}
	return value, nil
}

func (c *Redis[V]) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
