// README: Finalized-trip cache backed by Redis.
package trip

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const tripKeyPrefix = "trip:session:%s"

type RedisCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisCache(redis *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{redis: redis, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, sessionID string) (*Trip, bool, error) {
	val, err := c.redis.Get(ctx, tripKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var t Trip
	if err := json.Unmarshal(val, &t); err != nil {
		return nil, false, err
	}
	return &t, true, nil
}

// Set stores the trip only if no entry exists yet; a finalized summary is
// immutable so the first write is as good as any later one.
func (c *RedisCache) Set(ctx context.Context, t *Trip) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return c.redis.SetNX(ctx, tripKey(t.SessionID), payload, c.ttl).Err()
}

func tripKey(sessionID string) string {
	return fmt.Sprintf(tripKeyPrefix, sessionID)
}
