// README: Per-user session list cache backed by Redis.
package gps

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionsKeyPrefix = "gps:user:%d:sessions"
	recentKeyPrefix   = "gps:user:%d:recent"
)

type RedisSessionCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisSessionCache(redis *redis.Client, ttl time.Duration) *RedisSessionCache {
	return &RedisSessionCache{redis: redis, ttl: ttl}
}

// Sessions reports the cached list and whether the key was present.
func (c *RedisSessionCache) Sessions(ctx context.Context, userID int64) ([]string, bool, error) {
	val, err := c.redis.Get(ctx, sessionsKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var ids []string
	if err := json.Unmarshal(val, &ids); err != nil {
		return nil, false, err
	}
	return ids, true, nil
}

func (c *RedisSessionCache) SetSessions(ctx context.Context, userID int64, ids []string) error {
	payload, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, sessionsKey(userID), payload, c.ttl).Err()
}

// Remember adds sessions that just received samples to the user's recent
// set. The set outlives the list entry so a list cached from a lagging query
// is always corrected on read.
func (c *RedisSessionCache) Remember(ctx context.Context, userID int64, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	key := recentKey(userID)
	pipe := c.redis.TxPipeline()
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, c.recentTTL())
	_, err := pipe.Exec(ctx)
	return err
}

func (c *RedisSessionCache) Recent(ctx context.Context, userID int64) ([]string, error) {
	return c.redis.SMembers(ctx, recentKey(userID)).Result()
}

func (c *RedisSessionCache) recentTTL() time.Duration {
	if ttl := 2 * c.ttl; ttl > time.Minute {
		return ttl
	}
	return time.Minute
}

func sessionsKey(userID int64) string {
	return fmt.Sprintf(sessionsKeyPrefix, userID)
}

func recentKey(userID int64) string {
	return fmt.Sprintf(recentKeyPrefix, userID)
}
