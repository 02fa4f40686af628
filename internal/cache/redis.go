package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache is the durable tier backed by a shared Redis client.
type redisCache struct {
	rdb *redis.Client
}

// NewRedisCache wraps an already-connected Redis client.
func NewRedisCache(rdb *redis.Client) Cache {
	return &redisCache{rdb: rdb}
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	return val, err
}

func (c *redisCache) Set(ctx context.Context, key, value string) error {
	return c.rdb.Set(ctx, key, value, 0).Err()
}

func (c *redisCache) Push(ctx context.Context, key, value string, maxLen int64) error {
	if err := c.rdb.LPush(ctx, key, value).Err(); err != nil {
		return err
	}
	if maxLen > 0 {
		return c.rdb.LTrim(ctx, key, 0, maxLen-1).Err()
	}
	return nil
}

func (c *redisCache) List(ctx context.Context, key string) ([]string, error) {
	return c.rdb.LRange(ctx, key, 0, -1).Result()
}

func (c *redisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.rdb.Expire(ctx, key, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}
