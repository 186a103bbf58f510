package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fleet-route-optimizer/internal/domain"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const resultKeyPrefix = "optimize:result:"

// RedisResultCache stores output documents as JSON strings with a TTL.
type RedisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisResultCache(client *redis.Client, ttl time.Duration) *RedisResultCache {
	return &RedisResultCache{client: client, ttl: ttl}
}

// NewRedisResultCacheFromURL parses a redis:// URL and verifies the server responds.
func NewRedisResultCacheFromURL(ctx context.Context, url string, ttl time.Duration) (*RedisResultCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis result cache: parse url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis result cache: ping: %w", err)
	}
	return NewRedisResultCache(client, ttl), nil
}

func (c *RedisResultCache) Get(ctx context.Context, key string) (*domain.OptimizationResult, bool, error) {
	raw, err := c.client.Get(ctx, resultKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis result cache: get %s: %w", key, err)
	}

	var res domain.OptimizationResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, false, fmt.Errorf("redis result cache: decode %s: %w", key, err)
	}
	return &res, true, nil
}

func (c *RedisResultCache) Put(ctx context.Context, key string, result *domain.OptimizationResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("redis result cache: encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, resultKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis result cache: set %s: %w", key, err)
	}
	return nil
}

func (c *RedisResultCache) Close() error {
	return c.client.Close()
}
