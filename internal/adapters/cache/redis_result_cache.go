package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
	"trip-search-service/internal/platform/obs"
	"trip-search-service/internal/ports"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 256

// Redis-backed implementation of the ResultCache port.
type RedisResultCache struct {
	Client *redis.Client
}

func NewRedisResultCache(client *redis.Client) *RedisResultCache {
	return &RedisResultCache{Client: client}
}

// Connect parses a redis:// URL and verifies the connection.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("connect redis: parse url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: ping: %w", err)
	}
	return client, nil
}

func (c *RedisResultCache) Get(ctx context.Context, key string) (_ []byte, err error) {
	defer obs.Time(ctx, "result.cache.Get")(&err)

	if c.Client == nil {
		return nil, errors.New("redis result cache: client is nil")
	}
	b, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis result cache: get %q: %w", key, err)
	}
	return b, nil
}

func (c *RedisResultCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.Client == nil {
		return errors.New("redis result cache: client is nil")
	}
	if err := c.Client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis result cache: set %q: %w", key, err)
	}
	return nil
}

// InvalidatePrefix walks the keyspace with SCAN so large caches never block the server.
func (c *RedisResultCache) InvalidatePrefix(ctx context.Context, prefix string) (int, error) {
	if c.Client == nil {
		return 0, errors.New("redis result cache: client is nil")
	}

	removed := 0
	var cursor uint64
	for {
		keys, next, err := c.Client.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("redis result cache: scan %q: %w", prefix, err)
		}
		if len(keys) > 0 {
			n, err := c.Client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("redis result cache: delete: %w", err)
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}
