package ports

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

// Contract for a TTL cache of encoded search results.
type ResultCache interface {
	// Return ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Remove every key starting with prefix and report how many were removed.
	InvalidatePrefix(ctx context.Context, prefix string) (int, error)
}

// Serialises result lists for the cache.
type PayloadCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}
