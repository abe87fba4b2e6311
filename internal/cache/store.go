package cache

import (
	"context"
	"strings"
	"time"
)

// Store is the shared cache interface backing rate limiting and short-lived
// lookups. Implementations exist for the primary database and for Redis.
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

func normalizeKey(key string) string {
	return strings.TrimSpace(key)
}
