package cache

import (
	"fmt"
	"log/slog"
	"time"
)

const (
	TypeMemory = "memory"
	TypeSQLite = "sqlite"
	TypeRedis  = "redis"
)

// NewCache builds the backend named by cacheType. An empty type selects the
// in-memory cache. ttl <= 0 keeps entries until the process (or backend) drops them.
func NewCache(cacheType, connectionString string, ttl time.Duration) (cache PageCache, err error) {
	switch cacheType {
	case "", TypeMemory:
		cache = NewMemoryCache(ttl)
	case TypeSQLite:
		cache, err = NewSQLiteCache(connectionString, ttl)
	case TypeRedis:
		cache, err = NewRedisCache(connectionString, ttl)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s cache: %w", cacheType, err)
	}

	slog.Info("page cache initialized", "type", cacheType, "ttl", ttl)
	return cache, nil
}
