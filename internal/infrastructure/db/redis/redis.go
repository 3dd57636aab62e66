package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDialTimeout = 5 * time.Second

// Config describes the Redis deployment backing the permission cache.
type Config struct {
	Addr string
	DB   int
	// TTL is how long a user's permission set is served from Redis.
	TTL         time.Duration
	DialTimeout time.Duration
}

// Open dials Redis, verifies it with a ping and returns a PermissionCache
// that owns the client. Close releases it.
func Open(ctx context.Context, cfg Config) (*PermissionCache, error) {
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		DB:          cfg.DB,
		DialTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewPermissionCache(client, cfg.TTL), nil
}

// Ping is the readiness check for the cache.
func (c *PermissionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the client.
func (c *PermissionCache) Close() error {
	return c.client.Close()
}
