package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jobhub/identity/internal/core/ports"
)

const (
	defaultPermissionTTL = 30 * time.Second
	generationKey        = "perms:gen"
	userVersionsKey      = "perms:ver"
)

var _ ports.PermissionCache = (*PermissionCache)(nil)

// PermissionCache stores each user's effective permission codes with a short TTL.
// Key format: perms:<generation>.<user_version>:<user_id>
//
// Invalidation never deletes entries. InvalidateAll bumps the global
// generation and InvalidateUser bumps the user's counter in the perms:ver
// hash, so older entries become unreachable and expire on their own. A Set
// carrying the version of an earlier Get therefore cannot resurrect data that
// was invalidated in between.
type PermissionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPermissionCache wraps client. A non-positive ttl selects 30 seconds.
func NewPermissionCache(client *redis.Client, ttl time.Duration) *PermissionCache {
	if ttl <= 0 {
		ttl = defaultPermissionTTL
	}
	return &PermissionCache{client: client, ttl: ttl}
}

func (c *PermissionCache) Get(ctx context.Context, userID string) (ports.CachedPermissions, error) {
	version, err := c.version(ctx, userID)
	if err != nil {
		return ports.CachedPermissions{}, err
	}
	miss := ports.CachedPermissions{Version: version}

	raw, err := c.client.Get(ctx, entryKey(version, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return miss, nil
	}
	if err != nil {
		return ports.CachedPermissions{}, fmt.Errorf("permission cache get: %w", err)
	}

	var codes []string
	if err := json.Unmarshal(raw, &codes); err != nil {
		return miss, fmt.Errorf("permission cache decode: %w", err)
	}
	return ports.CachedPermissions{Codes: codes, Hit: true, Version: version}, nil
}

func (c *PermissionCache) Set(ctx context.Context, userID, version string, codes []string) error {
	if version == "" {
		return errors.New("permission cache set: missing version")
	}
	if codes == nil {
		codes = []string{}
	}
	raw, err := json.Marshal(codes)
	if err != nil {
		return fmt.Errorf("permission cache encode: %w", err)
	}
	return c.client.Set(ctx, entryKey(version, userID), raw, c.ttl).Err()
}

func (c *PermissionCache) InvalidateUser(ctx context.Context, userID string) error {
	return c.client.HIncrBy(ctx, userVersionsKey, userID, 1).Err()
}

func (c *PermissionCache) InvalidateAll(ctx context.Context) error {
	return c.client.Incr(ctx, generationKey).Err()
}

// version reads the global generation and the user's counter in one round trip.
func (c *PermissionCache) version(ctx context.Context, userID string) (string, error) {
	var gen, ver *redis.StringCmd
	_, err := c.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		gen = p.Get(ctx, generationKey)
		ver = p.HGet(ctx, userVersionsKey, userID)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("permission cache version: %w", err)
	}
	g, err := counter(gen)
	if err != nil {
		return "", err
	}
	v, err := counter(ver)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d.%d", g, v), nil
}

func counter(cmd *redis.StringCmd) (int64, error) {
	n, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("permission cache version: %w", err)
	}
	return n, nil
}

func entryKey(version, userID string) string {
	return "perms:" + version + ":" + userID
}
