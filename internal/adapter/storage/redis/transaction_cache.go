package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// TransactionCache implements ports.TransactionCache using Redis.
//
// Every cached query result is registered in a per-user set of
// outstanding keys, so invalidation can remove the whole set — every
// paginated variant included — rather than guessing individual keys.
// The registry set carries the same TTL budget as the entries it
// tracks, so an orphaned registry cannot outlive its data for long.
type TransactionCache struct {
	client *goredis.Client
	prefix string
}

// NewTransactionCache creates a new Redis-backed ledger read cache.
func NewTransactionCache(client *goredis.Client) *TransactionCache {
	return &TransactionCache{
		client: client,
		prefix: "txcache:",
	}
}

func (c *TransactionCache) registryKey(userID uuid.UUID) string {
	return c.prefix + "user_cache_keys_" + userID.String()
}

// Get retrieves a cached query result. Returns nil, nil on a miss.
func (c *TransactionCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis cache get: %w", err)
	}
	return val, nil
}

// Set stores a query result with TTL.
func (c *TransactionCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis cache set: %w", err)
	}
	return nil
}

// Delete removes a single cached entry.
func (c *TransactionCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis cache delete: %w", err)
	}
	return nil
}

// RegisterKey records key in the user's registry so a later
// invalidation can find it.
func (c *TransactionCache) RegisterKey(ctx context.Context, userID uuid.UUID, key string) error {
	reg := c.registryKey(userID)
	pipe := c.client.TxPipeline()
	pipe.SAdd(ctx, reg, key)
	pipe.Expire(ctx, reg, 2*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis cache register key: %w", err)
	}
	return nil
}

// DeleteAllKeysFor removes every registered cache entry for the user
// plus the registry itself.
func (c *TransactionCache) DeleteAllKeysFor(ctx context.Context, userID uuid.UUID) error {
	reg := c.registryKey(userID)

	keys, err := c.client.SMembers(ctx, reg).Result()
	if err != nil {
		return fmt.Errorf("redis cache list keys: %w", err)
	}

	targets := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		targets = append(targets, c.prefix+k)
	}
	targets = append(targets, reg)

	if err := c.client.Del(ctx, targets...).Err(); err != nil {
		return fmt.Errorf("redis cache invalidate: %w", err)
	}
	return nil
}
