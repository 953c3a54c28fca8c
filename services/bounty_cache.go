// services/bounty_cache.go
package services

import (
	"context"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
)

const bountyIDSetKey = "bounty:ids"

// BountyCache is the advisory record of bounty IDs this service created.
// Chain state is ground truth; the cache only answers "did we mint this ID"
// without a chain round trip.
type BountyCache struct {
	rdb *redis.Client
}

func NewBountyCache(rdb *redis.Client) *BountyCache {
	return &BountyCache{rdb: rdb}
}

// NewRedisClient connects using REDIS_ADDR (and optional REDIS_PASSWORD).
func NewRedisClient() (*redis.Client, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Add records a bounty ID. Adding the same ID twice is a no-op.
func (c *BountyCache) Add(ctx context.Context, bountyID string) error {
	if err := c.rdb.SAdd(ctx, bountyIDSetKey, bountyID).Err(); err != nil {
		return fmt.Errorf("failed to cache bounty ID %s: %w", bountyID, err)
	}
	return nil
}

// Exists reports whether this service recorded the bounty ID.
func (c *BountyCache) Exists(ctx context.Context, bountyID string) (bool, error) {
	ok, err := c.rdb.SIsMember(ctx, bountyIDSetKey, bountyID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check bounty ID %s: %w", bountyID, err)
	}
	return ok, nil
}

// All returns every recorded bounty ID.
func (c *BountyCache) All(ctx context.Context) ([]string, error) {
	ids, err := c.rdb.SMembers(ctx, bountyIDSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list cached bounty IDs: %w", err)
	}
	return ids, nil
}
