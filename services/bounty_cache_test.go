package services

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestCache(t *testing.T) *BountyCache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewBountyCache(rdb)
}

func TestBountyCacheAddAndExists(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	ok, err := cache.Exists(ctx, "bounty_x_1")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("unknown ID should not exist")
	}

	if err := cache.Add(ctx, "bounty_x_1"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	// idempotent
	if err := cache.Add(ctx, "bounty_x_1"); err != nil {
		t.Fatalf("second Add: %v", err)
	}

	ok, err = cache.Exists(ctx, "bounty_x_1")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !ok {
		t.Error("added ID should exist")
	}
}

func TestBountyCacheAll(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := cache.Add(ctx, id); err != nil {
			t.Fatalf("Add %s: %v", id, err)
		}
	}

	ids, err := cache.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("expected 3 IDs, got %v", ids)
	}
}
