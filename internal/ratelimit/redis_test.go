package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func setupRedisStoreTest(t *testing.T) (*RedisStore, *redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return NewRedisStore(client, "test"), client, mr
}

func TestRedisStoreCountsWithinWindow(t *testing.T) {
	store, _, _ := setupRedisStoreTest(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		count, reset, err := store.Incr(ctx, "k", time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if count != want {
			t.Fatalf("count = %d, want %d", count, want)
		}
		if reset.Before(time.Now()) {
			t.Fatal("reset must lie in the future")
		}
	}
}

func TestRedisStoreWindowExpiry(t *testing.T) {
	store, _, mr := setupRedisStoreTest(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, _, err := store.Incr(ctx, "k", time.Minute); err != nil {
			t.Fatal(err)
		}
	}
	mr.FastForward(time.Minute + time.Second)

	count, _, err := store.Incr(ctx, "k", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("fresh window should restart the count, got %d", count)
	}
}

func TestRedisStoreKeysShareNothing(t *testing.T) {
	store, _, _ := setupRedisStoreTest(t)
	ctx := context.Background()

	if _, _, err := store.Incr(ctx, "a", time.Minute); err != nil {
		t.Fatal(err)
	}
	count, _, err := store.Incr(ctx, "b", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("key b should start at 1, got %d", count)
	}
}

func TestRedisStoreReinstallsLostExpiry(t *testing.T) {
	store, client, mr := setupRedisStoreTest(t)
	ctx := context.Background()

	if _, _, err := store.Incr(ctx, "k", time.Minute); err != nil {
		t.Fatal(err)
	}
	// Simulate an expiry lost across a restart.
	if err := client.Persist(ctx, "test:k").Err(); err != nil {
		t.Fatal(err)
	}

	if _, _, err := store.Incr(ctx, "k", time.Minute); err != nil {
		t.Fatal(err)
	}
	if mr.TTL("test:k") <= 0 {
		t.Fatal("expiry should have been reinstalled")
	}
}
