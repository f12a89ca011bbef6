package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestFixedWindowCountdown(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	store := NewMemoryStore(0, WithClock(clock.Now))
	limiter := New(store)
	ctx := context.Background()

	// max=5 per minute: five hits pass with a decreasing remainder.
	for i, wantRemaining := range []int{4, 3, 2, 1, 0} {
		res, err := limiter.Check(ctx, "ip:1.2.3.4", 5, time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Allowed {
			t.Fatalf("hit %d should be allowed", i+1)
		}
		if res.Remaining != wantRemaining {
			t.Fatalf("hit %d: remaining = %d, want %d", i+1, res.Remaining, wantRemaining)
		}
		if res.Limit != 5 {
			t.Fatalf("limit = %d, want 5", res.Limit)
		}
	}

	// The sixth hit in the same window is rejected.
	res, err := limiter.Check(ctx, "ip:1.2.3.4", 5, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed {
		t.Fatal("sixth hit within the window should be rejected")
	}
	if res.Remaining != 0 {
		t.Fatalf("remaining after rejection = %d, want 0", res.Remaining)
	}
	if want := clock.now.Add(time.Minute); !res.Reset.Equal(want) {
		t.Fatalf("reset = %v, want %v", res.Reset, want)
	}
}

func TestWindowResetsAfterExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	store := NewMemoryStore(0, WithClock(clock.Now))
	limiter := New(store)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, _ = limiter.Check(ctx, "k", 5, time.Minute)
	}
	clock.Advance(time.Minute + time.Second)

	res, err := limiter.Check(ctx, "k", 5, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Allowed {
		t.Fatal("fresh window should admit the request")
	}
	if res.Remaining != 4 {
		t.Fatalf("remaining in fresh window = %d, want 4", res.Remaining)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	store := NewMemoryStore(0, WithClock(clock.Now))
	limiter := New(store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = limiter.Check(ctx, "a", 5, time.Minute)
	}
	res, err := limiter.Check(ctx, "b", 5, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Allowed || res.Remaining != 4 {
		t.Fatalf("key b should be untouched by key a, got %+v", res)
	}
}

func TestSweepRemovesExpiredEntries(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	store := NewMemoryStore(0, WithClock(clock.Now))
	ctx := context.Background()

	_, _, _ = store.Incr(ctx, "a", time.Minute)
	_, _, _ = store.Incr(ctx, "b", time.Hour)
	clock.Advance(2 * time.Minute)
	store.sweep()

	store.mu.Lock()
	defer store.mu.Unlock()
	if _, ok := store.entries["a"]; ok {
		t.Fatal("expired entry a should have been swept")
	}
	if _, ok := store.entries["b"]; !ok {
		t.Fatal("live entry b should survive the sweep")
	}
}

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, time.Time, error) {
	return 0, time.Time{}, errors.New("backend down")
}

func TestCheckFailsOpenOnStoreError(t *testing.T) {
	limiter := New(failingStore{})
	res, err := limiter.Check(context.Background(), "k", 5, time.Minute)
	if err == nil {
		t.Fatal("expected the store error to surface")
	}
	if !res.Allowed {
		t.Fatal("a broken store must not block requests")
	}
}

func TestRetryAfterRoundsUp(t *testing.T) {
	now := time.Unix(1700000000, 0)
	cases := []struct {
		reset time.Time
		want  int
	}{
		{now.Add(30 * time.Second), 30},
		{now.Add(1500 * time.Millisecond), 2},
		{now.Add(time.Millisecond), 1},
		{now, 0},
		{now.Add(-time.Second), 0},
	}
	for _, c := range cases {
		res := Result{Reset: c.reset}
		if got := res.RetryAfter(now); got != c.want {
			t.Errorf("RetryAfter(reset=%v) = %d, want %d", c.reset, got, c.want)
		}
	}
}
