package ratelimit

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count int64
	reset time.Time
}

// MemoryStore is a mutex-guarded in-process counter map. A background sweep
// deletes expired windows so the map stays bounded by the number of active
// keys. Sweeping may race a fresh re-initialization; the re-created key is
// simply collected one cycle later, which does not affect window semantics.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry

	now  func() time.Time
	done chan struct{}
	once sync.Once
}

// MemoryOption configures MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewMemoryStore constructs the store and starts the sweep loop. A
// non-positive sweepInterval disables sweeping.
func NewMemoryStore(sweepInterval time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*entry),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if sweepInterval > 0 {
		go s.sweepLoop(sweepInterval)
	}
	return s
}

// Incr implements Store.
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !e.reset.After(now) {
		e = &entry{count: 0, reset: now.Add(window)}
		s.entries[key] = e
	}
	e.count++
	return e.count, e.reset, nil
}

// Close stops the sweep loop.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryStore) sweep() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if !e.reset.After(now) {
			delete(s.entries, key)
		}
	}
}
