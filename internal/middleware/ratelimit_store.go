package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/charlesng35/userprofile/internal/cache"
)

// RateStore counts hits per key within a fixed window.
type RateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)
}

// RateStoreFunc adapts a function to RateStore.
type RateStoreFunc func(ctx context.Context, key string, window time.Duration) (int, time.Duration, error)

func (f RateStoreFunc) Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	return f(ctx, key, window)
}

// NewCacheRateStore keeps counters in a shared cache (Redis or the SQL fallback) so
// every replica sees the same totals.
func NewCacheRateStore(store cache.Store) RateStore {
	if store == nil {
		return nil
	}
	return RateStoreFunc(func(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
		count, ttl, err := store.IncrementWithTTL(ctx, key, window)
		return int(count), ttl, err
	})
}

// PrefixRateStore namespaces every key of store, so two limiters on the same route
// keep separate counters.
func PrefixRateStore(store RateStore, prefix string) RateStore {
	return RateStoreFunc(func(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
		return store.Increment(ctx, prefix+key, window)
	})
}

type rateWindow struct {
	hits int
	ends time.Time
}

// memoryRateStore keeps counters in process. Finished windows are swept at most
// once per window length.
type memoryRateStore struct {
	mu        sync.Mutex
	windows   map[string]*rateWindow
	clock     func() time.Time
	nextSweep time.Time
}

// NewMemoryRateStore is the single instance counter store.
func NewMemoryRateStore() RateStore {
	return newMemoryRateStore(time.Now)
}

func newMemoryRateStore(clock func() time.Time) *memoryRateStore {
	return &memoryRateStore{windows: make(map[string]*rateWindow), clock: clock}
}

func (s *memoryRateStore) Increment(_ context.Context, key string, length time.Duration) (int, time.Duration, error) {
	if length <= 0 {
		length = time.Minute
	}
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !now.Before(s.nextSweep) {
		for k, w := range s.windows {
			if now.After(w.ends) {
				delete(s.windows, k)
			}
		}
		s.nextSweep = now.Add(length)
	}

	w, ok := s.windows[key]
	if !ok || now.After(w.ends) {
		w = &rateWindow{ends: now.Add(length)}
		s.windows[key] = w
	}
	w.hits++
	return w.hits, w.ends.Sub(now), nil
}
