// Package cache stores derived profile data and rate limit counters in Redis or,
// when Redis is not configured, in the primary database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable is returned by a store that was never initialised.
var ErrUnavailable = errors.New("cache: store not initialised")

// Store is the cache contract shared by the Redis and database backends. A ttl of
// zero stores the value without expiry.
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// GetJSON reads key and decodes it into a T. An entry that no longer decodes is
// reported as a miss.
func GetJSON[T any](ctx context.Context, store Store, key string) (T, bool, error) {
	var out T
	raw, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false, nil
	}
	return out, true, nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, store Store, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	return store.Set(ctx, key, raw, ttl)
}
