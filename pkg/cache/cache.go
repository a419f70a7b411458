// Package cache provides generic, thread-safe caches used by data adapters to
// remember their last provider response.
//
// Three strategies are available:
//   - single: one slot; storing a new key evicts the previous entry
//   - lru: bounded least-recently-used cache holding several keys
//   - none: never stores anything
//
// Every cache tracks Statistics and can optionally export them as Prometheus
// metrics through WithMetrics.
package cache

import (
	"github.com/statgen/locuszoom-sub005/errors"
)

// Cache is a string-keyed store safe for concurrent use.
type Cache[V any] interface {
	Get(key string) (V, bool)
	// Set reports whether key was new. Empty keys are rejected.
	Set(key string, value V) (bool, error)
	// Delete reports whether key was present.
	Delete(key string) (bool, error)
	Clear() error
	Size() int
	// Keys lists keys, most recently used first.
	Keys() []string
	// Stats is nil for the no-op cache.
	Stats() *Statistics
	Close() error
}

// EvictCallback receives entries that leave the cache.
type EvictCallback[V any] func(key string, value V)

func validateKey(key string) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "cache", "validateKey", "key cannot be empty")
	}
	return nil
}
