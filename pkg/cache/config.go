package cache

import (
	"fmt"

	"github.com/statgen/locuszoom-sub005/errors"
)

// Strategy selects the cache implementation.
type Strategy string

const (
	// StrategySingle keeps only the most recent entry.
	StrategySingle Strategy = "single"

	// StrategyLRU keeps up to MaxSize entries with least-recently-used eviction.
	StrategyLRU Strategy = "lru"

	// StrategyNone disables caching.
	StrategyNone Strategy = "none"
)

// Config contains configuration for cache creation.
type Config struct {
	Strategy Strategy `json:"strategy" yaml:"strategy"`
	MaxSize  int      `json:"max_size,omitempty" yaml:"max_size,omitempty"`
}

// DefaultConfig returns the single-slot configuration adapters use unless told otherwise.
func DefaultConfig() Config {
	return Config{Strategy: StrategySingle, MaxSize: 1}
}

// Validate checks if the configuration is valid. An empty strategy means single.
func (c Config) Validate() error {
	switch c.Strategy {
	case "", StrategySingle, StrategyNone:
		return nil
	case StrategyLRU:
		if c.MaxSize <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
				fmt.Sprintf("max_size must be positive for lru cache, got %d", c.MaxSize))
		}
		return nil
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
			fmt.Sprintf("unknown cache strategy: %s", c.Strategy))
	}
}

// NewFromConfig creates a cache based on the provided configuration.
func NewFromConfig[V any](config Config, options ...Option[V]) (Cache[V], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Strategy {
	case StrategyNone:
		return NewNoop[V](), nil
	case StrategyLRU:
		return NewLRU[V](config.MaxSize, options...)
	default:
		return NewSingleSlot[V](options...)
	}
}

// NewSingleSlot creates a cache holding at most one entry: storing a new key
// evicts whatever was cached before.
func NewSingleSlot[V any](options ...Option[V]) (Cache[V], error) {
	return NewLRU[V](1, options...)
}

// NewLRU returns a cache holding up to maxSize keys.
func NewLRU[V any](maxSize int, options ...Option[V]) (Cache[V], error) {
	return newLRUCache[V](maxSize, collect(options))
}

// NewNoop creates a cache that never stores anything.
func NewNoop[V any]() Cache[V] {
	return noopCache[V]{}
}

type noopCache[V any] struct{}

func (noopCache[V]) Get(string) (V, bool) {
	var zero V
	return zero, false
}

func (noopCache[V]) Set(string, V) (bool, error) { return false, nil }
func (noopCache[V]) Delete(string) (bool, error) { return false, nil }
func (noopCache[V]) Clear() error                { return nil }
func (noopCache[V]) Size() int                   { return 0 }
func (noopCache[V]) Keys() []string              { return nil }
func (noopCache[V]) Stats() *Statistics          { return nil }
func (noopCache[V]) Close() error                { return nil }
