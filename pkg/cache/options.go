package cache

import (
	"github.com/statgen/locuszoom-sub005/metric"
)

// Option adjusts a cache at construction.
type Option[V any] func(*settings[V])

type settings[V any] struct {
	registry *metric.MetricsRegistry
	owner    string // source id, used as the metrics label
	onEvict  EvictCallback[V]
}

// WithMetrics exports hit, miss and eviction counts for owner. It has no
// effect without both a registry and an owner.
func WithMetrics[V any](registry *metric.MetricsRegistry, owner string) Option[V] {
	return func(s *settings[V]) {
		if registry == nil || owner == "" {
			return
		}
		s.registry, s.owner = registry, owner
	}
}

// WithEvictionCallback calls fn for every entry that is evicted or deleted.
func WithEvictionCallback[V any](fn EvictCallback[V]) Option[V] {
	return func(s *settings[V]) { s.onEvict = fn }
}

func collect[V any](opts []Option[V]) settings[V] {
	var s settings[V]
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}
