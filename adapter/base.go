package adapter

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/metric"
	"github.com/statgen/locuszoom-sub005/pkg/cache"
)

// Base runs the standard stage pipeline around a Fetcher. Concrete adapters
// embed *Base and pass themselves as the Fetcher.
type Base struct {
	id        string
	impl      Fetcher
	cache     cache.Cache[any]
	timeout   time.Duration
	dependent bool
	logger    *slog.Logger
	metrics   *metric.Metrics
	flight    singleflight.Group
}

// BaseOption customizes a Base.
type BaseOption func(*baseOptions)

type baseOptions struct {
	dependent bool
	noCache   bool
}

// Dependent marks an adapter whose data only makes sense on top of earlier
// results: its stage passes the chain through untouched when the body is empty.
func Dependent() BaseOption {
	return func(o *baseOptions) { o.dependent = true }
}

// WithoutCache disables response caching regardless of the spec.
func WithoutCache() BaseOption {
	return func(o *baseOptions) { o.noCache = true }
}

// NewBase builds the shared pipeline for adapter id. The cache and fetch
// timeout come from spec.
func NewBase(impl Fetcher, id string, spec Spec, deps Dependencies, opts ...BaseOption) (*Base, error) {
	if impl == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Base", "NewBase", "fetcher is required")
	}
	if id == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Base", "NewBase", "source id is required")
	}

	var o baseOptions
	for _, opt := range opts {
		opt(&o)
	}

	timeout, err := spec.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	cacheCfg := spec.CacheConfig()
	if o.noCache {
		cacheCfg = cache.Config{Strategy: cache.StrategyNone}
	}
	c, err := cache.NewFromConfig[any](cacheCfg, cache.WithMetrics[any](deps.MetricsRegistry, id))
	if err != nil {
		return nil, errors.Wrap(err, "Base", "NewBase", "create cache")
	}

	return &Base{
		id:        id,
		impl:      impl,
		cache:     c,
		timeout:   timeout,
		dependent: o.dependent,
		logger:    deps.GetLoggerWithSource(id),
		metrics:   deps.MetricsRegistry.CoreMetrics(),
	}, nil
}

// ID returns the namespace this adapter was configured under.
func (b *Base) ID() string {
	return b.id
}

// Logger returns the adapter's logger.
func (b *Base) Logger() *slog.Logger {
	return b.logger
}

// Cache exposes the response cache, mainly for tests.
func (b *Base) Cache() cache.Cache[any] {
	return b.cache
}

// GetOrFetch returns the cached response when the cache key matches and
// calls Fetch otherwise. Only successful responses are stored; storing a new
// key in a single-slot cache evicts the previous response. Concurrent misses
// on the same key share one Fetch, and a cancelled caller returns its own
// context error without cancelling that Fetch.
func (b *Base) GetOrFetch(ctx context.Context, state chain.State, c *chain.Chain, fields []string) (any, error) {
	key, cacheable := b.impl.CacheKey(state, c, fields)
	if !cacheable || key == "" {
		return b.fetch(ctx, state, c, fields)
	}

	if raw, ok := b.cache.Get(key); ok {
		b.logger.Debug("Cache hit", "key", key)
		b.recordFetch("hit")
		return raw, nil
	}

	// The shared fetch runs detached from any one caller, so a caller that
	// gives up does not fail the others waiting on the same key. The adapter
	// timeout still bounds it.
	ch := b.flight.DoChan(key, func() (any, error) {
		raw, err := b.fetch(context.WithoutCancel(ctx), state, c, fields)
		if err != nil {
			return nil, err
		}
		if _, err := b.cache.Set(key, raw); err != nil {
			b.logger.Warn("Failed to cache response", "error", err)
		}
		return raw, nil
	})
	select {
	case res := <-ch:
		if res.Shared {
			b.logger.Debug("Shared in-flight fetch", "key", key)
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *Base) fetch(ctx context.Context, state chain.State, c *chain.Chain, fields []string) (any, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := b.impl.Fetch(ctx, state, c, fields)
	if err != nil {
		b.recordFetch("error")
		return nil, err
	}
	b.logger.Debug("Fetched", "duration", time.Since(start))
	b.recordFetch("miss")
	return raw, nil
}

// GetData returns the stage for one request against this adapter.
func (b *Base) GetData(state chain.State, req Request) Stage {
	return func(ctx context.Context, c *chain.Chain) (*chain.Chain, error) {
		// Prepare must not leak into later runs of the same stage.
		state, req := state, req
		if c == nil {
			c = chain.New()
		}
		if b.dependent && len(c.Body) == 0 {
			b.logger.Debug("Skipping dependent source, no rows to annotate")
			return c, nil
		}

		if p, ok := b.impl.(Preparer); ok {
			var err error
			state, req, err = p.Prepare(ctx, state, c, req)
			if err != nil {
				return nil, errors.Wrap(err, b.id, "GetData", "prepare request")
			}
		}

		raw, err := b.GetOrFetch(ctx, state, c, req.Fields)
		if err != nil {
			return nil, errors.Wrap(err, b.id, "GetData", "fetch")
		}

		rows, err := b.normalize(raw, c)
		if err != nil {
			return nil, errors.Wrap(err, b.id, "GetData", "normalize response")
		}

		if a, ok := b.impl.(Annotator); ok {
			if rows, err = a.Annotate(rows, c); err != nil {
				return nil, errors.Wrap(err, b.id, "GetData", "annotate")
			}
		}

		if e, ok := b.impl.(Extractor); ok {
			rows, err = e.Extract(rows, req)
		} else {
			rows, err = ExtractFields(rows, req)
		}
		if err != nil {
			return nil, errors.Wrap(err, b.id, "GetData", "extract fields")
		}

		if c.Discrete == nil {
			c.Discrete = make(map[string][]chain.Record)
		}
		c.Discrete[b.id] = chain.CloneRecords(rows)

		body := rows
		if cb, ok := b.impl.(Combiner); ok {
			if body, err = cb.Combine(ctx, rows, c, state, req); err != nil {
				return nil, errors.Wrap(err, b.id, "GetData", "combine")
			}
		}
		return c.WithBody(body), nil
	}
}

func (b *Base) normalize(raw any, c *chain.Chain) ([]chain.Record, error) {
	data, err := Unwrap(raw)
	if err != nil {
		return nil, err
	}
	if n, ok := b.impl.(Normalizer); ok {
		return n.Normalize(data, c)
	}
	return ToRecords(data)
}

func (b *Base) recordFetch(outcome string) {
	if b.metrics != nil {
		b.metrics.RecordFetch(b.id, outcome)
	}
}

// Close releases the response cache.
func (b *Base) Close() error {
	return b.cache.Close()
}
