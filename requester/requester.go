// Package requester turns a list of field tokens into a pipeline of adapter
// stages and runs it.
package requester

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/metric"
	"github.com/statgen/locuszoom-sub005/transform"
)

// Requester resolves field requests against a Sources table.
type Requester struct {
	sources    *Sources
	transforms *transform.Registry
	logger     *slog.Logger
	metrics    *metric.Metrics
}

// Option configures a Requester.
type Option func(*Requester)

// WithLogger sets the logger used for run and stage events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Requester) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics records run and stage metrics in registry.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(r *Requester) {
		r.metrics = registry.CoreMetrics()
	}
}

// WithTransforms resolves transforms from reg instead of transform.Default.
func WithTransforms(reg *transform.Registry) Option {
	return func(r *Requester) {
		if reg != nil {
			r.transforms = reg
		}
	}
}

// New creates a Requester over sources.
func New(sources *Sources, opts ...Option) *Requester {
	r := &Requester{
		sources:    sources,
		transforms: transform.Default,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "requester")
	return r
}

// Sources returns the namespace table.
func (r *Requester) Sources() *Sources {
	return r.sources
}

// Plan splits tokens and resolves every namespace to its source. Unknown
// namespaces fail here, before anything is fetched.
func (r *Requester) Plan(state chain.State, tokens []string) ([]adapter.Stage, []string, error) {
	plan, err := Split(tokens, r.transforms)
	if err != nil {
		return nil, nil, err
	}

	stages := make([]adapter.Stage, 0, len(plan.Namespaces))
	for _, ns := range plan.Namespaces {
		src, ok := r.sources.Get(ns)
		if !ok {
			return nil, nil, &errors.UnknownNamespaceError{Namespace: ns}
		}
		stages = append(stages, src.GetData(state, *plan.Requests[ns]))
	}
	return stages, plan.Namespaces, nil
}

// GetData runs one namespace stage per distinct namespace in tokens, in order
// of first appearance, each receiving the previous stage's chain. The first
// failing stage aborts the run; its error is returned wrapped and the partial
// chain is discarded.
func (r *Requester) GetData(ctx context.Context, state chain.State, tokens []string) (*chain.Chain, error) {
	c, _, err := r.Run(ctx, state, tokens)
	return c, err
}

// Run is GetData that also returns the run id used in logs.
func (r *Requester) Run(ctx context.Context, state chain.State, tokens []string) (*chain.Chain, string, error) {
	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID)

	stages, namespaces, err := r.Plan(state, tokens)
	if err != nil {
		logger.Warn("Invalid field request", "fields", tokens, "error", err)
		r.recordRun("invalid")
		return nil, runID, err
	}
	logger.Debug("Starting pipeline", "chr", state.Chr, "start", state.Start, "end", state.End, "namespaces", namespaces)

	c := chain.New()
	for i, stage := range stages {
		ns := namespaces[i]
		if err := ctx.Err(); err != nil {
			r.recordRun("cancelled")
			return nil, runID, errors.Wrap(err, "Requester", "GetData", fmt.Sprintf("run stage %s", ns))
		}

		start := time.Now()
		next, err := stage(ctx, c)
		r.recordStage(ns, time.Since(start), err)
		if err != nil {
			logger.Warn("Stage failed", "source", ns, "class", errors.Classify(err).String(), "error", err)
			r.recordRun("error")
			return nil, runID, fmt.Errorf("requester: source %q: %w", ns, err)
		}
		c = next
	}

	logger.Debug("Pipeline complete", "rows", len(c.Body))
	r.recordRun("ok")
	return c, runID, nil
}

// Close releases every source.
func (r *Requester) Close(ctx context.Context) error {
	return r.sources.Close(ctx)
}

func (r *Requester) recordRun(status string) {
	if r.metrics != nil {
		r.metrics.RecordRun(status)
	}
}

func (r *Requester) recordStage(ns string, d time.Duration, err error) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordStageDuration(ns, d)
	if err != nil {
		r.metrics.RecordStageError(ns, errors.Classify(err).String())
	}
}
