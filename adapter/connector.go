package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
)

// Joiner combines the results of earlier stages into a new body. upstream
// holds a private copy of each required source's rows, keyed by the logical
// name the connector declared.
type Joiner interface {
	Join(ctx context.Context, upstream map[string][]chain.Record, c *chain.Chain, state chain.State, req Request) ([]chain.Record, error)
}

// Connector is a Source that fetches nothing. It reads the rows earlier
// stages stored in Chain.Discrete and hands them to a Joiner.
type Connector struct {
	id       string
	required []string
	sources  map[string]string // logical name -> namespace of the upstream source
	joiner   Joiner
	logger   *slog.Logger
}

// NewConnector validates that sources maps every required logical name to a
// namespace. The mapping usually comes from the "sources" param.
func NewConnector(id string, required []string, sources map[string]string, joiner Joiner, deps Dependencies) (*Connector, error) {
	if joiner == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Connector", "NewConnector", "joiner is required")
	}

	var missing []string
	for _, name := range required {
		if sources[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Connector", "NewConnector",
			fmt.Sprintf("connector %s must specify the following source ids: %s", id, strings.Join(missing, ", ")))
	}

	return &Connector{
		id:       id,
		required: append([]string(nil), required...),
		sources:  sources,
		joiner:   joiner,
		logger:   deps.GetLoggerWithSource(id),
	}, nil
}

// ID returns the connector's namespace.
func (c *Connector) ID() string {
	return c.id
}

// Source returns the namespace mapped to a logical name.
func (c *Connector) Source(logical string) string {
	return c.sources[logical]
}

// GetData returns a stage that fails with errors.MissingDependencyError when
// a required source has not run earlier in the same pipeline.
func (c *Connector) GetData(state chain.State, req Request) Stage {
	return func(ctx context.Context, ch *chain.Chain) (*chain.Chain, error) {
		if ch == nil {
			ch = chain.New()
		}

		upstream := make(map[string][]chain.Record, len(c.required))
		for _, name := range c.required {
			ns := c.sources[name]
			rows, ok := ch.DiscreteCopy(ns)
			if !ok {
				return nil, &errors.MissingDependencyError{Connector: c.id, Upstream: ns}
			}
			upstream[name] = rows
		}

		body, err := c.joiner.Join(ctx, upstream, ch, state, req)
		if err != nil {
			return nil, errors.Wrap(err, c.id, "GetData", "join")
		}
		c.logger.Debug("Joined upstream sources", "rows", len(body))
		return ch.WithBody(body), nil
	}
}
