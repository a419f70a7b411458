// Package adapter defines the contract every data source implements and the
// shared pipeline stage that turns a provider response into chain rows.
//
// A concrete adapter supplies a Fetcher (how to build a cache key and how to
// retrieve a raw response) and may opt into further hooks by implementing
// Normalizer, Annotator, Extractor, Combiner or Preparer. Base composes these
// into a Stage:
//
//	prepare -> cache lookup / fetch -> unwrap -> normalize -> annotate
//	        -> extract fields -> record in Discrete -> combine
//
// Connector adapters (see Connector) fetch nothing and only combine results
// earlier stages recorded in Chain.Discrete.
package adapter

import (
	"context"

	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/transform"
)

// Stage is one step of a pipeline run. It receives the chain produced by the
// previous stage and returns the next one.
type Stage func(ctx context.Context, c *chain.Chain) (*chain.Chain, error)

// Request is one namespace's share of a split field request. The three
// slices are parallel: Outnames[i] is the raw token for Fields[i] and
// Transforms[i] (possibly nil) is applied to its values.
type Request struct {
	Fields     []string
	Outnames   []string
	Transforms []transform.Func
}

// Source is anything the requester can place in its namespace table.
type Source interface {
	ID() string
	GetData(state chain.State, req Request) Stage
}

// Fetcher is the required part of a data adapter.
type Fetcher interface {
	// CacheKey identifies the response Fetch would return. ok=false disables
	// caching for this call.
	CacheKey(state chain.State, c *chain.Chain, fields []string) (key string, ok bool)
	// Fetch retrieves the raw provider response.
	Fetch(ctx context.Context, state chain.State, c *chain.Chain, fields []string) (any, error)
}

// Normalizer converts an unwrapped response into rows, replacing ToRecords.
type Normalizer interface {
	Normalize(raw any, c *chain.Chain) ([]chain.Record, error)
}

// Annotator adds computed fields to rows before field extraction.
type Annotator interface {
	Annotate(rows []chain.Record, c *chain.Chain) ([]chain.Record, error)
}

// Extractor replaces the default field extraction.
type Extractor interface {
	Extract(rows []chain.Record, req Request) ([]chain.Record, error)
}

// Combiner merges this adapter's rows with the incoming chain and returns the
// new body. The default replaces the body. Implementations must not modify
// rows stored in c.Discrete; c.Body may be cloned and modified.
type Combiner interface {
	Combine(ctx context.Context, rows []chain.Record, c *chain.Chain, state chain.State, req Request) ([]chain.Record, error)
}

// Preparer may rewrite the state and request before anything is fetched, for
// instance to pick a reference variant from the incoming body.
type Preparer interface {
	Prepare(ctx context.Context, state chain.State, c *chain.Chain, req Request) (chain.State, Request, error)
}
