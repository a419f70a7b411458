// Package natsreq fetches region data from a service answering NATS
// request/reply on a configured subject.
package natsreq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/pkg/retry"
)

// Type is the adapter type name used in configuration.
const Type = "nats"

// Requester sends one request and waits for the reply. *natsclient.Client
// satisfies it.
type Requester interface {
	Request(ctx context.Context, subject string, data []byte) ([]byte, error)
}

// Query is the JSON request body sent to the responder.
type Query struct {
	Chr    string         `json:"chr"`
	Start  int            `json:"start"`
	End    int            `json:"end"`
	Params map[string]any `json:"params,omitempty"`
	Fields []string       `json:"fields"`
}

// Source is the NATS request/reply adapter.
type Source struct {
	*adapter.Base

	client  Requester
	subject string
	retry   retry.Config
}

// New creates a NATS source on the shared client from deps. The "subject"
// param names the request subject; "retries" sets how many times a transient
// request failure is retried (default 0).
func New(id string, spec adapter.Spec, deps adapter.Dependencies) (adapter.Source, error) {
	if deps.NATSClient == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, Type, "New", "nats connection is not configured")
	}
	return NewWithRequester(id, deps.NATSClient, spec, deps)
}

// NewWithRequester creates a NATS source over client.
func NewWithRequester(id string, client Requester, spec adapter.Spec, deps adapter.Dependencies) (*Source, error) {
	subject := spec.Params.String("subject", "")
	if subject == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, Type, "New", "subject param is required")
	}

	s := &Source{
		client:  client,
		subject: subject,
		retry:   retry.Attempts(spec.Params.Int("retries", 0)),
	}
	base, err := adapter.NewBase(s, id, spec, deps)
	if err != nil {
		return nil, err
	}
	s.Base = base
	return s, nil
}

// Registration describes the adapter for an adapter.Registry.
func Registration() *adapter.Registration {
	return &adapter.Registration{
		Name:        Type,
		Protocol:    "nats",
		Description: "Region data from a NATS request/reply service",
		Factory:     New,
	}
}

func query(state chain.State, fields []string) Query {
	return Query{Chr: state.Chr, Start: state.Start, End: state.End, Params: state.Params, Fields: fields}
}

// CacheKey is the encoded request body.
func (s *Source) CacheKey(state chain.State, _ *chain.Chain, fields []string) (string, bool) {
	body, err := json.Marshal(query(state, fields))
	if err != nil {
		return "", false
	}
	return s.subject + " " + string(body), true
}

// Fetch sends the query and returns the raw reply for decoding.
func (s *Source) Fetch(ctx context.Context, state chain.State, _ *chain.Chain, fields []string) (any, error) {
	body, err := json.Marshal(query(state, fields))
	if err != nil {
		return nil, errors.WrapInvalid(err, Type, "Fetch", "encode query")
	}
	reply, err := retry.DoWithResult(ctx, s.retry, func() ([]byte, error) {
		return s.client.Request(ctx, s.subject, body)
	})
	if err != nil {
		return nil, errors.Wrap(err, Type, "Fetch", fmt.Sprintf("request %s", s.subject))
	}
	return reply, nil
}
