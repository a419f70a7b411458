// Package chain defines the values threaded through one pipeline run: the
// request State, the Record rows adapters produce, and the Chain accumulator.
package chain

import (
	"encoding/json"
	"maps"
	"sort"
)

// Record is one row of adapter output keyed by field or output name.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// CloneRecords copies every row so the result can be mutated without
// affecting the source slice.
func CloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// Names returns the sorted union of keys across records. Row-oriented
// responses may omit a field on some rows, so no single row is the column list.
func Names(records []Record) []string {
	if len(records) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	for _, r := range records {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// State is the request state shared by every adapter in a run: the region of
// interest plus free-form parameters such as a chosen LD reference variant.
type State struct {
	Chr    string         `json:"chr"`
	Start  int            `json:"start"`
	End    int            `json:"end"`
	Params map[string]any `json:"params,omitempty"`
}

// Get returns a free-form state parameter.
func (s State) Get(key string) (any, bool) {
	v, ok := s.Params[key]
	return v, ok
}

// GetString returns a state parameter as a string, or "" when unset.
func (s State) GetString(key string) string {
	v, ok := s.Params[key]
	if !ok || v == nil {
		return ""
	}
	str, _ := v.(string)
	return str
}

// Key encodes the state deterministically for use in cache keys.
func (s State) Key() string {
	// encoding/json sorts map keys, so equal states encode identically
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(b)
}

// Chain accumulates results across the stages of one pipeline run.
//
// Header carries run-scoped metadata any stage may read or write. Body is the
// merged row set handed to the consumer. Discrete keeps each adapter's own
// normalized rows, keyed by adapter id, untouched by later stages.
type Chain struct {
	Header   map[string]any      `json:"header"`
	Body     []Record            `json:"body"`
	Discrete map[string][]Record `json:"discrete,omitempty"`
}

// New returns the empty starting value of a run.
func New() *Chain {
	return &Chain{
		Header:   make(map[string]any),
		Body:     []Record{},
		Discrete: make(map[string][]Record),
	}
}

// WithBody returns a chain sharing c's header and discrete results with a new body.
func (c *Chain) WithBody(body []Record) *Chain {
	header := c.Header
	if header == nil {
		header = make(map[string]any)
	}
	discrete := c.Discrete
	if discrete == nil {
		discrete = make(map[string][]Record)
	}
	if body == nil {
		body = []Record{}
	}
	return &Chain{Header: header, Body: body, Discrete: discrete}
}

// DiscreteCopy returns a mutable copy of the rows an adapter stored, and
// whether that adapter has run.
func (c *Chain) DiscreteCopy(id string) ([]Record, bool) {
	rows, ok := c.Discrete[id]
	if !ok {
		return nil, false
	}
	return CloneRecords(rows), true
}
