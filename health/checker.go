package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
)

// CheckFunc reports the current health of one dependency.
type CheckFunc func(ctx context.Context) Status

// Checker runs named checks and aggregates them.
type Checker struct {
	name   string
	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// NewChecker creates a checker reporting under name.
func NewChecker(name string) *Checker {
	return &Checker{name: name, checks: make(map[string]CheckFunc)}
}

// Register adds or replaces the check for component.
func (c *Checker) Register(component string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[component] = fn
}

// Check runs every check in name order and aggregates the results.
func (c *Checker) Check(ctx context.Context) Status {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	checks := make(map[string]CheckFunc, len(c.checks))
	for k, v := range c.checks {
		checks[k] = v
	}
	c.mu.RUnlock()
	sort.Strings(names)

	subs := make([]Status, 0, len(names))
	for _, name := range names {
		st := checks[name](ctx)
		st.Component = name
		subs = append(subs, st)
	}
	return Aggregate(c.name, subs)
}

// ServeHTTP writes the aggregate status as JSON: 200 unless unhealthy, then 503.
func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	st := c.Check(r.Context())
	code := http.StatusOK
	if st.IsUnhealthy() {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(st)
}
