package adapter

import (
	"fmt"
	"sort"
	"time"

	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/pkg/cache"
	"github.com/statgen/locuszoom-sub005/transform"
)

// Spec is the configuration of one namespace's adapter.
type Spec struct {
	Type    string        `json:"type" yaml:"type"`
	URL     string        `json:"url,omitempty" yaml:"url,omitempty"`
	Params  Params        `json:"params,omitempty" yaml:"params,omitempty"`
	Cache   *cache.Config `json:"cache,omitempty" yaml:"cache,omitempty"`
	Timeout string        `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// CacheConfig returns the configured cache, defaulting to a single slot.
func (s Spec) CacheConfig() cache.Config {
	if s.Cache == nil {
		return cache.DefaultConfig()
	}
	return *s.Cache
}

// TimeoutDuration parses Timeout. Empty means no timeout.
func (s Spec) TimeoutDuration() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, errors.WrapInvalid(err, "Spec", "TimeoutDuration", fmt.Sprintf("parse timeout %q", s.Timeout))
	}
	if d < 0 {
		return 0, errors.WrapInvalid(errors.ErrInvalidConfig, "Spec", "TimeoutDuration", "timeout must not be negative")
	}
	return d, nil
}

// RequireURL fails when the spec has no URL.
func (s Spec) RequireURL(component string) error {
	if s.URL == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, component, "New", "url is required")
	}
	return nil
}

// Params holds adapter-specific settings. Accessors tolerate the numeric types
// produced by both JSON and YAML decoding.
type Params map[string]any

// Has reports whether key is set to a non-nil value.
func (p Params) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// String returns a string parameter or def. Numbers are formatted, since
// dataset ids such as analysis 45 are often written unquoted.
func (p Params) String(key, def string) string {
	switch v := p[key].(type) {
	case string:
		if v != "" {
			return v
		}
	case int, int64, float64, uint64:
		return fmt.Sprint(v)
	}
	return def
}

// Int returns an integer parameter or def.
func (p Params) Int(key string, def int) int {
	if f, ok := transform.ToFloat(p[key]); ok {
		return int(f)
	}
	return def
}

// Float returns a float parameter or def.
func (p Params) Float(key string, def float64) float64 {
	if f, ok := transform.ToFloat(p[key]); ok {
		return f
	}
	return def
}

// Bool returns a boolean parameter or def.
func (p Params) Bool(key string, def bool) bool {
	if b, ok := p[key].(bool); ok {
		return b
	}
	return def
}

// Strings returns a list parameter. A single string becomes a one-element list.
func (p Params) Strings(key string) []string {
	switch v := p[key].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}

// StringMap returns a string-to-string mapping parameter such as a
// connector's source table.
func (p Params) StringMap(key string) map[string]string {
	out := make(map[string]string)
	switch v := p[key].(type) {
	case map[string]string:
		for k, s := range v {
			out[k] = s
		}
	case map[string]any:
		for k, s := range v {
			out[k] = fmt.Sprint(s)
		}
	}
	return out
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
