package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/gateway"
)

// Config is the complete lzdata configuration: the source table plus the
// optional NATS connection, metrics server and HTTP gateway.
type Config struct {
	Sources map[string]adapter.Spec `json:"sources" yaml:"sources"`
	NATS    NATSConfig              `json:"nats,omitempty" yaml:"nats,omitempty"`
	Metrics MetricsConfig           `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Gateway gateway.Config          `json:"gateway,omitempty" yaml:"gateway,omitempty"`
}

// NATSConfig configures the shared connection used by "nats" sources. An
// empty URL list means no connection is made.
type NATSConfig struct {
	URLs          []string `json:"urls,omitempty" yaml:"urls,omitempty"`
	Username      string   `json:"username,omitempty" yaml:"username,omitempty"`
	Password      string   `json:"password,omitempty" yaml:"password,omitempty"`
	Token         string   `json:"token,omitempty" yaml:"token,omitempty"`
	MaxReconnects int      `json:"max_reconnects,omitempty" yaml:"max_reconnects,omitempty"`
	ReconnectWait string   `json:"reconnect_wait,omitempty" yaml:"reconnect_wait,omitempty"`
}

// Enabled reports whether a NATS connection is configured.
func (n NATSConfig) Enabled() bool {
	return len(n.URLs) > 0
}

// ReconnectWaitDuration parses ReconnectWait, defaulting to 2s.
func (n NATSConfig) ReconnectWaitDuration() (time.Duration, error) {
	if n.ReconnectWait == "" {
		return 2 * time.Second, nil
	}
	return time.ParseDuration(n.ReconnectWait)
}

// MetricsConfig configures the Prometheus server.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Port    int    `json:"port,omitempty" yaml:"port,omitempty"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Default returns a configuration with no sources and default server settings.
func Default() *Config {
	return &Config{
		Sources: map[string]adapter.Spec{},
		Metrics: MetricsConfig{Port: 9090, Path: "/metrics"},
		Gateway: gateway.DefaultConfig(),
	}
}

// Validate checks the parts of the configuration a schema cannot express.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "at least one source is required")
	}

	for _, id := range c.SourceIDs() {
		spec := c.Sources[id]
		if strings.TrimSpace(id) == "" {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "source namespace cannot be empty")
		}
		if spec.Type == "" {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				fmt.Sprintf("source %q has no type", id))
		}
		if err := spec.CacheConfig().Validate(); err != nil {
			return errors.WrapInvalid(err, "Config", "Validate", fmt.Sprintf("source %q cache", id))
		}
		if _, err := spec.TimeoutDuration(); err != nil {
			return errors.WrapInvalid(err, "Config", "Validate", fmt.Sprintf("source %q timeout", id))
		}
	}

	if c.NATS.Enabled() {
		if _, err := c.NATS.ReconnectWaitDuration(); err != nil {
			return errors.WrapInvalid(err, "Config", "Validate", "nats reconnect_wait")
		}
	}

	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("metrics port %d out of range", c.Metrics.Port))
	}

	if err := c.Gateway.Validate(); err != nil {
		return errors.WrapInvalid(err, "Config", "Validate", "gateway")
	}
	return nil
}

// SourceIDs returns the configured namespaces in sorted order.
func (c *Config) SourceIDs() []string {
	ids := make([]string, 0, len(c.Sources))
	for id := range c.Sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return Default()
	}

	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}
	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}
	return &clone
}

// String renders the configuration as JSON with credentials redacted.
func (c *Config) String() string {
	redacted := c.Clone()
	if redacted.NATS.Password != "" {
		redacted.NATS.Password = "[REDACTED]"
	}
	if redacted.NATS.Token != "" {
		redacted.NATS.Token = "[REDACTED]"
	}
	data, err := json.MarshalIndent(redacted, "", "  ")
	if err != nil {
		return fmt.Sprintf("Config{sources: %d}", len(c.Sources))
	}
	return string(data)
}
