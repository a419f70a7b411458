package gateway

import (
	"fmt"
	"strings"
	"time"

	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/pkg/tlsutil"
)

// Config holds the HTTP gateway settings.
type Config struct {
	// Address is the listen address (default ":8080").
	Address string `json:"address,omitempty" yaml:"address,omitempty"`

	// Prefix is prepended to every route (default "/api/v1").
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Timeout bounds one data request, including every stage (default "30s").
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// MaxFields caps the number of field tokens in one request (default 100).
	MaxFields int `json:"max_fields,omitempty" yaml:"max_fields,omitempty"`

	// EnableCORS enables CORS headers; it requires explicit CORSOrigins.
	EnableCORS bool `json:"enable_cors,omitempty" yaml:"enable_cors,omitempty"`

	// CORSOrigins lists allowed origins. ["*"] is for development only.
	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`

	// TLS serves HTTPS when set.
	TLS *tlsutil.ServerConfig `json:"tls,omitempty" yaml:"tls,omitempty"`
}

// DefaultConfig returns the default gateway configuration.
func DefaultConfig() Config {
	return Config{
		Address:   ":8080",
		Prefix:    "/api/v1",
		Timeout:   "30s",
		MaxFields: 100,
	}
}

// Validate fills defaults and checks ranges.
func (c *Config) Validate() error {
	defaults := DefaultConfig()
	if c.Address == "" {
		c.Address = defaults.Address
	}
	if c.Prefix == "" {
		c.Prefix = defaults.Prefix
	}
	if !strings.HasPrefix(c.Prefix, "/") {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("prefix %q must start with /", c.Prefix))
	}
	if c.MaxFields == 0 {
		c.MaxFields = defaults.MaxFields
	}
	if c.MaxFields < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"max_fields cannot be negative")
	}

	timeout, err := c.TimeoutDuration()
	if err != nil {
		return err
	}
	if timeout < 100*time.Millisecond || timeout > 5*time.Minute {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"timeout must be between 100ms and 5m")
	}

	if c.EnableCORS && len(c.CORSOrigins) == 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"enable_cors requires explicit cors_origins configuration (use [\"*\"] for development only)")
	}
	if c.TLS != nil && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate",
			"tls requires cert_file and key_file")
	}
	return nil
}

// TimeoutDuration parses Timeout, defaulting to 30s.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, errors.WrapInvalid(err, "Config", "TimeoutDuration",
			fmt.Sprintf("invalid timeout format: %s", c.Timeout))
	}
	return d, nil
}
