package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/statgen/locuszoom-sub005/errors"
)

// Format is a configuration file encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errors.WrapInvalid(errors.ErrInvalidConfig, "Loader", "FormatFromPath",
			fmt.Sprintf("unsupported config file extension %q", filepath.Ext(path)))
	}
}

// Loader reads a configuration file, validates it against the embedded
// schema, applies environment overrides and runs Config.Validate.
type Loader struct {
	envPrefix string
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a loader reading LZDATA_* overrides from the environment.
func NewLoader() *Loader {
	return &Loader{envPrefix: "LZDATA", lookupEnv: os.LookupEnv}
}

// WithEnv replaces the environment lookup, for tests.
func (l *Loader) WithEnv(lookup func(string) (string, bool)) *Loader {
	l.lookupEnv = lookup
	return l
}

// LoadFile loads the configuration at path.
func (l *Loader) LoadFile(path string) (*Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := safeReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Loader", "LoadFile", fmt.Sprintf("read %s", path))
	}
	cfg, err := l.Load(data, format)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Load decodes data in the given format.
func (l *Loader) Load(data []byte, format Format) (*Config, error) {
	doc, err := toJSON(data, format)
	if err != nil {
		return nil, err
	}
	if err := validateJSONDepth(doc); err != nil {
		return nil, errors.WrapInvalid(err, "Loader", "Load", "json depth check")
	}
	if err := ValidateSchema(doc); err != nil {
		return nil, err
	}

	cfg := Default()
	dec := json.NewDecoder(bytes.NewReader(doc))
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.WrapInvalid(err, "Loader", "Load", "decode config")
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// toJSON normalizes the document to JSON so one schema covers both formats.
func toJSON(data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return data, nil
	case FormatYAML:
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", "parse yaml")
		}
		if doc == nil {
			doc = map[string]any{}
		}
		out, err := json.Marshal(doc)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", "convert yaml to json")
		}
		return out, nil
	default:
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Loader", "Load",
			fmt.Sprintf("unsupported format %q", format))
	}
}

func (l *Loader) env(name string) (string, bool, error) {
	key := l.envPrefix + "_" + name
	val, ok := l.lookupEnv(key)
	if !ok || val == "" {
		return "", false, nil
	}
	if err := validateEnvVar(key, val); err != nil {
		return "", false, errors.WrapInvalid(err, "Loader", "applyEnvOverrides", key)
	}
	return val, true, nil
}

func (l *Loader) applyEnvOverrides(cfg *Config) error {
	overrides := []struct {
		name  string
		apply func(string) error
	}{
		{"NATS_URLS", func(v string) error { cfg.NATS.URLs = strings.Split(v, ","); return nil }},
		{"NATS_USERNAME", func(v string) error { cfg.NATS.Username = v; return nil }},
		{"NATS_PASSWORD", func(v string) error { cfg.NATS.Password = v; return nil }},
		{"NATS_TOKEN", func(v string) error { cfg.NATS.Token = v; return nil }},
		{"GATEWAY_ADDRESS", func(v string) error { cfg.Gateway.Address = v; return nil }},
		{"METRICS_PORT", func(v string) error {
			port, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			cfg.Metrics.Port = port
			cfg.Metrics.Enabled = true
			return nil
		}},
	}

	for _, o := range overrides {
		val, ok, err := l.env(o.name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := o.apply(val); err != nil {
			return errors.WrapInvalid(err, "Loader", "applyEnvOverrides", l.envPrefix+"_"+o.name)
		}
	}
	return nil
}
