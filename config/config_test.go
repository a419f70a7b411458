package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/pkg/cache"
)

const yamlConfig = `
sources:
  assoc:
    type: association
    url: https://portaldev.sph.umich.edu/api/v1/statistic/single/
    params:
      source: 45
      sort: true
  ld:
    type: ld
    url: https://portaldev.sph.umich.edu/ld/
    timeout: 10s
    cache:
      strategy: lru
      max_size: 8
nats:
  urls: ["nats://localhost:4222"]
  password: hunter2
metrics:
  enabled: true
  port: 9191
gateway:
  address: ":9000"
`

func noEnv(string) (string, bool) { return "", false }

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_LoadYAML(t *testing.T) {
	path := writeFile(t, "lzdata.yaml", yamlConfig)

	cfg, err := NewLoader().WithEnv(noEnv).LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"assoc", "ld"}, cfg.SourceIDs())
	assert.Equal(t, "association", cfg.Sources["assoc"].Type)
	assert.Equal(t, 45, cfg.Sources["assoc"].Params.Int("source", 0))
	assert.True(t, cfg.Sources["assoc"].Params.Bool("sort", false))
	assert.Equal(t, cache.StrategySingle, cfg.Sources["assoc"].CacheConfig().Strategy)
	assert.Equal(t, cache.Config{Strategy: cache.StrategyLRU, MaxSize: 8}, cfg.Sources["ld"].CacheConfig())
	assert.Equal(t, "10s", cfg.Sources["ld"].Timeout)

	assert.True(t, cfg.NATS.Enabled())
	assert.Equal(t, 9191, cfg.Metrics.Port)
	assert.Equal(t, "/metrics", cfg.Metrics.Path, "unset fields keep defaults")
	assert.Equal(t, ":9000", cfg.Gateway.Address)
	assert.Equal(t, "/api/v1", cfg.Gateway.Prefix)
}

func TestLoader_LoadJSON(t *testing.T) {
	path := writeFile(t, "lzdata.json", `{
		"sources": {
			"genes": {"type": "static", "params": {"data": {"gene_name": ["TCF7L2"]}}}
		}
	}`)

	cfg, err := NewLoader().WithEnv(noEnv).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "static", cfg.Sources["genes"].Type)
	assert.False(t, cfg.NATS.Enabled())
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoader_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no sources", `{}`},
		{"empty sources", `{"sources": {}}`},
		{"source without type", `{"sources": {"a": {"url": "http://x"}}}`},
		{"unknown top-level key", `{"sources": {"a": {"type": "static"}}, "platform": {}}`},
		{"unknown cache strategy", `{"sources": {"a": {"type": "static", "cache": {"strategy": "fifo"}}}}`},
		{"metrics port out of range", `{"sources": {"a": {"type": "static"}}, "metrics": {"port": 70000}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().WithEnv(noEnv).Load([]byte(tt.doc), FormatJSON)
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
		})
	}
}

func TestLoader_ValidateAfterSchema(t *testing.T) {
	_, err := NewLoader().WithEnv(noEnv).Load([]byte(`{"sources": {"a": {"type": "static", "timeout": "soon"}}}`), FormatJSON)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	_, err = NewLoader().WithEnv(noEnv).Load([]byte(`{"sources": {"a": {"type": "static", "cache": {"strategy": "lru"}}}}`), FormatJSON)
	require.Error(t, err, "lru needs a positive max_size")
}

func TestLoader_EnvOverrides(t *testing.T) {
	env := map[string]string{
		"LZDATA_NATS_URLS":       "nats://a:4222,nats://b:4222",
		"LZDATA_GATEWAY_ADDRESS": "127.0.0.1:8181",
		"LZDATA_METRICS_PORT":    "9300",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg, err := NewLoader().WithEnv(lookup).Load([]byte(`{"sources": {"a": {"type": "static"}}}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"nats://a:4222", "nats://b:4222"}, cfg.NATS.URLs)
	assert.Equal(t, "127.0.0.1:8181", cfg.Gateway.Address)
	assert.Equal(t, 9300, cfg.Metrics.Port)
	assert.True(t, cfg.Metrics.Enabled)

	env["LZDATA_METRICS_PORT"] = "nine"
	_, err = NewLoader().WithEnv(lookup).Load([]byte(`{"sources": {"a": {"type": "static"}}}`), FormatJSON)
	assert.Error(t, err)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := NewLoader().LoadFile("lzdata.toml")
	assert.True(t, errors.IsInvalid(err))

	_, err = NewLoader().LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := writeFile(t, "broken.yaml", "sources: [unclosed")
	_, err = NewLoader().WithEnv(noEnv).LoadFile(path)
	assert.True(t, errors.IsInvalid(err))
}

func TestValidateJSONDepth(t *testing.T) {
	assert.NoError(t, validateJSONDepth([]byte(`{"a": ["[{", {"b": 1}]}`)))
	assert.Error(t, validateJSONDepth([]byte(strings.Repeat("[", maxJSONDepth+1)+strings.Repeat("]", maxJSONDepth+1))))
	assert.Error(t, validateJSONDepth([]byte(`{"a": 1`)))
}

func TestConfig_StringRedactsCredentials(t *testing.T) {
	cfg := Default()
	cfg.NATS.Password = "hunter2"
	cfg.NATS.Token = "s3cret"

	out := cfg.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "s3cret")
	assert.Contains(t, out, "[REDACTED]")
	assert.Equal(t, "hunter2", cfg.NATS.Password, "String must not modify the config")
}
