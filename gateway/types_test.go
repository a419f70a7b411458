package gateway_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statgen/locuszoom-sub005/errors"
	"github.com/statgen/locuszoom-sub005/gateway"
	"github.com/statgen/locuszoom-sub005/pkg/tlsutil"
)

func TestConfig_ValidateFillsDefaults(t *testing.T) {
	cfg := gateway.Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, gateway.DefaultConfig(), cfg)

	timeout, err := cfg.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, timeout)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      gateway.Config
		expectError bool
	}{
		{"defaults", gateway.DefaultConfig(), false},
		{"custom timeout", gateway.Config{Timeout: "2s"}, false},
		{"bad timeout", gateway.Config{Timeout: "soon"}, true},
		{"timeout too short", gateway.Config{Timeout: "1ms"}, true},
		{"timeout too long", gateway.Config{Timeout: "1h"}, true},
		{"relative prefix", gateway.Config{Prefix: "api"}, true},
		{"negative max fields", gateway.Config{MaxFields: -1}, true},
		{"cors without origins", gateway.Config{EnableCORS: true}, true},
		{"cors with origins", gateway.Config{EnableCORS: true, CORSOrigins: []string{"https://my.locuszoom.org"}}, false},
		{"tls without key", gateway.Config{TLS: &tlsutil.ServerConfig{CertFile: "cert.pem"}}, true},
		{"tls", gateway.Config{TLS: &tlsutil.ServerConfig{CertFile: "cert.pem", KeyFile: "key.pem"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config
			err := cfg.Validate()
			if tt.expectError {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}
