// Package tlsutil builds tls.Configs for upstream data clients and the gateway.
package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/statgen/locuszoom-sub005/errors"
)

// ClientConfig describes how an HTTP source connects to its server.
type ClientConfig struct {
	// CAFiles are trusted in addition to the system pool.
	CAFiles []string `json:"ca_files,omitempty" yaml:"ca_files,omitempty"`
	// CertFile and KeyFile hold a client certificate for mutual TLS.
	CertFile string `json:"cert_file,omitempty" yaml:"cert_file,omitempty"`
	KeyFile  string `json:"key_file,omitempty" yaml:"key_file,omitempty"`
	// MinVersion is "1.2" (default) or "1.3".
	MinVersion         string `json:"min_version,omitempty" yaml:"min_version,omitempty"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify,omitempty"`
}

// IsZero reports whether the default transport settings apply.
func (c ClientConfig) IsZero() bool {
	return len(c.CAFiles) == 0 && c.CertFile == "" && c.KeyFile == "" &&
		c.MinVersion == "" && !c.InsecureSkipVerify
}

// ServerConfig describes the gateway's listener.
type ServerConfig struct {
	CertFile   string `json:"cert_file" yaml:"cert_file"`
	KeyFile    string `json:"key_file" yaml:"key_file"`
	MinVersion string `json:"min_version,omitempty" yaml:"min_version,omitempty"`
	// ClientCAFiles, when set, require clients to present a certificate
	// signed by one of them.
	ClientCAFiles []string `json:"client_ca_files,omitempty" yaml:"client_ca_files,omitempty"`
}

// LoadClientTLSConfig builds a client config. The system CA pool is always
// trusted; CAFiles add to it.
func LoadClientTLSConfig(cfg ClientConfig) (*tls.Config, error) {
	minVersion, err := parseTLSVersion(cfg.MinVersion)
	if err != nil {
		return nil, errors.WrapInvalid(err, "tlsutil", "LoadClientTLSConfig", "min version")
	}

	rootCAs, err := x509.SystemCertPool()
	if err != nil {
		rootCAs = x509.NewCertPool()
	}
	if err := appendPEMFiles(rootCAs, cfg.CAFiles); err != nil {
		return nil, errors.WrapInvalid(err, "tlsutil", "LoadClientTLSConfig", "load CA files")
	}

	tlsConfig := &tls.Config{
		MinVersion:         minVersion,
		RootCAs:            rootCAs,
		InsecureSkipVerify: cfg.InsecureSkipVerify, // #nosec G402 - operator opt-in
	}

	if cfg.CertFile != "" || cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, errors.WrapInvalid(err, "tlsutil", "LoadClientTLSConfig", "load client certificate")
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	return tlsConfig, nil
}

// LoadServerTLSConfig builds a server config, with client verification when
// ClientCAFiles is set.
func LoadServerTLSConfig(cfg ServerConfig) (*tls.Config, error) {
	minVersion, err := parseTLSVersion(cfg.MinVersion)
	if err != nil {
		return nil, errors.WrapInvalid(err, "tlsutil", "LoadServerTLSConfig", "min version")
	}

	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, errors.WrapFatal(err, "tlsutil", "LoadServerTLSConfig", "load certificate")
	}
	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   minVersion,
	}

	if len(cfg.ClientCAFiles) > 0 {
		clientCAs := x509.NewCertPool()
		if err := appendPEMFiles(clientCAs, cfg.ClientCAFiles); err != nil {
			return nil, errors.WrapFatal(err, "tlsutil", "LoadServerTLSConfig", "load client CA files")
		}
		tlsConfig.ClientCAs = clientCAs
		tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return tlsConfig, nil
}

func appendPEMFiles(pool *x509.CertPool, files []string) error {
	for _, file := range files {
		caPEM, err := os.ReadFile(file) // #nosec G304 - path from configuration
		if err != nil {
			return fmt.Errorf("read CA file %s: %w", file, err)
		}
		if !pool.AppendCertsFromPEM(caPEM) {
			return fmt.Errorf("parse CA certificate from %s: invalid PEM data", file)
		}
	}
	return nil
}

// parseTLSVersion maps "", "1.2" and "1.3" to crypto/tls constants.
func parseTLSVersion(version string) (uint16, error) {
	switch version {
	case "", "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported TLS version %q (must be \"1.2\" or \"1.3\")", version)
	}
}
