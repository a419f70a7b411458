package adapter

import (
	"log/slog"

	"github.com/statgen/locuszoom-sub005/metric"
	"github.com/statgen/locuszoom-sub005/natsclient"
)

// Dependencies provides the shared infrastructure adapters are built with.
type Dependencies struct {
	Logger          *slog.Logger            // Structured logger (can be nil, defaults to slog.Default())
	MetricsRegistry *metric.MetricsRegistry // Metrics registry for Prometheus (can be nil)
	NATSClient      *natsclient.Client      // NATS client for request/reply sources (can be nil)
}

// GetLogger returns the configured logger or a default logger if none is provided
func (d *Dependencies) GetLogger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// GetLoggerWithSource returns a logger configured with source context
func (d *Dependencies) GetLoggerWithSource(id string) *slog.Logger {
	return d.GetLogger().With("source", id)
}
