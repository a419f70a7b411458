package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric exported by the engine.
const Namespace = "lzdata"

// Metrics contains the engine-level metrics shared by every pipeline run
type Metrics struct {
	// Pipeline metrics
	PipelineRuns  *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	StageErrors   *prometheus.CounterVec
	Fetches       *prometheus.CounterVec

	// Gateway metrics
	GatewayRequests *prometheus.CounterVec

	// NATS metrics
	NATSConnected  prometheus.Gauge
	NATSReconnects prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all engine metrics
func NewMetrics() *Metrics {
	return &Metrics{
		PipelineRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "pipeline",
				Name:      "runs_total",
				Help:      "Total number of GetData runs by outcome",
			},
			[]string{"status"},
		),

		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "stage",
				Name:      "duration_seconds",
				Help:      "Duration of one adapter stage in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source"},
		),

		StageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "stage",
				Name:      "errors_total",
				Help:      "Total number of failed stages by error class",
			},
			[]string{"source", "class"},
		),

		Fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "source",
				Name:      "fetches_total",
				Help:      "Adapter data requests by outcome (hit, miss, error)",
			},
			[]string{"source", "outcome"},
		),

		GatewayRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "gateway",
				Name:      "requests_total",
				Help:      "Total number of gateway requests by status code",
			},
			[]string{"code"},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total number of NATS reconnections",
			},
		),
	}
}

func (c *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.PipelineRuns,
		c.StageDuration,
		c.StageErrors,
		c.Fetches,
		c.GatewayRequests,
		c.NATSConnected,
		c.NATSReconnects,
	}
}

// RecordRun increments the pipeline run counter
func (c *Metrics) RecordRun(status string) {
	c.PipelineRuns.WithLabelValues(status).Inc()
}

// RecordStageDuration records how long one stage took
func (c *Metrics) RecordStageDuration(source string, duration time.Duration) {
	c.StageDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordStageError increments the stage error counter
func (c *Metrics) RecordStageError(source, class string) {
	c.StageErrors.WithLabelValues(source, class).Inc()
}

// RecordFetch increments the fetch counter for a source
func (c *Metrics) RecordFetch(source, outcome string) {
	c.Fetches.WithLabelValues(source, outcome).Inc()
}

// RecordGatewayRequest increments the gateway request counter
func (c *Metrics) RecordGatewayRequest(code int) {
	c.GatewayRequests.WithLabelValues(statusLabel(code)).Inc()
}

// RecordNATSStatus updates NATS connection status
func (c *Metrics) RecordNATSStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.NATSConnected.Set(value)
}

// RecordNATSReconnect increments reconnection counter
func (c *Metrics) RecordNATSReconnect() {
	c.NATSReconnects.Inc()
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
