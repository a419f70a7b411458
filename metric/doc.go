// Package metric provides Prometheus-based metrics for the data-chain engine
// and an HTTP server exposing them.
//
// A single MetricsRegistry owns the engine metrics (pipeline runs, stage
// durations and errors, adapter fetch outcomes, gateway requests and NATS
// connectivity) and accepts registrations from other components, such as the
// per-adapter caches in pkg/cache:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//	go func() {
//		if err := server.Start(); err != nil {
//			slog.Error("metrics server failed", "error", err)
//		}
//	}()
//
//	registry.CoreMetrics().RecordRun("ok")
//
// Registration is keyed by owner and metric name; registering the same pair
// twice returns an invalid-class error rather than panicking.
package metric
