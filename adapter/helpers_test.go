package adapter

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/statgen/locuszoom-sub005/metric"
)

func counterValue(t *testing.T, m *metric.Metrics, source, outcome string) float64 {
	t.Helper()
	return testutil.ToFloat64(m.Fetches.WithLabelValues(source, outcome))
}
