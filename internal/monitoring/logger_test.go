package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) { called = true })
	Logf("degraded %d pixels", 3)
	if !called {
		t.Error("custom logger was not called")
	}

	// nil installs a no-op, not a nil func.
	called = false
	SetLogger(nil)
	Logf("should be dropped")
	if called {
		t.Error("no-op logger invoked the previous callback")
	}
	if Logf == nil {
		t.Error("Logf must never be nil")
	}
}

func TestCountDegraded(t *testing.T) {
	m := newMetrics()
	m.CountDegraded("spi_3", "fit_failed", 4)
	m.CountDegraded("spi_3", "fit_failed", 0)
	m.CountDegraded("spi_3", "fit_failed", -2)

	got := testutil.ToFloat64(m.DegradedPixels.WithLabelValues("spi_3", "fit_failed"))
	if got != 4 {
		t.Errorf("degraded counter = %v, want 4", got)
	}
}

func TestPipelineMetricsSingleton(t *testing.T) {
	if PipelineMetrics() != PipelineMetrics() {
		t.Error("PipelineMetrics must return the same instance")
	}
}
