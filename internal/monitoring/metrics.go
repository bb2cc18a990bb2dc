package monitoring

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters for the feature pipeline. The
// numerically delicate stages degrade individual pixels to missing instead
// of failing; these counters make that degradation observable so data
// quality drift shows up in dashboards rather than only in model scores.
type Metrics struct {
	// DegradedPixels counts pixels whose output was forced to missing,
	// labelled by stage (spi, spei, trend, twi, ...) and cause
	// (all_missing, insufficient_samples, fit_failed, nonfinite).
	DegradedPixels *prometheus.CounterVec

	// FeatureRuns counts facade invocations by outcome (ok, error).
	FeatureRuns *prometheus.CounterVec

	// FeaturesGenerated counts produced feature layers by feature name.
	FeaturesGenerated *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// PipelineMetrics returns the process-wide metrics set, registering it with
// the default Prometheus registry on first use.
func PipelineMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = newMetrics()
		prometheus.MustRegister(
			metrics.DegradedPixels,
			metrics.FeatureRuns,
			metrics.FeaturesGenerated,
		)
	})
	return metrics
}

func newMetrics() *Metrics {
	return &Metrics{
		DegradedPixels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feature_engine",
			Name:      "degraded_pixels_total",
			Help:      "Pixels whose output degraded to missing, by stage and cause.",
		}, []string{"stage", "cause"}),
		FeatureRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feature_engine",
			Name:      "runs_total",
			Help:      "Feature generation runs by outcome.",
		}, []string{"outcome"}),
		FeaturesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feature_engine",
			Name:      "features_generated_total",
			Help:      "Feature layers produced, by feature name.",
		}, []string{"feature"}),
	}
}

// CountDegraded adds n degraded pixels for the given stage and cause. A
// no-op for n <= 0 so callers can pass raw tallies.
func (m *Metrics) CountDegraded(stage, cause string, n int) {
	if n <= 0 {
		return
	}
	m.DegradedPixels.WithLabelValues(stage, cause).Add(float64(n))
}
