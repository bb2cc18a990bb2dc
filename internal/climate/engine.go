package climate

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/aquapredict-data/feature-engine/internal/grid"
	"github.com/aquapredict-data/feature-engine/internal/monitoring"
	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution selects the probability model fitted per pixel when
// standardizing an index.
type Distribution string

const (
	// DistGamma fits a gamma distribution to the strictly positive samples.
	// The standard choice for SPI on precipitation totals.
	DistGamma Distribution = "gamma"
	// DistNormal fits a normal distribution by sample moments. Used for
	// SPEI, whose water-balance input may be negative.
	DistNormal Distribution = "normal"
)

// Structural errors for the index engine.
var (
	ErrDistribution = errors.New("climate: unsupported distribution")
	ErrTimescale    = errors.New("climate: timescale must be >= 1")
)

// minFitSamples is the minimum number of valid observations a pixel needs
// before a distribution fit is attempted. Below this the pixel degrades to
// missing rather than fabricating an index from noise.
const minFitSamples = 10

// DegradeStats tallies pixels that degraded to missing during one index
// computation, by cause. NonFinite counts individual cells, the other
// fields whole pixels.
type DegradeStats struct {
	AllMissing          int
	InsufficientSamples int
	FitFailed           int
	NonFinite           int
}

// Total returns the sum of all degradation tallies.
func (d DegradeStats) Total() int {
	return d.AllMissing + d.InsufficientSamples + d.FitFailed + d.NonFinite
}

// IndexEngine computes standardized climate indices. Per-pixel fits are
// independent, so the engine fans rows out across a worker pool; failure
// containment stays per pixel regardless of the worker count.
type IndexEngine struct {
	workers int
	metrics *monitoring.Metrics
}

// NewIndexEngine returns an engine using one worker per CPU.
func NewIndexEngine() *IndexEngine {
	return &IndexEngine{workers: runtime.NumCPU(), metrics: monitoring.PipelineMetrics()}
}

// NewIndexEngineWorkers returns an engine with an explicit worker count,
// mainly for tests. workers < 1 means one worker.
func NewIndexEngineWorkers(workers int) *IndexEngine {
	if workers < 1 {
		workers = 1
	}
	return &IndexEngine{workers: workers}
}

// SPI computes the Standardized Precipitation Index at the given timescale
// (in time steps). For timescale > 1 the input is first replaced by its
// trailing rolling sum. Each pixel's series is fitted with dist and mapped
// through the fitted CDF then the standard-normal quantile (probit).
func (e *IndexEngine) SPI(precip *grid.Series, timescale int, dist Distribution) (*grid.Series, DegradeStats, error) {
	return e.standardize("spi", precip, timescale, dist)
}

// SPEI computes the Standardized Precipitation-Evapotranspiration Index:
// the SPI procedure applied to the water-balance series precip - pet with a
// normal distribution.
func (e *IndexEngine) SPEI(precip, pet *grid.Series, timescale int) (*grid.Series, DegradeStats, error) {
	wb, err := WaterBalance(precip, pet)
	if err != nil {
		return nil, DegradeStats{}, fmt.Errorf("spei: %w", err)
	}
	return e.standardize("spei", wb, timescale, DistNormal)
}

func (e *IndexEngine) standardize(stage string, s *grid.Series, timescale int, dist Distribution) (*grid.Series, DegradeStats, error) {
	if err := s.Validate(); err != nil {
		return nil, DegradeStats{}, fmt.Errorf("%s: %w", stage, err)
	}
	if timescale < 1 {
		return nil, DegradeStats{}, fmt.Errorf("%s: %w: got %d", stage, ErrTimescale, timescale)
	}
	if dist != DistGamma && dist != DistNormal {
		return nil, DegradeStats{}, fmt.Errorf("%s: %w: %q", stage, ErrDistribution, dist)
	}

	rolled := s
	if timescale > 1 {
		var err error
		if rolled, err = RollingSum(s, timescale); err != nil {
			return nil, DegradeStats{}, fmt.Errorf("%s: %w", stage, err)
		}
	}

	out := grid.NewSeriesFill(rolled.Steps, rolled.Rows, rolled.Cols, grid.Missing())

	var allMissing, insufficient, fitFailed, nonFinite atomic.Int64

	// Rows are independent units of work; each worker standardizes whole
	// rows with its own scratch buffers.
	rowCh := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pixel := make([]float64, 0, rolled.Steps)
			index := make([]float64, rolled.Steps)
			valid := make([]float64, 0, rolled.Steps)
			for r := range rowCh {
				for c := 0; c < rolled.Cols; c++ {
					pixel = rolled.Pixel(r, c, pixel[:0])
					switch standardizePixel(pixel, dist, valid[:0], index) {
					case pixelOK:
						out.SetPixel(r, c, index)
					case pixelAllMissing:
						allMissing.Add(1)
					case pixelInsufficient:
						insufficient.Add(1)
					case pixelFitFailed:
						fitFailed.Add(1)
					}
				}
			}
		}()
	}
	for r := 0; r < rolled.Rows; r++ {
		rowCh <- r
	}
	close(rowCh)
	wg.Wait()

	nonFinite.Add(int64(out.ReplaceInf()))

	stats := DegradeStats{
		AllMissing:          int(allMissing.Load()),
		InsufficientSamples: int(insufficient.Load()),
		FitFailed:           int(fitFailed.Load()),
		NonFinite:           int(nonFinite.Load()),
	}
	if stats.Total() > 0 {
		monitoring.Logf("%s-%d: degraded pixels: all_missing=%d insufficient=%d fit_failed=%d nonfinite_cells=%d",
			stage, timescale, stats.AllMissing, stats.InsufficientSamples, stats.FitFailed, stats.NonFinite)
	}
	if e.metrics != nil {
		e.metrics.CountDegraded(stage, "all_missing", stats.AllMissing)
		e.metrics.CountDegraded(stage, "insufficient_samples", stats.InsufficientSamples)
		e.metrics.CountDegraded(stage, "fit_failed", stats.FitFailed)
		e.metrics.CountDegraded(stage, "nonfinite", stats.NonFinite)
	}
	return out, stats, nil
}

type pixelOutcome int

const (
	pixelOK pixelOutcome = iota
	pixelAllMissing
	pixelInsufficient
	pixelFitFailed
)

// standardizePixel fits dist to the valid samples of series and writes the
// probit-transformed index into out (same length as series). On any
// degradation the whole pixel stays missing and the outcome says why.
func standardizePixel(series []float64, dist Distribution, valid []float64, out []float64) pixelOutcome {
	for _, v := range series {
		if !grid.IsMissing(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return pixelAllMissing
	}
	if len(valid) < minFitSamples {
		return pixelInsufficient
	}

	cdf, ok := fitCDF(valid, dist)
	if !ok {
		return pixelFitFailed
	}

	for i, v := range series {
		if grid.IsMissing(v) {
			out[i] = grid.Missing()
			continue
		}
		p := cdf(v)
		switch {
		case math.IsNaN(p):
			out[i] = grid.Missing()
		case p <= 0:
			out[i] = math.Inf(-1) // swept to missing by ReplaceInf
		case p >= 1:
			out[i] = math.Inf(1)
		default:
			out[i] = distuv.UnitNormal.Quantile(p)
		}
	}
	return pixelOK
}

// fitCDF fits the requested distribution and returns its CDF, or ok=false
// when the samples cannot support a fit (zero variance, no positive mass,
// non-finite moments).
func fitCDF(valid []float64, dist Distribution) (func(float64) float64, bool) {
	switch dist {
	case DistGamma:
		alpha, beta, ok := fitGammaThom(valid)
		if !ok {
			return nil, false
		}
		g := distuv.Gamma{Alpha: alpha, Beta: beta}
		return func(x float64) float64 {
			if x <= 0 {
				return 0 // gamma support is (0, inf)
			}
			return g.CDF(x)
		}, true
	case DistNormal:
		mean, std := moments(valid)
		if std <= 0 || !isFinite(mean) || !isFinite(std) {
			return nil, false
		}
		n := distuv.Normal{Mu: mean, Sigma: std}
		return n.CDF, true
	default:
		return nil, false
	}
}

// fitGammaThom estimates gamma shape and rate from the strictly positive
// samples using Thom's maximum-likelihood approximation, the conventional
// fit for SPI. Constant samples make the log-moment statistic collapse to
// zero, which reports as a failed fit.
func fitGammaThom(samples []float64) (alpha, beta float64, ok bool) {
	n := 0
	sum, sumLog := 0.0, 0.0
	for _, v := range samples {
		if v <= 0 {
			continue
		}
		n++
		sum += v
		sumLog += math.Log(v)
	}
	if n < minFitSamples {
		return 0, 0, false
	}
	mean := sum / float64(n)
	a := math.Log(mean) - sumLog/float64(n)
	if !isFinite(a) || a <= 0 {
		return 0, 0, false
	}
	alpha = (1 + math.Sqrt(1+4*a/3)) / (4 * a)
	beta = alpha / mean // rate
	if !isFinite(alpha) || !isFinite(beta) || alpha <= 0 || beta <= 0 {
		return 0, 0, false
	}
	return alpha, beta, true
}

func moments(samples []float64) (mean, std float64) {
	n := float64(len(samples))
	sum := 0.0
	for _, v := range samples {
		sum += v
	}
	mean = sum / n
	ss := 0.0
	for _, v := range samples {
		d := v - mean
		ss += d * d
	}
	// Population std, matching the reference standardization.
	return mean, math.Sqrt(ss / n)
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
