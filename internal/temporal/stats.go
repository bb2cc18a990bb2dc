// Package temporal summarizes time-series grids: across-time summary
// statistics, per-pixel linear trend, rolling-window statistics and
// lag-shifted copies.
package temporal

import (
	"errors"
	"fmt"
	"math"

	"github.com/aquapredict-data/feature-engine/internal/grid"
	"github.com/aquapredict-data/feature-engine/internal/monitoring"
	"gonum.org/v1/gonum/stat"
)

// minTrendSamples is the minimum number of valid time points a pixel needs
// for a trend estimate; below it the trend is missing.
const minTrendSamples = 3

// ErrWindow is returned for a non-positive rolling window.
var ErrWindow = errors.New("temporal: rolling window must be >= 1")

// Stats holds across-time summaries of a series, one grid per statistic.
// Missing samples are ignored; a pixel with no valid samples is missing in
// every output.
type Stats struct {
	Mean *grid.Grid
	Std  *grid.Grid
	Min  *grid.Grid
	Max  *grid.Grid
	// Trend is the ordinary-least-squares slope of value against time
	// index. Pixels with fewer than 3 valid time points are missing.
	Trend *grid.Grid
}

// Engine computes temporal summaries. The zero value is usable.
type Engine struct {
	metrics *monitoring.Metrics
}

// NewEngine returns an Engine reporting degradations to the pipeline
// metrics.
func NewEngine() *Engine {
	return &Engine{metrics: monitoring.PipelineMetrics()}
}

// Statistics computes mean, standard deviation, min, max and linear trend
// across the time axis of s.
func (e *Engine) Statistics(s *grid.Series) (*Stats, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("temporal statistics: %w", err)
	}

	out := &Stats{
		Mean:  grid.New(s.Rows, s.Cols),
		Std:   grid.New(s.Rows, s.Cols),
		Min:   grid.New(s.Rows, s.Cols),
		Max:   grid.New(s.Rows, s.Cols),
		Trend: grid.New(s.Rows, s.Cols),
	}

	times := make([]float64, 0, s.Steps)
	vals := make([]float64, 0, s.Steps)
	degradedTrend := 0
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			times, vals = times[:0], vals[:0]
			sum, lo, hi := 0.0, math.Inf(1), math.Inf(-1)
			for t := 0; t < s.Steps; t++ {
				v := s.At(t, r, c)
				if grid.IsMissing(v) {
					continue
				}
				times = append(times, float64(t))
				vals = append(vals, v)
				sum += v
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}

			if len(vals) == 0 {
				out.Mean.Set(r, c, grid.Missing())
				out.Std.Set(r, c, grid.Missing())
				out.Min.Set(r, c, grid.Missing())
				out.Max.Set(r, c, grid.Missing())
				out.Trend.Set(r, c, grid.Missing())
				continue
			}

			mean := sum / float64(len(vals))
			ss := 0.0
			for _, v := range vals {
				d := v - mean
				ss += d * d
			}
			out.Mean.Set(r, c, mean)
			out.Std.Set(r, c, math.Sqrt(ss/float64(len(vals))))
			out.Min.Set(r, c, lo)
			out.Max.Set(r, c, hi)

			if len(vals) < minTrendSamples {
				out.Trend.Set(r, c, grid.Missing())
				degradedTrend++
				continue
			}
			_, slope := stat.LinearRegression(times, vals, nil, false)
			out.Trend.Set(r, c, slope)
		}
	}

	if degradedTrend > 0 {
		monitoring.Logf("temporal statistics: trend missing at %d pixels (<%d valid samples)", degradedTrend, minTrendSamples)
		if e.metrics != nil {
			e.metrics.CountDegraded("trend", "insufficient_samples", degradedTrend)
		}
	}
	return out, nil
}

// RollingStats computes the trailing rolling mean and sample standard
// deviation of window steps. Partial windows use however many valid samples
// are in range; the std needs at least two and is missing below that.
func (e *Engine) RollingStats(s *grid.Series, window int) (mean, std *grid.Series, err error) {
	if err := s.Validate(); err != nil {
		return nil, nil, fmt.Errorf("rolling stats: %w", err)
	}
	if window < 1 {
		return nil, nil, fmt.Errorf("%w: got %d", ErrWindow, window)
	}

	mean = grid.NewSeries(s.Steps, s.Rows, s.Cols)
	std = grid.NewSeries(s.Steps, s.Rows, s.Cols)
	layer := s.Rows * s.Cols
	for t := 0; t < s.Steps; t++ {
		lo := t - window + 1
		if lo < 0 {
			lo = 0
		}
		for i := 0; i < layer; i++ {
			sum, n := 0.0, 0
			for tt := lo; tt <= t; tt++ {
				if v := s.Data[tt*layer+i]; !grid.IsMissing(v) {
					sum += v
					n++
				}
			}
			idx := t*layer + i
			if n == 0 {
				mean.Data[idx] = grid.Missing()
				std.Data[idx] = grid.Missing()
				continue
			}
			m := sum / float64(n)
			mean.Data[idx] = m
			if n < 2 {
				std.Data[idx] = grid.Missing()
				continue
			}
			ss := 0.0
			for tt := lo; tt <= t; tt++ {
				if v := s.Data[tt*layer+i]; !grid.IsMissing(v) {
					d := v - m
					ss += d * d
				}
			}
			std.Data[idx] = math.Sqrt(ss / float64(n-1))
		}
	}
	return mean, std, nil
}
