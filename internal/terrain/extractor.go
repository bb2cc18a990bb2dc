// Package terrain derives terrain-descriptive rasters from a digital
// elevation model: slope, aspect, topographic position index, curvature,
// topographic wetness index, and distance to water.
//
// All derivations are total over well-formed grids. Numerically degenerate
// cells (flat ground, log of zero ratios) resolve to missing values rather
// than errors; only structural problems such as shape mismatches are
// reported to the caller.
package terrain

import (
	"errors"
	"fmt"
	"math"

	"github.com/aquapredict-data/feature-engine/internal/grid"
	"github.com/aquapredict-data/feature-engine/internal/monitoring"
)

// ErrWindowSize is returned when a neighborhood window is not a positive
// odd integer of at least 3.
var ErrWindowSize = errors.New("terrain: window size must be an odd integer >= 3")

// DefaultTWIEpsilon bounds the TWI slope denominator away from zero on
// perfectly flat ground.
const DefaultTWIEpsilon = 0.001

// curvatureEps stabilises curvature denominators on flat terrain.
const curvatureEps = 1e-10

// Extractor computes terrain features from elevation grids. The zero value
// is usable; NewExtractor additionally wires the pipeline metrics.
type Extractor struct {
	metrics *monitoring.Metrics
}

// NewExtractor returns an Extractor reporting degradations to the
// process-wide pipeline metrics.
func NewExtractor() *Extractor {
	return &Extractor{metrics: monitoring.PipelineMetrics()}
}

// SlopeAspect computes slope and aspect in degrees from a DEM using
// central-difference gradients scaled by cellSize (metres per cell).
// Aspect is normalised to [0, 360).
func (e *Extractor) SlopeAspect(dem *grid.Grid, cellSize float64) (slope, aspect *grid.Grid, err error) {
	if err := dem.Validate(); err != nil {
		return nil, nil, fmt.Errorf("slope/aspect: %w", err)
	}
	dy, dx := gradient(dem, cellSize)

	slope = grid.New(dem.Rows, dem.Cols)
	aspect = grid.New(dem.Rows, dem.Cols)
	for i := range dem.Data {
		gx, gy := dx.Data[i], dy.Data[i]
		slope.Data[i] = math.Atan(math.Hypot(gx, gy)) * 180 / math.Pi
		a := math.Atan2(-gy, gx) * 180 / math.Pi
		aspect.Data[i] = math.Mod(a+360, 360)
	}
	return slope, aspect, nil
}

// slopeRadians is the shared slope kernel used by TWI.
func (e *Extractor) slopeRadians(dem *grid.Grid, cellSize float64) *grid.Grid {
	dy, dx := gradient(dem, cellSize)
	out := grid.New(dem.Rows, dem.Cols)
	for i := range dem.Data {
		out.Data[i] = math.Atan(math.Hypot(dx.Data[i], dy.Data[i]))
	}
	return out
}

// gradient computes per-axis first derivatives of g with spacing h:
// central differences in the interior, one-sided differences on the edges.
// dy is the derivative along rows (north-south), dx along columns.
func gradient(g *grid.Grid, h float64) (dy, dx *grid.Grid) {
	dy = grid.New(g.Rows, g.Cols)
	dx = grid.New(g.Rows, g.Cols)
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			dy.Set(r, c, diffAlong(g, r, c, true, h))
			dx.Set(r, c, diffAlong(g, r, c, false, h))
		}
	}
	return dy, dx
}

func diffAlong(g *grid.Grid, r, c int, rowAxis bool, h float64) float64 {
	n := g.Cols
	i := c
	if rowAxis {
		n = g.Rows
		i = r
	}
	at := func(j int) float64 {
		if rowAxis {
			return g.At(j, c)
		}
		return g.At(r, j)
	}
	switch {
	case n == 1:
		return 0
	case i == 0:
		return (at(1) - at(0)) / h
	case i == n-1:
		return (at(n-1) - at(n-2)) / h
	default:
		return (at(i+1) - at(i-1)) / (2 * h)
	}
}
