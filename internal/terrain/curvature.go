package terrain

import (
	"fmt"
	"math"

	"github.com/aquapredict-data/feature-engine/internal/grid"
)

// Curvature holds the three standard geomorphometric curvature rasters.
type Curvature struct {
	// Profile is the curvature along the direction of maximum slope;
	// it controls flow acceleration.
	Profile *grid.Grid
	// Plan is the curvature perpendicular to the slope direction;
	// it controls flow convergence.
	Plan *grid.Grid
	// Total is the Laplacian dxx + dyy.
	Total *grid.Grid
}

// CurvatureOf computes profile, plan and total curvature via nested finite
// differences. A small additive stabiliser keeps every denominator away
// from zero, so flat terrain yields zero curvature rather than missing.
func (e *Extractor) CurvatureOf(dem *grid.Grid, cellSize float64) (*Curvature, error) {
	if err := dem.Validate(); err != nil {
		return nil, fmt.Errorf("curvature: %w", err)
	}

	dy, dx := gradient(dem, cellSize)
	dyy, _ := gradient(dy, cellSize)
	dxy, dxx := gradient(dx, cellSize)

	out := &Curvature{
		Profile: grid.New(dem.Rows, dem.Cols),
		Plan:    grid.New(dem.Rows, dem.Cols),
		Total:   grid.New(dem.Rows, dem.Cols),
	}
	for i := range dem.Data {
		gx, gy := dx.Data[i], dy.Data[i]
		gxx, gxy, gyy := dxx.Data[i], dxy.Data[i], dyy.Data[i]
		p := gx*gx + gy*gy

		out.Profile.Data[i] = -(gxx*gx*gx + 2*gxy*gx*gy + gyy*gy*gy) / (p*math.Sqrt(p) + curvatureEps)
		out.Plan.Data[i] = (gxx*gy*gy - 2*gxy*gx*gy + gyy*gx*gx) / (math.Pow(p, 1.5) + curvatureEps)
		out.Total.Data[i] = gxx + gyy
	}
	return out, nil
}
