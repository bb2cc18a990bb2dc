package terrain

import (
	"fmt"
	"math"

	"github.com/aquapredict-data/feature-engine/internal/grid"
	"github.com/aquapredict-data/feature-engine/internal/monitoring"
)

// TWI computes the Topographic Wetness Index
//
//	TWI = ln((flowAccumulation + 1) / (tan(slope) + epsilon))
//
// where slope comes from the DEM gradient. Flow accumulation is offset by 1
// so zero-accumulation cells stay finite, and epsilon bounds the slope
// denominator on flat ground (DefaultTWIEpsilon when epsilon <= 0). Any
// remaining infinity degrades to missing.
func (e *Extractor) TWI(dem, flowAcc *grid.Grid, cellSize, epsilon float64) (*grid.Grid, error) {
	if err := dem.CheckSameShape(flowAcc, "flow_accumulation"); err != nil {
		return nil, fmt.Errorf("twi: %w", err)
	}
	if epsilon <= 0 {
		epsilon = DefaultTWIEpsilon
	}

	slopeRad := e.slopeRadians(dem, cellSize)
	out := grid.New(dem.Rows, dem.Cols)
	for i := range dem.Data {
		out.Data[i] = math.Log((flowAcc.Data[i] + 1) / (math.Tan(slopeRad.Data[i]) + epsilon))
	}

	if n := out.ReplaceInf(); n > 0 {
		monitoring.Logf("twi: %d cells degraded to missing (infinite log ratio)", n)
		if e.metrics != nil {
			e.metrics.CountDegraded("twi", "nonfinite", n)
		}
	}
	return out, nil
}
