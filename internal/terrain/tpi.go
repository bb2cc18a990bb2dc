package terrain

import (
	"fmt"

	"github.com/aquapredict-data/feature-engine/internal/grid"
)

// TPI computes the Topographic Position Index: elevation minus the mean
// elevation of the window x window neighborhood. Edges are handled by
// symmetric reflection so the neighborhood mean is always taken over a full
// kernel. Positive TPI marks ridges, negative marks valleys.
func (e *Extractor) TPI(dem *grid.Grid, window int) (*grid.Grid, error) {
	if err := dem.Validate(); err != nil {
		return nil, fmt.Errorf("tpi: %w", err)
	}
	if window < 3 || window%2 == 0 {
		return nil, fmt.Errorf("%w: got %d", ErrWindowSize, window)
	}

	mean := uniformFilter(dem, window)
	out := grid.New(dem.Rows, dem.Cols)
	for i := range dem.Data {
		out.Data[i] = dem.Data[i] - mean.Data[i]
	}
	return out, nil
}

// uniformFilter convolves g with a normalised window x window box kernel
// using symmetric boundary extension (edge cells mirrored, edge included).
func uniformFilter(g *grid.Grid, window int) *grid.Grid {
	half := window / 2
	norm := 1.0 / float64(window*window)
	out := grid.New(g.Rows, g.Cols)
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			sum := 0.0
			for dr := -half; dr <= half; dr++ {
				rr := reflect(r+dr, g.Rows)
				for dc := -half; dc <= half; dc++ {
					sum += g.At(rr, reflect(c+dc, g.Cols))
				}
			}
			out.Set(r, c, sum*norm)
		}
	}
	return out
}

// reflect maps an out-of-range index back into [0, n) by symmetric
// (half-sample) reflection: -1 -> 0, -2 -> 1, n -> n-1.
func reflect(i, n int) int {
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - 1 - i
		}
	}
	return i
}
