package terrain

import (
	"fmt"
	"math"

	"github.com/aquapredict-data/feature-engine/internal/grid"
)

// DistanceToWater computes the Euclidean distance from every cell to the
// nearest water cell, in metres. waterMask is binary: nonzero marks water.
// A mask with no water at all yields missing everywhere, since "distance to
// nothing" has no meaningful value.
func (e *Extractor) DistanceToWater(waterMask *grid.Grid, cellSize float64) (*grid.Grid, error) {
	if err := waterMask.Validate(); err != nil {
		return nil, fmt.Errorf("distance_to_water: %w", err)
	}

	// Squared distance transform, in cell units.
	d2 := squaredEDT(waterMask)

	out := grid.New(waterMask.Rows, waterMask.Cols)
	for i, v := range d2 {
		if math.IsInf(v, 1) {
			out.Data[i] = grid.Missing()
		} else {
			out.Data[i] = math.Sqrt(v) * cellSize
		}
	}
	return out, nil
}

// squaredEDT is the two-pass exact Euclidean distance transform of
// Felzenszwalb & Huttenlocher: a 1-D lower-envelope pass over columns of
// the row-wise result. Sources (water cells) start at 0, everything else
// at +Inf.
func squaredEDT(mask *grid.Grid) []float64 {
	rows, cols := mask.Rows, mask.Cols
	f := make([]float64, rows*cols)
	for i, v := range mask.Data {
		if v != 0 && !grid.IsMissing(v) {
			f[i] = 0
		} else {
			f[i] = math.Inf(1)
		}
	}

	buf := make([]float64, max(rows, cols))
	// Pass 1: transform each row independently.
	for r := 0; r < rows; r++ {
		row := f[r*cols : (r+1)*cols]
		edt1d(row, buf[:cols])
		copy(row, buf[:cols])
	}
	// Pass 2: transform each column of the row-wise result.
	col := make([]float64, rows)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			col[r] = f[r*cols+c]
		}
		edt1d(col, buf[:rows])
		for r := 0; r < rows; r++ {
			f[r*cols+c] = buf[r]
		}
	}
	return f
}

// edt1d writes the 1-D squared distance transform of f into out.
func edt1d(f, out []float64) {
	n := len(f)
	v := make([]int, n)       // parabola locations
	z := make([]float64, n+1) // envelope boundaries
	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)

	for q := 1; q < n; q++ {
		if math.IsInf(f[q], 1) {
			continue
		}
		for {
			if math.IsInf(f[v[k]], 1) {
				// Degenerate leading parabola; replace it.
				v[k] = q
				break
			}
			s := ((f[q] + float64(q*q)) - (f[v[k]] + float64(v[k]*v[k]))) / float64(2*q-2*v[k])
			if s <= z[k] {
				k--
				continue
			}
			k++
			v[k] = q
			z[k] = s
			z[k+1] = math.Inf(1)
			break
		}
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		d := float64(q - v[k])
		out[q] = d*d + f[v[k]]
	}
}
