package features

import (
	"fmt"
	"math"
	"sort"

	"github.com/aquapredict-data/feature-engine/internal/grid"
	"github.com/aquapredict-data/feature-engine/internal/spatial"
)

// Matrix is a feature set flattened to per-point rows: one row per grid
// cell, one column per static feature, plus the cell-centre coordinate of
// every point. This is the hand-off format for model training and for the
// spatial block splitter.
type Matrix struct {
	// Names are the column names, sorted; X is row-major with one row per
	// point in row-major cell order.
	Names  []string
	X      [][]float64
	Coords []spatial.Point
}

// Flatten turns the static (2-D) features of the set into a point matrix.
// Cell-centre coordinates are expressed in metres from the grid origin
// using cellSize. Temporal features are not flattened here; the training
// collaborator reduces those itself.
func (s *Set) Flatten(cellSize float64) (*Matrix, error) {
	if len(s.Grids) == 0 {
		return nil, fmt.Errorf("flatten: %w", grid.ErrEmpty)
	}

	names := make([]string, 0, len(s.Grids))
	for n := range s.Grids {
		names = append(names, n)
	}
	sort.Strings(names)

	first := s.Grids[names[0]]
	for _, n := range names[1:] {
		if !first.SameShape(s.Grids[n]) {
			return nil, fmt.Errorf("flatten: %w: feature %q", grid.ErrShapeMismatch, n)
		}
	}

	m := &Matrix{
		Names:  names,
		X:      make([][]float64, 0, first.Rows*first.Cols),
		Coords: make([]spatial.Point, 0, first.Rows*first.Cols),
	}
	for r := 0; r < first.Rows; r++ {
		for c := 0; c < first.Cols; c++ {
			row := make([]float64, len(names))
			for j, n := range names {
				row[j] = s.Grids[n].At(r, c)
			}
			m.X = append(m.X, row)
			m.Coords = append(m.Coords, spatial.Point{
				X: (float64(c) + 0.5) * cellSize,
				Y: (float64(r) + 0.5) * cellSize,
			})
		}
	}
	return m, nil
}

// Standardize z-scores every column in place, ignoring missing cells:
// each feature ends with mean 0 and standard deviation 1 over its valid
// entries. Zero-variance columns are left untranslated rather than divided
// by zero.
func (m *Matrix) Standardize() {
	for j := range m.Names {
		sum, n := 0.0, 0
		for _, row := range m.X {
			if !grid.IsMissing(row[j]) {
				sum += row[j]
				n++
			}
		}
		if n == 0 {
			continue
		}
		mean := sum / float64(n)
		ss := 0.0
		for _, row := range m.X {
			if !grid.IsMissing(row[j]) {
				d := row[j] - mean
				ss += d * d
			}
		}
		std := math.Sqrt(ss / float64(n))
		if std == 0 {
			continue
		}
		for _, row := range m.X {
			if !grid.IsMissing(row[j]) {
				row[j] = (row[j] - mean) / std
			}
		}
	}
}

// DropMissing returns a copy of the matrix without rows containing any
// missing value, keeping coordinates aligned. Kept is the original row
// index of each surviving row.
func (m *Matrix) DropMissing() (out *Matrix, kept []int) {
	out = &Matrix{Names: m.Names}
	for i, row := range m.X {
		ok := true
		for _, v := range row {
			if grid.IsMissing(v) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		out.X = append(out.X, row)
		out.Coords = append(out.Coords, m.Coords[i])
		kept = append(kept, i)
	}
	return out, kept
}
