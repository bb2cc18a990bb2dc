// Package grid provides the dense raster types shared by the feature
// engineering pipeline: a 2-D Grid for single spatial layers and a 3-D
// Series for time-indexed stacks of layers.
//
// Missing or invalid cells are represented by NaN. All arithmetic in the
// pipeline is written so NaN propagates naturally; callers use IsMissing
// rather than comparing against a sentinel.
package grid

import (
	"errors"
	"fmt"
	"math"
)

// Structural errors. These indicate a caller bug or misconfiguration, not a
// transient condition; retrying without correcting the input will not help.
var (
	// ErrEmpty is returned when an operation receives a grid or series with
	// zero rows, columns or time steps.
	ErrEmpty = errors.New("grid: empty input")

	// ErrShapeMismatch is returned when grids that must share a spatial
	// shape do not.
	ErrShapeMismatch = errors.New("grid: shape mismatch")
)

// Grid is a dense 2-D raster stored row-major. Cells holding NaN are
// treated as missing throughout the pipeline.
type Grid struct {
	Rows int
	Cols int
	Data []float64 // row-major, length Rows*Cols
}

// New allocates a zero-filled grid.
func New(rows, cols int) *Grid {
	return &Grid{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// NewFill allocates a grid with every cell set to v.
func NewFill(rows, cols int, v float64) *Grid {
	g := New(rows, cols)
	for i := range g.Data {
		g.Data[i] = v
	}
	return g
}

// NewMissing allocates a grid with every cell missing.
func NewMissing(rows, cols int) *Grid {
	return NewFill(rows, cols, math.NaN())
}

// FromRows builds a grid from a slice of equal-length rows. Used mainly by
// tests and the CLI loader.
func FromRows(rows [][]float64) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmpty
	}
	g := New(len(rows), len(rows[0]))
	for r, row := range rows {
		if len(row) != g.Cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShapeMismatch, r, len(row), g.Cols)
		}
		copy(g.Data[r*g.Cols:(r+1)*g.Cols], row)
	}
	return g, nil
}

// At returns the cell value at (row, col).
func (g *Grid) At(r, c int) float64 { return g.Data[r*g.Cols+c] }

// Set assigns the cell value at (row, col).
func (g *Grid) Set(r, c int, v float64) { g.Data[r*g.Cols+c] = v }

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	out := &Grid{Rows: g.Rows, Cols: g.Cols, Data: make([]float64, len(g.Data))}
	copy(out.Data, g.Data)
	return out
}

// SameShape reports whether the receiver and o have identical dimensions.
func (g *Grid) SameShape(o *Grid) bool {
	return o != nil && g.Rows == o.Rows && g.Cols == o.Cols
}

// Validate returns ErrEmpty when the grid has no cells or its backing slice
// is inconsistent with its declared shape.
func (g *Grid) Validate() error {
	if g == nil || g.Rows <= 0 || g.Cols <= 0 {
		return ErrEmpty
	}
	if len(g.Data) != g.Rows*g.Cols {
		return fmt.Errorf("%w: %dx%d grid backed by %d cells", ErrShapeMismatch, g.Rows, g.Cols, len(g.Data))
	}
	return nil
}

// CheckSameShape validates both grids and confirms they share a shape.
// The name argument identifies the offending input in the error message.
func (g *Grid) CheckSameShape(o *Grid, name string) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if err := o.Validate(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if !g.SameShape(o) {
		return fmt.Errorf("%w: %s is %dx%d, want %dx%d",
			ErrShapeMismatch, name, o.Rows, o.Cols, g.Rows, g.Cols)
	}
	return nil
}

// ValidCount returns the number of non-missing cells.
func (g *Grid) ValidCount() int {
	n := 0
	for _, v := range g.Data {
		if !IsMissing(v) {
			n++
		}
	}
	return n
}

// ReplaceInf converts every infinite cell to missing, in place, and returns
// how many cells were replaced. Probit transforms and log ratios can both
// produce infinities on boundary inputs.
func (g *Grid) ReplaceInf() int {
	n := 0
	for i, v := range g.Data {
		if math.IsInf(v, 0) {
			g.Data[i] = math.NaN()
			n++
		}
	}
	return n
}

// IsMissing reports whether v is the missing-value marker.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Missing returns the missing-value marker.
func Missing() float64 { return math.NaN() }
