package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Series is a dense 3-D stack of grids indexed [time, row, col]. Each
// (row, col) column across the time axis is an independent scalar time
// series. Storage is time-major row-major.
type Series struct {
	Steps int
	Rows  int
	Cols  int
	Data  []float64 // length Steps*Rows*Cols
}

// NewSeries allocates a zero-filled series.
func NewSeries(steps, rows, cols int) *Series {
	return &Series{Steps: steps, Rows: rows, Cols: cols, Data: make([]float64, steps*rows*cols)}
}

// NewSeriesFill allocates a series with every cell set to v.
func NewSeriesFill(steps, rows, cols int, v float64) *Series {
	s := NewSeries(steps, rows, cols)
	for i := range s.Data {
		s.Data[i] = v
	}
	return s
}

// FromGrid promotes a single grid to a one-step series. Mirrors the
// convention that a 2-D input to a temporal operation is a series of length
// one.
func FromGrid(g *Grid) *Series {
	s := NewSeries(1, g.Rows, g.Cols)
	copy(s.Data, g.Data)
	return s
}

// At returns the value at (t, row, col).
func (s *Series) At(t, r, c int) float64 {
	return s.Data[(t*s.Rows+r)*s.Cols+c]
}

// Set assigns the value at (t, row, col).
func (s *Series) Set(t, r, c int, v float64) {
	s.Data[(t*s.Rows+r)*s.Cols+c] = v
}

// Clone returns a deep copy.
func (s *Series) Clone() *Series {
	out := &Series{Steps: s.Steps, Rows: s.Rows, Cols: s.Cols, Data: make([]float64, len(s.Data))}
	copy(out.Data, s.Data)
	return out
}

// Layer copies time step t into a freshly allocated grid.
func (s *Series) Layer(t int) *Grid {
	g := New(s.Rows, s.Cols)
	copy(g.Data, s.Data[t*s.Rows*s.Cols:(t+1)*s.Rows*s.Cols])
	return g
}

// Pixel appends the time series at (row, col) to dst and returns it.
// Passing a reused dst[:0] avoids a per-pixel allocation in the fitting
// loops.
func (s *Series) Pixel(r, c int, dst []float64) []float64 {
	for t := 0; t < s.Steps; t++ {
		dst = append(dst, s.At(t, r, c))
	}
	return dst
}

// SetPixel writes vals, which must have length Steps, into the time series
// at (row, col).
func (s *Series) SetPixel(r, c int, vals []float64) {
	for t := 0; t < s.Steps; t++ {
		s.Set(t, r, c, vals[t])
	}
}

// SameShape reports whether the receiver and o have identical spatial
// dimensions. Time lengths may differ.
func (s *Series) SameShape(rows, cols int) bool {
	return s != nil && s.Rows == rows && s.Cols == cols
}

// Validate returns ErrEmpty for a series with no cells and ErrShapeMismatch
// for an inconsistent backing slice.
func (s *Series) Validate() error {
	if s == nil || s.Steps <= 0 || s.Rows <= 0 || s.Cols <= 0 {
		return ErrEmpty
	}
	if len(s.Data) != s.Steps*s.Rows*s.Cols {
		return fmt.Errorf("%w: %dx%dx%d series backed by %d cells", ErrShapeMismatch, s.Steps, s.Rows, s.Cols, len(s.Data))
	}
	return nil
}

// ReplaceInf converts every infinite cell to missing, in place, and returns
// how many cells were replaced.
func (s *Series) ReplaceInf() int {
	n := 0
	for i, v := range s.Data {
		if math.IsInf(v, 0) {
			s.Data[i] = math.NaN()
			n++
		}
	}
	return n
}

// Sub returns the elementwise difference a-b. Spatial shapes and time
// lengths must match.
func Sub(a, b *Series) (*Series, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if a.Steps != b.Steps || a.Rows != b.Rows || a.Cols != b.Cols {
		return nil, fmt.Errorf("%w: %dx%dx%d minus %dx%dx%d",
			ErrShapeMismatch, a.Steps, a.Rows, a.Cols, b.Steps, b.Rows, b.Cols)
	}
	out := a.Clone()
	floats.Sub(out.Data, b.Data)
	return out, nil
}
