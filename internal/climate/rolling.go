package climate

import (
	"errors"
	"fmt"

	"github.com/aquapredict-data/feature-engine/internal/grid"
)

// ErrWindow is returned for a non-positive rolling window.
var ErrWindow = errors.New("climate: rolling window must be >= 1")

// RollingSum computes the trailing rolling sum of window steps along the
// time axis. Partial windows at the series start sum over however many
// samples are in range, and missing samples inside a window are skipped; a
// window with no valid samples yields missing. Window 1 returns a copy of
// the input unchanged.
func RollingSum(s *grid.Series, window int) (*grid.Series, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("rolling sum: %w", err)
	}
	if window < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrWindow, window)
	}
	if window == 1 {
		return s.Clone(), nil
	}

	out := grid.NewSeries(s.Steps, s.Rows, s.Cols)
	layer := s.Rows * s.Cols
	for t := 0; t < s.Steps; t++ {
		lo := t - window + 1
		if lo < 0 {
			lo = 0
		}
		for i := 0; i < layer; i++ {
			sum, valid := 0.0, 0
			for tt := lo; tt <= t; tt++ {
				v := s.Data[tt*layer+i]
				if grid.IsMissing(v) {
					continue
				}
				sum += v
				valid++
			}
			if valid == 0 {
				out.Data[t*layer+i] = grid.Missing()
			} else {
				out.Data[t*layer+i] = sum
			}
		}
	}
	return out, nil
}
