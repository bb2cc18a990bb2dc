package temporal

import (
	"errors"
	"fmt"

	"github.com/aquapredict-data/feature-engine/internal/grid"
)

// ErrLag is returned for a non-positive lag period.
var ErrLag = errors.New("temporal: lag period must be >= 1")

// Lags produces time-shifted copies of s for each requested lag L: the
// value at time i equals the original at i-L, and the first L steps are
// missing. Lags of at least the series length cannot be satisfied and are
// skipped rather than erroring, so a single long lag in a configured list
// does not abort the rest. Keys of the result are the lags actually
// produced.
func (e *Engine) Lags(s *grid.Series, lagPeriods []int) (map[int]*grid.Series, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("lag features: %w", err)
	}
	for _, lag := range lagPeriods {
		if lag < 1 {
			return nil, fmt.Errorf("%w: got %d", ErrLag, lag)
		}
	}

	layer := s.Rows * s.Cols
	out := make(map[int]*grid.Series, len(lagPeriods))
	for _, lag := range lagPeriods {
		if lag >= s.Steps {
			continue
		}
		shifted := grid.NewSeries(s.Steps, s.Rows, s.Cols)
		for t := 0; t < lag; t++ {
			for i := 0; i < layer; i++ {
				shifted.Data[t*layer+i] = grid.Missing()
			}
		}
		copy(shifted.Data[lag*layer:], s.Data[:(s.Steps-lag)*layer])
		out[lag] = shifted
	}
	return out, nil
}
