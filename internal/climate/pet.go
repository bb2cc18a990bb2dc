// Package climate derives drought and wetness indicators from precipitation
// and temperature series: Hargreaves potential evapotranspiration, the
// Standardized Precipitation Index (SPI) and the Standardized
// Precipitation-Evapotranspiration Index (SPEI).
//
// The index computations fit a probability distribution independently per
// pixel. Fits fail routinely on degenerate pixels (constant series, too few
// observations); every such failure degrades that one pixel to missing and
// never aborts the surrounding grid.
package climate

import (
	"errors"
	"fmt"
	"math"

	"github.com/aquapredict-data/feature-engine/internal/grid"
)

// ErrMethod is returned for an unsupported evapotranspiration method name.
var ErrMethod = errors.New("climate: unsupported evapotranspiration method")

// MethodHargreaves is the only supported PET method.
const MethodHargreaves = "hargreaves"

// DefaultRa is the extraterrestrial radiation constant (MJ/m²/day) used by
// the Hargreaves estimate. A faithful value depends on latitude and day of
// year; the pipeline deliberately uses a mid-latitude annual average, and
// downstream SPEI is calibrated against it. Change only together with a
// recalibration.
const DefaultRa = 15.0

// hargreavesSpread approximates the diurnal range as tMean±5°C when only a
// mean temperature series is available. A documented simplification, not a
// substitute for measured min/max.
const hargreavesSpread = 5.0

// Hargreaves estimates potential evapotranspiration from temperature
// statistics. Zero value uses DefaultRa.
type Hargreaves struct {
	// Ra is the extraterrestrial radiation in MJ/m²/day; 0 means DefaultRa.
	Ra float64
}

// PET computes Hargreaves potential evapotranspiration (mm/day):
//
//	PET = 0.0023 * (tMean + 17.8) * sqrt(max(tMax - tMin, 0)) * Ra
//
// clamped non-negative. tMax and tMin may both be nil, in which case they
// are approximated as tMean ± 5°C. Missing temperatures yield missing PET.
func (h Hargreaves) PET(tMean, tMax, tMin *grid.Series) (*grid.Series, error) {
	if err := tMean.Validate(); err != nil {
		return nil, fmt.Errorf("pet: t_mean: %w", err)
	}
	approx := tMax == nil && tMin == nil
	if !approx {
		for name, s := range map[string]*grid.Series{"t_max": tMax, "t_min": tMin} {
			if err := s.Validate(); err != nil {
				return nil, fmt.Errorf("pet: %s: %w", name, err)
			}
			if s.Steps != tMean.Steps || !s.SameShape(tMean.Rows, tMean.Cols) {
				return nil, fmt.Errorf("pet: %s: %w", name, grid.ErrShapeMismatch)
			}
		}
	}

	ra := h.Ra
	if ra == 0 {
		ra = DefaultRa
	}

	out := grid.NewSeries(tMean.Steps, tMean.Rows, tMean.Cols)
	for i, tm := range tMean.Data {
		spread := 2 * hargreavesSpread
		if !approx {
			spread = tMax.Data[i] - tMin.Data[i]
		}
		pet := 0.0023 * (tm + 17.8) * math.Sqrt(math.Max(spread, 0)) * ra
		out.Data[i] = math.Max(pet, 0)
	}
	return out, nil
}

// WaterBalance returns precipitation minus PET, the input series for SPEI.
func WaterBalance(precip, pet *grid.Series) (*grid.Series, error) {
	wb, err := grid.Sub(precip, pet)
	if err != nil {
		return nil, fmt.Errorf("water balance: %w", err)
	}
	return wb, nil
}
