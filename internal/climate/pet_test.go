package climate

import (
	"math"
	"testing"

	"github.com/aquapredict-data/feature-engine/internal/grid"
)

func seriesOf(vals []float64) *grid.Series {
	s := grid.NewSeries(len(vals), 1, 1)
	copy(s.Data, vals)
	return s
}

func TestPETNonNegative(t *testing.T) {
	h := Hargreaves{}
	tMean := seriesOf([]float64{-30, -17.8, 0, 15, 45})
	pet, err := h.PET(tMean, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range pet.Data {
		if v < 0 || grid.IsMissing(v) {
			t.Errorf("pet[%d] = %v, want >= 0", i, v)
		}
	}
	// Very cold means drive the Hargreaves term negative; the clamp wins.
	if pet.Data[0] != 0 {
		t.Errorf("pet at -30C = %v, want clamped to 0", pet.Data[0])
	}
}

func TestPETInvertedDiurnalRange(t *testing.T) {
	// t_max < t_min: the range clamps to 0 before the square root, so PET
	// must be 0, not NaN.
	h := Hargreaves{}
	tMean := seriesOf([]float64{20})
	tMax := seriesOf([]float64{15})
	tMin := seriesOf([]float64{25})
	pet, err := h.PET(tMean, tMax, tMin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pet.Data[0] != 0 {
		t.Errorf("pet = %v, want 0", pet.Data[0])
	}
}

func TestPETApproximatedRange(t *testing.T) {
	// With only a mean series, the diurnal range is approximated as ±5C.
	h := Hargreaves{}
	tMean := seriesOf([]float64{20})
	pet, err := h.PET(tMean, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 0.0023 * (20 + 17.8) * math.Sqrt(10) * DefaultRa
	if math.Abs(pet.Data[0]-want) > 1e-12 {
		t.Errorf("pet = %v, want %v", pet.Data[0], want)
	}
}

func TestPETMissingPropagates(t *testing.T) {
	h := Hargreaves{}
	tMean := seriesOf([]float64{grid.Missing(), 20})
	pet, err := h.PET(tMean, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !grid.IsMissing(pet.Data[0]) {
		t.Errorf("pet from missing temperature = %v, want missing", pet.Data[0])
	}
	if grid.IsMissing(pet.Data[1]) {
		t.Error("valid temperature produced missing PET")
	}
}

func TestPETShapeMismatch(t *testing.T) {
	h := Hargreaves{}
	tMean := seriesOf([]float64{20, 21})
	tMax := seriesOf([]float64{25})
	if _, err := h.PET(tMean, tMax, seriesOf([]float64{15})); err == nil {
		t.Error("expected shape mismatch error, got nil")
	}
}

func TestWaterBalance(t *testing.T) {
	precip := seriesOf([]float64{50, 60})
	pet := seriesOf([]float64{30, 80})
	wb, err := WaterBalance(precip, pet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wb.Data[0] != 20 || wb.Data[1] != -20 {
		t.Errorf("water balance = %v, want [20 -20]", wb.Data)
	}
}
