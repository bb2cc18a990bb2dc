package temporal

import (
	"errors"
	"math"
	"testing"

	"github.com/aquapredict-data/feature-engine/internal/grid"
)

func singlePixelSeries(vals []float64) *grid.Series {
	s := grid.NewSeries(len(vals), 1, 1)
	copy(s.Data, vals)
	return s
}

func TestStatisticsBasic(t *testing.T) {
	e := NewEngine()
	st, err := e.Statistics(singlePixelSeries([]float64{2, 4, 6, 8}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := st.Mean.At(0, 0); got != 5 {
		t.Errorf("mean = %v, want 5", got)
	}
	if got := st.Min.At(0, 0); got != 2 {
		t.Errorf("min = %v, want 2", got)
	}
	if got := st.Max.At(0, 0); got != 8 {
		t.Errorf("max = %v, want 8", got)
	}
	if got := st.Std.At(0, 0); math.Abs(got-math.Sqrt(5)) > 1e-12 {
		t.Errorf("std = %v, want sqrt(5)", got)
	}
	// Perfectly linear in time: slope exactly 2.
	if got := st.Trend.At(0, 0); math.Abs(got-2) > 1e-12 {
		t.Errorf("trend = %v, want 2", got)
	}
}

func TestStatisticsIgnoresMissing(t *testing.T) {
	e := NewEngine()
	st, err := e.Statistics(singlePixelSeries([]float64{1, grid.Missing(), 3, grid.Missing(), 5}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := st.Mean.At(0, 0); got != 3 {
		t.Errorf("mean = %v, want 3", got)
	}
	// Valid points sit at t=0,2,4 with values 1,3,5: slope exactly 1.
	if got := st.Trend.At(0, 0); math.Abs(got-1) > 1e-12 {
		t.Errorf("trend = %v, want 1", got)
	}
}

func TestStatisticsTrendNeedsThreePoints(t *testing.T) {
	e := NewEngine()
	st, err := e.Statistics(singlePixelSeries([]float64{1, 2, grid.Missing(), grid.Missing()}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !grid.IsMissing(st.Trend.At(0, 0)) {
		t.Error("trend with 2 valid points should be missing")
	}
	// Mean/std/min/max still computable from the 2 valid points.
	if got := st.Mean.At(0, 0); got != 1.5 {
		t.Errorf("mean = %v, want 1.5", got)
	}
}

func TestStatisticsAllMissingPixel(t *testing.T) {
	e := NewEngine()
	st, err := e.Statistics(singlePixelSeries([]float64{grid.Missing(), grid.Missing(), grid.Missing()}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for name, g := range map[string]*grid.Grid{
		"mean": st.Mean, "std": st.Std, "min": st.Min, "max": st.Max, "trend": st.Trend,
	} {
		if !grid.IsMissing(g.At(0, 0)) {
			t.Errorf("%s should be missing for an all-missing pixel", name)
		}
	}
}

func TestRollingStatsWindowOne(t *testing.T) {
	e := NewEngine()
	mean, std, err := e.RollingStats(singlePixelSeries([]float64{3, 6, 9}), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []float64{3, 6, 9} {
		if mean.Data[i] != want {
			t.Errorf("mean[%d] = %v, want %v", i, mean.Data[i], want)
		}
		// A single-sample window has no defined sample std.
		if !grid.IsMissing(std.Data[i]) {
			t.Errorf("std[%d] = %v, want missing", i, std.Data[i])
		}
	}
}

func TestRollingStatsTrailingWindow(t *testing.T) {
	e := NewEngine()
	mean, std, err := e.RollingStats(singlePixelSeries([]float64{1, 2, 3, 4}), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantMean := []float64{1, 1.5, 2.5, 3.5}
	for i, w := range wantMean {
		if math.Abs(mean.Data[i]-w) > 1e-12 {
			t.Errorf("mean[%d] = %v, want %v", i, mean.Data[i], w)
		}
	}
	// Full 2-sample windows: sample std of {a, a+1} is sqrt(0.5).
	for i := 1; i < 4; i++ {
		if math.Abs(std.Data[i]-math.Sqrt(0.5)) > 1e-12 {
			t.Errorf("std[%d] = %v, want sqrt(0.5)", i, std.Data[i])
		}
	}
}

func TestRollingStatsBadWindow(t *testing.T) {
	e := NewEngine()
	if _, _, err := e.RollingStats(singlePixelSeries([]float64{1}), 0); !errors.Is(err, ErrWindow) {
		t.Errorf("err = %v, want ErrWindow", err)
	}
}

func TestLagsShiftAndMask(t *testing.T) {
	e := NewEngine()
	s := grid.NewSeries(5, 2, 2)
	for i := range s.Data {
		s.Data[i] = float64(i)
	}
	out, err := e.Lags(s, []int{2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lagged, ok := out[2]
	if !ok {
		t.Fatal("lag 2 missing from result")
	}
	if lagged.Steps != 5 || lagged.Rows != 2 || lagged.Cols != 2 {
		t.Fatalf("lagged shape = %dx%dx%d, want 5x2x2", lagged.Steps, lagged.Rows, lagged.Cols)
	}
	for t2 := 0; t2 < 2; t2++ {
		for r := 0; r < 2; r++ {
			for c := 0; c < 2; c++ {
				if !grid.IsMissing(lagged.At(t2, r, c)) {
					t.Fatalf("lagged[%d,%d,%d] should be missing", t2, r, c)
				}
			}
		}
	}
	for t2 := 2; t2 < 5; t2++ {
		for r := 0; r < 2; r++ {
			for c := 0; c < 2; c++ {
				if got, want := lagged.At(t2, r, c), s.At(t2-2, r, c); got != want {
					t.Fatalf("lagged[%d,%d,%d] = %v, want %v", t2, r, c, got, want)
				}
			}
		}
	}
}

func TestLagsSkipTooLong(t *testing.T) {
	e := NewEngine()
	s := singlePixelSeries([]float64{1, 2, 3})
	out, err := e.Lags(s, []int{1, 3, 12})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out[1]; !ok {
		t.Error("lag 1 should be produced")
	}
	if _, ok := out[3]; ok {
		t.Error("lag 3 equals the series length and should be skipped")
	}
	if _, ok := out[12]; ok {
		t.Error("lag 12 exceeds the series length and should be skipped")
	}
}

func TestLagsRejectNonPositive(t *testing.T) {
	e := NewEngine()
	s := singlePixelSeries([]float64{1, 2, 3})
	if _, err := e.Lags(s, []int{0}); !errors.Is(err, ErrLag) {
		t.Errorf("err = %v, want ErrLag", err)
	}
}
