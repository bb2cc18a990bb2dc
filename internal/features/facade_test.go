package features

import (
	"errors"
	"math"
	"testing"

	"github.com/aquapredict-data/feature-engine/internal/grid"
)

func constantDEMInputs() Inputs {
	return Inputs{
		DEM:              grid.NewFill(5, 5, 1000),
		FlowAccumulation: grid.New(5, 5),
	}
}

// seasonalPrecip fills an R x C precipitation series with a strictly
// positive seasonal cycle plus a per-pixel offset.
func seasonalPrecip(steps, rows, cols int) *grid.Series {
	s := grid.NewSeries(steps, rows, cols)
	for t := 0; t < steps; t++ {
		base := 60 + 40*math.Sin(2*math.Pi*float64(t)/12) + 3*float64(t%5)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				s.Set(t, r, c, base+float64(r*cols+c))
			}
		}
	}
	return s
}

func newTestEngine(t *testing.T, cfg *Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestGenerateAllFlatTerrainScenario(t *testing.T) {
	// 5x5 constant DEM at 1000m, cell size 1000m, zero flow accumulation:
	// slope must be all zeros and TWI must be ln(1/0.001) ≈ 6.908
	// everywhere.
	e := newTestEngine(t, nil)
	set, report, err := e.GenerateAll(constantDEMInputs(), 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	slope, ok := set.Grids["slope"]
	if !ok {
		t.Fatal("slope feature missing")
	}
	for i, v := range slope.Data {
		if v != 0 {
			t.Fatalf("slope[%d] = %v, want 0", i, v)
		}
	}

	twi, ok := set.Grids["twi"]
	if !ok {
		t.Fatal("twi feature missing")
	}
	want := math.Log(1 / 0.001)
	for i, v := range twi.Data {
		if math.Abs(v-want) > 1e-6 {
			t.Fatalf("twi[%d] = %v, want %v", i, v, want)
		}
	}

	if report.Rows != 5 || report.Cols != 5 {
		t.Errorf("report shape = %dx%d, want 5x5", report.Rows, report.Cols)
	}
	if report.RunID == "" {
		t.Error("report run id empty")
	}
}

func TestGenerateAllDEMOnlyFeatureNames(t *testing.T) {
	e := newTestEngine(t, nil)
	set, _, err := e.GenerateAll(Inputs{DEM: grid.NewFill(4, 4, 100)}, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"slope", "aspect", "tpi", "curvature_profile", "curvature_plan", "curvature_total"} {
		if _, ok := set.Grids[name]; !ok {
			t.Errorf("feature %q missing", name)
		}
	}
	if _, ok := set.Grids["twi"]; ok {
		t.Error("twi produced without flow accumulation")
	}
	if len(set.Series) != 0 {
		t.Errorf("temporal features produced without time series inputs: %v", set.Names())
	}
}

func TestGenerateAllPrecipOnly(t *testing.T) {
	cfg := &Config{
		SPITimescales:   []int{1, 3},
		TemporalWindows: []int{6},
		LagPeriods:      []int{1},
	}
	e := newTestEngine(t, cfg)
	set, _, err := e.GenerateAll(Inputs{Precipitation: seasonalPrecip(24, 2, 2)}, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"spi_1", "spi_3", "precip_lag_1", "precip_roll6_mean", "precip_roll6_std"} {
		if _, ok := set.Series[name]; !ok {
			t.Errorf("series feature %q missing (have %v)", name, set.Names())
		}
	}
	for _, name := range []string{"precip_mean", "precip_std", "precip_min", "precip_max", "precip_trend"} {
		if _, ok := set.Grids[name]; !ok {
			t.Errorf("grid feature %q missing", name)
		}
	}
	// SPEI and PET need temperature.
	if _, ok := set.Series["spei_1"]; ok {
		t.Error("spei produced without temperature")
	}
	if _, ok := set.Series["pet"]; ok {
		t.Error("pet produced without temperature")
	}
}

func TestGenerateAllPrecipAndTemperature(t *testing.T) {
	cfg := &Config{
		SPITimescales:   []int{1},
		SPEITimescales:  []int{1, 6},
		TemporalWindows: []int{12},
		LagPeriods:      []int{1},
	}
	e := newTestEngine(t, cfg)
	temp := grid.NewSeriesFill(24, 2, 2, 22)
	set, _, err := e.GenerateAll(Inputs{
		Precipitation: seasonalPrecip(24, 2, 2),
		Temperature:   temp,
	}, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"spei_1", "spei_6", "pet", "water_balance"} {
		if _, ok := set.Series[name]; !ok {
			t.Errorf("series feature %q missing (have %v)", name, set.Names())
		}
	}
	for _, name := range []string{"temp_mean", "temp_std", "temp_min", "temp_max", "temp_trend"} {
		if _, ok := set.Grids[name]; !ok {
			t.Errorf("grid feature %q missing", name)
		}
	}
	// Water balance is precip - pet, elementwise.
	wb := set.Series["water_balance"]
	pet := set.Series["pet"]
	precip := seasonalPrecip(24, 2, 2)
	for i := range wb.Data {
		want := precip.Data[i] - pet.Data[i]
		if math.Abs(wb.Data[i]-want) > 1e-9 {
			t.Fatalf("water_balance[%d] = %v, want %v", i, wb.Data[i], want)
		}
	}
}

func TestGenerateAllConstantPrecipDegradesNotAborts(t *testing.T) {
	// A 24-month constant 50mm record has zero variance: every SPI pixel
	// degrades to missing, and the report says so instead of the run
	// failing or emitting infinities.
	cfg := &Config{SPITimescales: []int{1}, TemporalWindows: []int{6}, LagPeriods: []int{1}}
	e := newTestEngine(t, cfg)
	set, report, err := e.GenerateAll(Inputs{Precipitation: grid.NewSeriesFill(24, 1, 1, 50)}, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	spi := set.Series["spi_1"]
	for i, v := range spi.Data {
		if !grid.IsMissing(v) {
			t.Fatalf("spi[%d] = %v, want missing for constant precipitation", i, v)
		}
		if math.IsInf(v, 0) {
			t.Fatalf("spi[%d] is infinite; must be missing", i)
		}
	}
	if report.DegradedPixels["spi_1"] == 0 {
		t.Error("report should count the degraded SPI pixel")
	}
	if report.TotalDegraded == 0 {
		t.Error("report total degraded count should be non-zero")
	}
}

func TestGenerateAllShapeMismatch(t *testing.T) {
	e := newTestEngine(t, nil)
	_, _, err := e.GenerateAll(Inputs{
		DEM:           grid.NewFill(5, 5, 100),
		Precipitation: seasonalPrecip(12, 4, 4),
	}, 1000)
	if !errors.Is(err, grid.ErrShapeMismatch) {
		t.Errorf("err = %v, want ErrShapeMismatch", err)
	}
}

func TestGenerateAllNoInputs(t *testing.T) {
	e := newTestEngine(t, nil)
	_, _, err := e.GenerateAll(Inputs{}, 1000)
	if !errors.Is(err, ErrNoInputs) {
		t.Errorf("err = %v, want ErrNoInputs", err)
	}
}

func TestGenerateAllRejectsInvalidConfig(t *testing.T) {
	if _, err := NewEngine(&Config{Distribution: ptrString("cauchy")}); err == nil {
		t.Error("expected config validation error")
	}
}
