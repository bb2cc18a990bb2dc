package features

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aquapredict-data/feature-engine/internal/climate"
	"github.com/aquapredict-data/feature-engine/internal/grid"
	"github.com/aquapredict-data/feature-engine/internal/monitoring"
	"github.com/aquapredict-data/feature-engine/internal/temporal"
	"github.com/aquapredict-data/feature-engine/internal/terrain"
)

// ErrNoInputs is returned when GenerateAll receives a bundle with no
// recognized input present.
var ErrNoInputs = errors.New("features: no recognized inputs present")

// Inputs is the bundle of raw grids the facade understands. Any field may
// be nil; every feature derivable from the present fields is computed.
// All present inputs must share one spatial shape, already reprojected to a
// common reference by the ingestion collaborator.
type Inputs struct {
	DEM              *grid.Grid
	FlowAccumulation *grid.Grid
	WaterMask        *grid.Grid
	Precipitation    *grid.Series
	Temperature      *grid.Series
}

// Set is a feature dictionary: static features as 2-D grids, temporal
// features as 3-D series, each under a unique name.
type Set struct {
	Grids  map[string]*grid.Grid
	Series map[string]*grid.Series
}

// NewSet returns an empty feature set.
func NewSet() *Set {
	return &Set{Grids: map[string]*grid.Grid{}, Series: map[string]*grid.Series{}}
}

// Names returns all feature names, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.Grids)+len(s.Series))
	for n := range s.Grids {
		names = append(names, n)
	}
	for n := range s.Series {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Engine is the feature-generation facade wiring the terrain, climate and
// temporal engines together under one configuration.
type Engine struct {
	cfg      *Config
	terrain  *terrain.Extractor
	indices  *climate.IndexEngine
	pet      climate.Hargreaves
	temporal *temporal.Engine
	metrics  *monitoring.Metrics
}

// NewEngine validates cfg and returns a ready facade. A nil cfg means all
// defaults.
func NewEngine(cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = EmptyConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:      cfg,
		terrain:  terrain.NewExtractor(),
		indices:  climate.NewIndexEngine(),
		temporal: temporal.NewEngine(),
		metrics:  monitoring.PipelineMetrics(),
	}, nil
}

// GenerateAll derives every feature available from the present inputs and
// returns the feature set together with a quality report for the run.
//
// DEM alone yields terrain features; precipitation alone yields SPI,
// precipitation statistics, rolling statistics and lags; precipitation plus
// temperature additionally yield PET, water balance and SPEI.
func (e *Engine) GenerateAll(in Inputs, cellSize float64) (*Set, *Report, error) {
	rows, cols, err := e.checkShapes(in)
	if err != nil {
		e.metrics.FeatureRuns.WithLabelValues("error").Inc()
		return nil, nil, err
	}

	set := NewSet()
	report := newReport(rows, cols, cellSize)

	if in.DEM != nil {
		if err := e.terrainFeatures(in, cellSize, set); err != nil {
			e.metrics.FeatureRuns.WithLabelValues("error").Inc()
			return nil, nil, err
		}
	}
	if in.Precipitation != nil {
		if err := e.precipitationFeatures(in, set, report); err != nil {
			e.metrics.FeatureRuns.WithLabelValues("error").Inc()
			return nil, nil, err
		}
	}
	if in.Precipitation != nil && in.Temperature != nil {
		if err := e.waterBalanceFeatures(in, set, report); err != nil {
			e.metrics.FeatureRuns.WithLabelValues("error").Inc()
			return nil, nil, err
		}
	}

	report.finish(set)
	e.metrics.FeatureRuns.WithLabelValues("ok").Inc()
	for _, name := range report.Features {
		e.metrics.FeaturesGenerated.WithLabelValues(name).Inc()
	}
	monitoring.Logf("features: run %s generated %d features (%d degraded pixels)",
		report.RunID, len(report.Features), report.TotalDegraded)
	return set, report, nil
}

// checkShapes confirms every present input shares one spatial shape and
// returns it.
func (e *Engine) checkShapes(in Inputs) (rows, cols int, err error) {
	type shaped struct {
		name       string
		rows, cols int
		present    bool
	}
	shapes := []shaped{
		{"dem", 0, 0, in.DEM != nil},
		{"flow_accumulation", 0, 0, in.FlowAccumulation != nil},
		{"water_mask", 0, 0, in.WaterMask != nil},
		{"precipitation", 0, 0, in.Precipitation != nil},
		{"temperature", 0, 0, in.Temperature != nil},
	}
	if in.DEM != nil {
		if err := in.DEM.Validate(); err != nil {
			return 0, 0, fmt.Errorf("dem: %w", err)
		}
		shapes[0].rows, shapes[0].cols = in.DEM.Rows, in.DEM.Cols
	}
	if in.FlowAccumulation != nil {
		if err := in.FlowAccumulation.Validate(); err != nil {
			return 0, 0, fmt.Errorf("flow_accumulation: %w", err)
		}
		shapes[1].rows, shapes[1].cols = in.FlowAccumulation.Rows, in.FlowAccumulation.Cols
	}
	if in.WaterMask != nil {
		if err := in.WaterMask.Validate(); err != nil {
			return 0, 0, fmt.Errorf("water_mask: %w", err)
		}
		shapes[2].rows, shapes[2].cols = in.WaterMask.Rows, in.WaterMask.Cols
	}
	if in.Precipitation != nil {
		if err := in.Precipitation.Validate(); err != nil {
			return 0, 0, fmt.Errorf("precipitation: %w", err)
		}
		shapes[3].rows, shapes[3].cols = in.Precipitation.Rows, in.Precipitation.Cols
	}
	if in.Temperature != nil {
		if err := in.Temperature.Validate(); err != nil {
			return 0, 0, fmt.Errorf("temperature: %w", err)
		}
		shapes[4].rows, shapes[4].cols = in.Temperature.Rows, in.Temperature.Cols
	}

	for _, s := range shapes {
		if !s.present {
			continue
		}
		if rows == 0 {
			rows, cols = s.rows, s.cols
			continue
		}
		if s.rows != rows || s.cols != cols {
			return 0, 0, fmt.Errorf("%w: %s is %dx%d, want %dx%d",
				grid.ErrShapeMismatch, s.name, s.rows, s.cols, rows, cols)
		}
	}
	if rows == 0 {
		return 0, 0, ErrNoInputs
	}
	return rows, cols, nil
}

func (e *Engine) terrainFeatures(in Inputs, cellSize float64, set *Set) error {
	slope, aspect, err := e.terrain.SlopeAspect(in.DEM, cellSize)
	if err != nil {
		return err
	}
	set.Grids["slope"] = slope
	set.Grids["aspect"] = aspect

	tpi, err := e.terrain.TPI(in.DEM, e.cfg.GetTPIWindow())
	if err != nil {
		return err
	}
	set.Grids["tpi"] = tpi

	curv, err := e.terrain.CurvatureOf(in.DEM, cellSize)
	if err != nil {
		return err
	}
	set.Grids["curvature_profile"] = curv.Profile
	set.Grids["curvature_plan"] = curv.Plan
	set.Grids["curvature_total"] = curv.Total

	if in.FlowAccumulation != nil {
		twi, err := e.terrain.TWI(in.DEM, in.FlowAccumulation, cellSize, e.cfg.GetTWIEpsilon())
		if err != nil {
			return err
		}
		set.Grids["twi"] = twi
	}
	if in.WaterMask != nil {
		dist, err := e.terrain.DistanceToWater(in.WaterMask, cellSize)
		if err != nil {
			return err
		}
		set.Grids["distance_to_water"] = dist
	}
	return nil
}

func (e *Engine) precipitationFeatures(in Inputs, set *Set, report *Report) error {
	for _, ts := range e.cfg.GetSPITimescales() {
		spi, stats, err := e.indices.SPI(in.Precipitation, ts, e.cfg.GetDistribution())
		if err != nil {
			return err
		}
		name := fmt.Sprintf("spi_%d", ts)
		set.Series[name] = spi
		report.recordDegraded(name, stats.Total())
	}

	st, err := e.temporal.Statistics(in.Precipitation)
	if err != nil {
		return err
	}
	set.Grids["precip_mean"] = st.Mean
	set.Grids["precip_std"] = st.Std
	set.Grids["precip_min"] = st.Min
	set.Grids["precip_max"] = st.Max
	set.Grids["precip_trend"] = st.Trend

	for _, w := range e.cfg.GetTemporalWindows() {
		if w > in.Precipitation.Steps {
			continue // window longer than the record adds nothing
		}
		mean, std, err := e.temporal.RollingStats(in.Precipitation, w)
		if err != nil {
			return err
		}
		set.Series[fmt.Sprintf("precip_roll%d_mean", w)] = mean
		set.Series[fmt.Sprintf("precip_roll%d_std", w)] = std
	}

	lags, err := e.temporal.Lags(in.Precipitation, e.cfg.GetLagPeriods())
	if err != nil {
		return err
	}
	for lag, s := range lags {
		set.Series[fmt.Sprintf("precip_lag_%d", lag)] = s
	}
	return nil
}

func (e *Engine) waterBalanceFeatures(in Inputs, set *Set, report *Report) error {
	pet, err := e.pet.PET(in.Temperature, nil, nil)
	if err != nil {
		return err
	}
	set.Series["pet"] = pet

	wb, err := climate.WaterBalance(in.Precipitation, pet)
	if err != nil {
		return err
	}
	set.Series["water_balance"] = wb

	for _, ts := range e.cfg.GetSPEITimescales() {
		spei, stats, err := e.indices.SPEI(in.Precipitation, pet, ts)
		if err != nil {
			return err
		}
		name := fmt.Sprintf("spei_%d", ts)
		set.Series[name] = spei
		report.recordDegraded(name, stats.Total())
	}

	st, err := e.temporal.Statistics(in.Temperature)
	if err != nil {
		return err
	}
	set.Grids["temp_mean"] = st.Mean
	set.Grids["temp_std"] = st.Std
	set.Grids["temp_min"] = st.Min
	set.Grids["temp_max"] = st.Max
	set.Grids["temp_trend"] = st.Trend
	return nil
}
