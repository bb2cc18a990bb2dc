// Command features runs the feature-engineering facade over a JSON bundle
// of input grids and writes the derived feature grids plus the per-run
// quality report. Optionally it also emits spatially blocked
// cross-validation folds over the flattened feature matrix.
//
// Usage:
//
//	features -input inputs.json -cell-size 1000 -output features.json \
//	         [-config features.config.json] [-folds folds.json] [-standardize]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/aquapredict-data/feature-engine/internal/features"
	"github.com/aquapredict-data/feature-engine/internal/grid"
	"github.com/aquapredict-data/feature-engine/internal/spatial"
	"github.com/aquapredict-data/feature-engine/internal/version"
)

// inputBundle is the on-disk JSON shape of the raw grids. 2-D arrays are
// [row][col]; 3-D arrays are [time][row][col].
type inputBundle struct {
	DEM              [][]nanFloat   `json:"dem,omitempty"`
	FlowAccumulation [][]nanFloat   `json:"flow_accumulation,omitempty"`
	WaterMask        [][]nanFloat   `json:"water_mask,omitempty"`
	Precipitation    [][][]nanFloat `json:"precipitation,omitempty"`
	Temperature      [][][]nanFloat `json:"temperature,omitempty"`
}

// outputBundle is the on-disk JSON shape of the results.
type outputBundle struct {
	Report *features.Report          `json:"report"`
	Grids  map[string][][]nanFloat   `json:"grids"`
	Series map[string][][][]nanFloat `json:"series"`
}

// foldBundle is the on-disk JSON shape of the cross-validation folds.
type foldBundle struct {
	RunID string         `json:"run_id"`
	K     int            `json:"k"`
	Folds []spatial.Fold `json:"folds"`
}

func main() {
	inputPath := flag.String("input", "", "path to the JSON input bundle (required)")
	configPath := flag.String("config", "", "optional JSON pipeline config")
	outputPath := flag.String("output", "features.json", "path for the JSON feature bundle")
	foldsPath := flag.String("folds", "", "optional path for spatial CV folds over the flattened features")
	cellSize := flag.Float64("cell-size", 1000, "grid cell size in metres")
	standardize := flag.Bool("standardize", false, "z-score the flattened feature matrix before clustering")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *inputPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(*inputPath, *configPath, *outputPath, *foldsPath, *cellSize, *standardize); err != nil {
		log.Fatalf("features: %v", err)
	}
}

func run(inputPath, configPath, outputPath, foldsPath string, cellSize float64, standardize bool) error {
	in, err := loadInputs(inputPath)
	if err != nil {
		return err
	}

	cfg := features.EmptyConfig()
	if configPath != "" {
		if cfg, err = features.LoadConfig(configPath); err != nil {
			return err
		}
	}

	engine, err := features.NewEngine(cfg)
	if err != nil {
		return err
	}
	set, report, err := engine.GenerateAll(in, cellSize)
	if err != nil {
		return err
	}

	if err := writeJSON(outputPath, encodeOutputs(set, report)); err != nil {
		return err
	}
	log.Printf("wrote %d features to %s (run %s)", len(report.Features), outputPath, report.RunID)

	if foldsPath == "" {
		return nil
	}
	matrix, err := set.Flatten(cellSize)
	if err != nil {
		return fmt.Errorf("flatten for folds: %w", err)
	}
	if standardize {
		matrix.Standardize()
	}
	k := cfg.GetNSpatialClusters()
	folds, err := spatial.NewBlockSplitter(k).Split(matrix.Coords)
	if err != nil {
		return err
	}
	if err := writeJSON(foldsPath, foldBundle{RunID: report.RunID, K: k, Folds: folds}); err != nil {
		return err
	}
	log.Printf("wrote %d spatial folds to %s", k, foldsPath)
	return nil
}

func loadInputs(path string) (features.Inputs, error) {
	var bundle inputBundle
	data, err := os.ReadFile(path)
	if err != nil {
		return features.Inputs{}, fmt.Errorf("read input bundle: %w", err)
	}
	if err := json.Unmarshal(data, &bundle); err != nil {
		return features.Inputs{}, fmt.Errorf("parse input bundle: %w", err)
	}

	var in features.Inputs
	if bundle.DEM != nil {
		if in.DEM, err = grid.FromRows(rowsToFloats(bundle.DEM)); err != nil {
			return in, fmt.Errorf("dem: %w", err)
		}
	}
	if bundle.FlowAccumulation != nil {
		if in.FlowAccumulation, err = grid.FromRows(rowsToFloats(bundle.FlowAccumulation)); err != nil {
			return in, fmt.Errorf("flow_accumulation: %w", err)
		}
	}
	if bundle.WaterMask != nil {
		if in.WaterMask, err = grid.FromRows(rowsToFloats(bundle.WaterMask)); err != nil {
			return in, fmt.Errorf("water_mask: %w", err)
		}
	}
	if bundle.Precipitation != nil {
		if in.Precipitation, err = seriesFromSteps(bundle.Precipitation); err != nil {
			return in, fmt.Errorf("precipitation: %w", err)
		}
	}
	if bundle.Temperature != nil {
		if in.Temperature, err = seriesFromSteps(bundle.Temperature); err != nil {
			return in, fmt.Errorf("temperature: %w", err)
		}
	}
	return in, nil
}

func rowsToFloats(rows [][]nanFloat) [][]float64 {
	out := make([][]float64, len(rows))
	for r, row := range rows {
		out[r] = make([]float64, len(row))
		for c, v := range row {
			out[r][c] = float64(v)
		}
	}
	return out
}

func seriesFromSteps(steps [][][]nanFloat) (*grid.Series, error) {
	if len(steps) == 0 {
		return nil, grid.ErrEmpty
	}
	first, err := grid.FromRows(rowsToFloats(steps[0]))
	if err != nil {
		return nil, err
	}
	s := grid.NewSeries(len(steps), first.Rows, first.Cols)
	for t, step := range steps {
		g, err := grid.FromRows(rowsToFloats(step))
		if err != nil {
			return nil, fmt.Errorf("time step %d: %w", t, err)
		}
		if !first.SameShape(g) {
			return nil, fmt.Errorf("%w: time step %d", grid.ErrShapeMismatch, t)
		}
		copy(s.Data[t*first.Rows*first.Cols:], g.Data)
	}
	return s, nil
}

func encodeOutputs(set *features.Set, report *features.Report) outputBundle {
	out := outputBundle{
		Report: report,
		Grids:  make(map[string][][]nanFloat, len(set.Grids)),
		Series: make(map[string][][][]nanFloat, len(set.Series)),
	}
	for name, g := range set.Grids {
		out.Grids[name] = gridRows(g)
	}
	for name, s := range set.Series {
		steps := make([][][]nanFloat, s.Steps)
		for t := 0; t < s.Steps; t++ {
			steps[t] = gridRows(s.Layer(t))
		}
		out.Series[name] = steps
	}
	return out
}

func gridRows(g *grid.Grid) [][]nanFloat {
	rows := make([][]nanFloat, g.Rows)
	for r := 0; r < g.Rows; r++ {
		rows[r] = make([]nanFloat, g.Cols)
		for c := 0; c < g.Cols; c++ {
			rows[r][c] = nanFloat(g.Data[r*g.Cols+c])
		}
	}
	return rows
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
