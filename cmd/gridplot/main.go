// Command gridplot renders the feature grids from a features.json bundle as
// PNG heatmaps, plus an optional single-page HTML summary with interactive
// charts. It is a debugging aid for eyeballing derived features without a
// GIS stack.
//
// Usage:
//
//	gridplot -input features.json -output-dir plots [-html plots/summary.html]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/aquapredict-data/feature-engine/internal/version"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// viridisColors matches the ECharts visual-map gradient used elsewhere for
// value-coloured debugging plots.
var viridisColors = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// featureBundle mirrors the grids section of the features command output.
// Series are rendered by their final time step.
type featureBundle struct {
	Report struct {
		RunID    string  `json:"run_id"`
		Rows     int     `json:"rows"`
		Cols     int     `json:"cols"`
		CellSize float64 `json:"cell_size_m"`
	} `json:"report"`
	Grids  map[string][][]nullFloat   `json:"grids"`
	Series map[string][][][]nullFloat `json:"series"`
}

// nullFloat decodes JSON null as NaN, the missing-cell marker.
type nullFloat float64

func (f *nullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = nullFloat(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*f = nullFloat(v)
	return nil
}

func main() {
	inputPath := flag.String("input", "", "path to the features JSON bundle (required)")
	outputDir := flag.String("output-dir", "plots", "directory for the PNG heatmaps")
	htmlPath := flag.String("html", "", "optional path for an interactive HTML summary")
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
	if err := run(*inputPath, *outputDir, *htmlPath); err != nil {
		log.Fatalf("gridplot: %v", err)
	}
}

func run(inputPath, outputDir, htmlPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read bundle: %w", err)
	}
	var bundle featureBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return fmt.Errorf("parse bundle: %w", err)
	}

	layers := collectLayers(&bundle)
	if len(layers) == 0 {
		return fmt.Errorf("bundle %s contains no feature grids", inputPath)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	cell := bundle.Report.CellSize
	if cell <= 0 {
		cell = 1
	}
	for _, l := range layers {
		file := filepath.Join(outputDir, l.name+".png")
		if err := savePNG(l, cell, file); err != nil {
			return fmt.Errorf("plot %s: %w", l.name, err)
		}
	}
	log.Printf("wrote %d heatmaps to %s (run %s)", len(layers), outputDir, bundle.Report.RunID)

	if htmlPath == "" {
		return nil
	}
	if err := saveHTML(layers, cell, bundle.Report.RunID, htmlPath); err != nil {
		return err
	}
	log.Printf("wrote summary page to %s", htmlPath)
	return nil
}

// layer is one named 2-D surface to render.
type layer struct {
	name string
	rows [][]nullFloat
}

// collectLayers flattens the bundle into plottable surfaces, taking the last
// time step of each series, in stable name order.
func collectLayers(b *featureBundle) []layer {
	var layers []layer
	for name, rows := range b.Grids {
		layers = append(layers, layer{name: name, rows: rows})
	}
	for name, steps := range b.Series {
		if len(steps) == 0 {
			continue
		}
		layers = append(layers, layer{name: name, rows: steps[len(steps)-1]})
	}
	sort.Slice(layers, func(i, j int) bool { return layers[i].name < layers[j].name })
	return layers
}

// surface adapts a layer to plotter.GridXYZ. Missing cells report the
// minimum finite value so they render at the palette floor instead of
// breaking the colour scale.
type surface struct {
	rows     [][]nullFloat
	cell     float64
	min, max float64
}

func newSurface(l layer, cell float64) *surface {
	s := &surface{rows: l.rows, cell: cell, min: math.Inf(1), max: math.Inf(-1)}
	for _, row := range l.rows {
		for _, v := range row {
			f := float64(v)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				continue
			}
			s.min = math.Min(s.min, f)
			s.max = math.Max(s.max, f)
		}
	}
	if s.min > s.max {
		s.min, s.max = 0, 0
	}
	return s
}

func (s *surface) Dims() (c, r int) {
	if len(s.rows) == 0 {
		return 0, 0
	}
	return len(s.rows[0]), len(s.rows)
}

func (s *surface) X(c int) float64 { return (float64(c) + 0.5) * s.cell }
func (s *surface) Y(r int) float64 { return (float64(r) + 0.5) * s.cell }

func (s *surface) Z(c, r int) float64 {
	// Plot Y grows upward; grid rows grow downward.
	v := float64(s.rows[len(s.rows)-1-r][c])
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return s.min
	}
	return v
}

func savePNG(l layer, cell float64, file string) error {
	s := newSurface(l, cell)
	pal := moreland.SmoothBlueRed().Palette(255)
	hm := plotter.NewHeatMap(s, pal)
	if hm.Min == hm.Max {
		// Constant surface; widen the range so the palette lookup stays finite.
		hm.Max = hm.Min + 1
	}

	p := plot.New()
	p.Title.Text = l.name
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.Add(hm)

	return p.Save(8*vg.Inch, 8*vg.Inch, file)
}

// saveHTML renders every layer as a value-coloured heatmap on one page.
func saveHTML(layers []layer, cell float64, runID, htmlPath string) error {
	page := components.NewPage()
	page.PageTitle = "Feature Grids"

	for _, l := range layers {
		page.AddCharts(layerChart(l, cell, runID))
	}

	f, err := os.Create(htmlPath)
	if err != nil {
		return fmt.Errorf("create summary page: %w", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("render summary page: %w", err)
	}
	return nil
}

func layerChart(l layer, cell float64, runID string) *charts.HeatMap {
	rows := len(l.rows)
	cols := 0
	if rows > 0 {
		cols = len(l.rows[0])
	}

	xAxis := make([]string, cols)
	for c := 0; c < cols; c++ {
		xAxis[c] = strconv.FormatFloat((float64(c)+0.5)*cell, 'g', 4, 64)
	}
	yAxis := make([]string, rows)
	for r := 0; r < rows; r++ {
		yAxis[r] = strconv.FormatFloat((float64(r)+0.5)*cell, 'g', 4, 64)
	}

	min, max := math.Inf(1), math.Inf(-1)
	data := make([]opts.HeatMapData, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := float64(l.rows[r][c])
			if math.IsNaN(v) || math.IsInf(v, 0) {
				// Missing cells are simply omitted from the chart.
				continue
			}
			min = math.Min(min, v)
			max = math.Max(max, v)
			data = append(data, opts.HeatMapData{Value: [3]interface{}{c, rows - 1 - r, v}})
		}
	}
	if min > max {
		min, max = 0, 1
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "700px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: l.name, Subtitle: fmt.Sprintf("run=%s cells=%d", runID, len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: xAxis, Name: "X (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: yAxis, Name: "Y (m)"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(min),
			Max:        float32(max),
			InRange:    &opts.VisualMapInRange{Color: viridisColors},
		}),
	)
	hm.AddSeries("value", data)
	return hm
}
