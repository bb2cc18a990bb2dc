package features

import (
	"time"

	"github.com/google/uuid"
)

// Report is the per-run quality summary attached to every facade run. It
// makes silent pixel degradation visible: a caller can distinguish "this
// feature is missing here" from "the pipeline quietly lost data quality".
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Rows     int     `json:"rows"`
	Cols     int     `json:"cols"`
	CellSize float64 `json:"cell_size_m"`

	// Features lists every produced feature name, sorted.
	Features []string `json:"features"`

	// DegradedPixels maps an index name to the number of pixels (or cells,
	// for non-finite sweeps) that degraded to missing while computing it.
	DegradedPixels map[string]int `json:"degraded_pixels,omitempty"`
	TotalDegraded  int            `json:"total_degraded"`
}

func newReport(rows, cols int, cellSize float64) *Report {
	return &Report{
		RunID:          uuid.NewString(),
		GeneratedAt:    time.Now().UTC(),
		Rows:           rows,
		Cols:           cols,
		CellSize:       cellSize,
		DegradedPixels: map[string]int{},
	}
}

func (r *Report) recordDegraded(name string, n int) {
	if n <= 0 {
		return
	}
	r.DegradedPixels[name] += n
	r.TotalDegraded += n
}

func (r *Report) finish(set *Set) {
	r.Features = set.Names()
}
