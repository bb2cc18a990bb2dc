package main

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/aquapredict-data/feature-engine/internal/features"
)

func TestFeatureBundleDecodesReportFields(t *testing.T) {
	// The bundle here must stay wire-compatible with what the features
	// command writes, cell size included: a mismatch silently degrades
	// every plot axis to cell units.
	report := features.Report{
		RunID:    "run-1",
		Rows:     2,
		Cols:     3,
		CellSize: 1000,
	}
	data, err := json.Marshal(struct {
		Report features.Report `json:"report"`
	}{report})
	if err != nil {
		t.Fatal(err)
	}

	var bundle featureBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Report.CellSize != 1000 {
		t.Errorf("decoded cell size = %v, want 1000", bundle.Report.CellSize)
	}
	if bundle.Report.RunID != "run-1" || bundle.Report.Rows != 2 || bundle.Report.Cols != 3 {
		t.Errorf("decoded report = %+v, want run-1 2x3", bundle.Report)
	}
}

func TestNullFloatDecodesNullAsMissing(t *testing.T) {
	var row []nullFloat
	if err := json.Unmarshal([]byte(`[1.5, null, 2]`), &row); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(row) != 3 {
		t.Fatalf("len = %d, want 3", len(row))
	}
	if !math.IsNaN(float64(row[1])) {
		t.Errorf("row[1] = %v, want NaN", row[1])
	}
	if row[0] != 1.5 || row[2] != 2 {
		t.Errorf("row = %v, want [1.5 NaN 2]", row)
	}
}
