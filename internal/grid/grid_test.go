package grid

import (
	"errors"
	"math"
	"testing"
)

func TestFromRows(t *testing.T) {
	g, err := FromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Rows != 2 || g.Cols != 3 {
		t.Errorf("shape = %dx%d, want 2x3", g.Rows, g.Cols)
	}
	if g.At(1, 2) != 6 {
		t.Errorf("At(1,2) = %v, want 6", g.At(1, 2))
	}
}

func TestFromRowsRagged(t *testing.T) {
	_, err := FromRows([][]float64{{1, 2}, {3}})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("err = %v, want ErrShapeMismatch", err)
	}
}

func TestFromRowsEmpty(t *testing.T) {
	_, err := FromRows(nil)
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("err = %v, want ErrEmpty", err)
	}
}

func TestCheckSameShape(t *testing.T) {
	a := New(3, 4)
	b := New(3, 4)
	if err := a.CheckSameShape(b, "b"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	c := New(4, 3)
	if err := a.CheckSameShape(c, "c"); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("err = %v, want ErrShapeMismatch", err)
	}
}

func TestReplaceInf(t *testing.T) {
	g := New(1, 4)
	g.Data = []float64{1, math.Inf(1), math.Inf(-1), math.NaN()}
	n := g.ReplaceInf()
	if n != 2 {
		t.Errorf("replaced = %d, want 2", n)
	}
	if !IsMissing(g.Data[1]) || !IsMissing(g.Data[2]) {
		t.Error("infinities not replaced with missing")
	}
	if g.Data[0] != 1 {
		t.Error("finite value modified")
	}
}

func TestValidCount(t *testing.T) {
	g := New(2, 2)
	g.Data = []float64{1, math.NaN(), 3, math.NaN()}
	if got := g.ValidCount(); got != 2 {
		t.Errorf("ValidCount = %d, want 2", got)
	}
}

func TestSeriesPixelRoundTrip(t *testing.T) {
	s := NewSeries(3, 2, 2)
	want := []float64{10, 20, 30}
	s.SetPixel(1, 0, want)
	got := s.Pixel(1, 0, nil)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pixel[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	// Neighboring pixel untouched.
	for t2 := 0; t2 < 3; t2++ {
		if s.At(t2, 0, 0) != 0 {
			t.Errorf("At(%d,0,0) = %v, want 0", t2, s.At(t2, 0, 0))
		}
	}
}

func TestSeriesSub(t *testing.T) {
	a := NewSeriesFill(2, 1, 2, 5)
	b := NewSeriesFill(2, 1, 2, 2)
	got, err := Sub(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range got.Data {
		if v != 3 {
			t.Errorf("Sub value = %v, want 3", v)
		}
	}

	c := NewSeries(3, 1, 2)
	if _, err := Sub(a, c); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("err = %v, want ErrShapeMismatch", err)
	}
}

func TestSeriesValidate(t *testing.T) {
	var s *Series
	if err := s.Validate(); !errors.Is(err, ErrEmpty) {
		t.Errorf("nil series: err = %v, want ErrEmpty", err)
	}
}
