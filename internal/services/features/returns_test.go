package features

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPctChange(t *testing.T) {
	got := PctChange([]float64{100, 110, 99})
	want := []float64{0.1, -0.1}
	if len(got) != len(want) {
		t.Fatalf("len = %d", len(got))
	}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Fatalf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if PctChange([]float64{1}) != nil {
		t.Fatalf("single price should yield nil")
	}
}

func TestLogReturns(t *testing.T) {
	got := LogReturns([]float64{1, math.E, 0})
	if !almostEqual(got[0], 1) || got[1] != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestTailAndDiff(t *testing.T) {
	xs := []float64{1, 3, 6, 10}
	if tail := Tail(xs, 2); len(tail) != 2 || tail[0] != 6 {
		t.Fatalf("tail = %v", tail)
	}
	if tail := Tail(xs, 10); len(tail) != 4 {
		t.Fatalf("tail over length = %v", tail)
	}
	d := Diff(xs, 1)
	if len(d) != 3 || d[0] != 2 || d[2] != 4 {
		t.Fatalf("diff = %v", d)
	}
	if Diff(xs, 4) != nil {
		t.Fatalf("lag >= len should be nil")
	}
}

func TestAutocorrelationPeriodic(t *testing.T) {
	xs := make([]float64, 70)
	for i := range xs {
		xs[i] = math.Sin(2 * math.Pi * float64(i) / 7)
	}
	acf := Autocorrelation(xs, 7)
	if acf[6] < 0.8 {
		t.Fatalf("lag 7 acf = %v, expected strong seasonality", acf[6])
	}
	if acf[2] > 0 {
		t.Fatalf("lag 3 acf = %v, expected negative", acf[2])
	}
}

func TestFinite(t *testing.T) {
	if !Finite([]float64{1, 2}) || Finite([]float64{1, math.NaN()}) || Finite([]float64{math.Inf(1)}) {
		t.Fatalf("finite check wrong")
	}
}
