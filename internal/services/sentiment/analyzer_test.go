package sentiment

import (
	"errors"
	"math"
	"testing"
)

func TestPolarityScores(t *testing.T) {
	a := New()
	cases := map[string]struct {
		text string
		sign int
	}{
		"cheer":      {"Investors cheer as Nvidia smashes expectations", 1},
		"delighted":  {"Microsoft delighted with blockbuster quarter", 1},
		"strong":     {"Apple shares surge after strong earnings", 1},
		"negative":   {"Tesla reports terrible losses amid fraud lawsuit", -1},
		"neutral":    {"Apple to report results on Thursday", 0},
		"negated":    {"Analysts are not happy about the quarter", -1},
		"but clause": {"Revenue was weak but guidance looks great", 1},
	}
	for name, tc := range cases {
		got := a.PolarityScores(tc.text).Compound
		switch {
		case tc.sign > 0 && got <= 0,
			tc.sign < 0 && got >= 0,
			tc.sign == 0 && got != 0:
			t.Fatalf("%s: compound = %v, want sign %d", name, got, tc.sign)
		}
	}
}

func TestProportionsSumToOne(t *testing.T) {
	s := New().PolarityScores("Stocks rally as inflation fears fade")
	if sum := s.Pos + s.Neg + s.Neu; math.Abs(sum-1) > 0.01 {
		t.Fatalf("pos+neg+neu = %v", sum)
	}
}

func TestBoosterAndEmphasis(t *testing.T) {
	a := New()
	plain := a.PolarityScores("earnings were good").Compound
	boosted := a.PolarityScores("earnings were very good").Compound
	shouted := a.PolarityScores("earnings were very good!!!").Compound
	if !(plain < boosted && boosted < shouted) {
		t.Fatalf("expected plain < boosted < shouted, got %v %v %v", plain, boosted, shouted)
	}
}

func TestCompoundNormalisation(t *testing.T) {
	// "great" alone: 3.1 / sqrt(3.1^2 + 15)
	want := 3.1 / math.Sqrt(3.1*3.1+15)
	got := New().PolarityScores("great").Compound
	if math.Abs(got-want) > 1e-3 {
		t.Fatalf("compound = %v, want %v", got, want)
	}
}

func TestMeanCompound(t *testing.T) {
	a := New()
	got, err := a.MeanCompound([]string{"great", "bad", "Investors cheer as Nvidia smashes expectations"})
	if err != nil {
		t.Fatalf("mean: %v", err)
	}
	if got <= 0 || got != math.Round(got*100)/100 {
		t.Fatalf("mean = %v, want positive and rounded to 2 places", got)
	}
	if _, err := a.MeanCompound(nil); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}
