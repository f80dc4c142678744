package repository

import (
	"testing"
	"time"
)

func TestFrameDays(t *testing.T) {
	want := map[Frame]int{FrameDay: 1, FrameWeek: 7, FrameMonth: 30, FrameYear: 365}
	for f, days := range want {
		if f.Days() != days {
			t.Fatalf("%s days = %d, want %d", f, f.Days(), days)
		}
	}
	if Frame("decade").Days() != 0 {
		t.Fatalf("unknown frame should have zero days")
	}
}

func TestParseFrame(t *testing.T) {
	if f, err := ParseFrame("month"); err != nil || f != FrameMonth {
		t.Fatalf("parse month = %v, %v", f, err)
	}
	if _, err := ParseFrame("Month"); err == nil {
		t.Fatalf("frames are case sensitive")
	}
}

func TestPeriodRange(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	r, err := PeriodRange("max", now)
	if err != nil || !r.Max {
		t.Fatalf("max range = %+v, %v", r, err)
	}

	r, err = PeriodRange("week", now)
	if err != nil {
		t.Fatalf("week: %v", err)
	}
	if !r.From.Equal(now.AddDate(0, 0, -7)) || !r.To.Equal(now) || r.Max {
		t.Fatalf("week range = %+v", r)
	}

	if _, err := PeriodRange("fortnight", now); err == nil {
		t.Fatalf("expected error")
	}
}
