package repository

import (
	"fmt"
	"time"
)

// Frame is a look-back or look-ahead window named in commands.
type Frame string

const (
	FrameDay   Frame = "day"
	FrameWeek  Frame = "week"
	FrameMonth Frame = "month"
	FrameYear  Frame = "year"
)

var frameDays = map[Frame]int{
	FrameDay:   1,
	FrameWeek:  7,
	FrameMonth: 30,
	FrameYear:  365,
}

// PeriodMax requests the full available history.
const PeriodMax = "max"

// Days returns the calendar days covered by f.
func (f Frame) Days() int {
	return frameDays[f]
}

// IsValidFrame returns true if f is a supported frame.
func IsValidFrame(f Frame) bool {
	_, ok := frameDays[f]
	return ok
}

// DefaultFrame returns the default frame.
func DefaultFrame() Frame { return FrameWeek }

// ParseFrame converts a raw string to a frame.
func ParseFrame(s string) (Frame, error) {
	f := Frame(s)
	if !IsValidFrame(f) {
		return "", fmt.Errorf("unknown timeframe %q", s)
	}
	return f, nil
}

// Range is a daily history window. Max ignores From/To.
type Range struct {
	From time.Time
	To   time.Time
	Max  bool
}

// MaxRange requests all available history.
func MaxRange() Range { return Range{Max: true} }

// FrameRange returns [now - frame, now].
func FrameRange(f Frame, now time.Time) Range {
	return Range{From: now.AddDate(0, 0, -f.Days()), To: now}
}

// PeriodRange resolves a history period ("max" or a frame name).
func PeriodRange(period string, now time.Time) (Range, error) {
	if period == PeriodMax {
		return MaxRange(), nil
	}
	f, err := ParseFrame(period)
	if err != nil {
		return Range{}, err
	}
	return FrameRange(f, now), nil
}
