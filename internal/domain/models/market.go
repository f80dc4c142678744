package models

import (
	"fmt"
	"time"
)

// Column names a price field of a daily bar.
type Column string

const (
	ColOpen  Column = "Open"
	ColHigh  Column = "High"
	ColLow   Column = "Low"
	ColClose Column = "Close"
)

// PriceColumns lists the plotted price columns in display order.
var PriceColumns = []Column{ColOpen, ColHigh, ColLow, ColClose}

// ParseColumn accepts the four price column names.
func ParseColumn(s string) (Column, error) {
	switch c := Column(s); c {
	case ColOpen, ColHigh, ColLow, ColClose:
		return c, nil
	default:
		return "", fmt.Errorf("unknown column %q", s)
	}
}

// Bar is one daily OHLCV record.
type Bar struct {
	Time     time.Time `json:"t"`
	Open     float64   `json:"o"`
	High     float64   `json:"h"`
	Low      float64   `json:"l"`
	Close    float64   `json:"c"`
	Volume   float64   `json:"v"`
	Dividend float64   `json:"d,omitempty"`
	Split    float64   `json:"s,omitempty"`
}

// Value returns the field named by col.
func (b Bar) Value(col Column) float64 {
	switch col {
	case ColOpen:
		return b.Open
	case ColHigh:
		return b.High
	case ColLow:
		return b.Low
	default:
		return b.Close
	}
}

// History is a ticker's daily bars in ascending time order.
type History struct {
	Ticker string `json:"ticker"`
	Bars   []Bar  `json:"bars"`
}

// Values extracts one column.
func (h *History) Values(col Column) []float64 {
	out := make([]float64, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = b.Value(col)
	}
	return out
}

// Dates returns bar timestamps.
func (h *History) Dates() []time.Time {
	out := make([]time.Time, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = b.Time
	}
	return out
}

// Tail keeps the last n bars.
func (h *History) Tail(n int) *History {
	if n <= 0 || n >= len(h.Bars) {
		return h
	}
	return &History{Ticker: h.Ticker, Bars: h.Bars[len(h.Bars)-n:]}
}

type Dividend struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

type Split struct {
	Date        time.Time `json:"date"`
	Numerator   float64   `json:"numerator"`
	Denominator float64   `json:"denominator"`
}

// Ratio is the split factor, e.g. 4 for a 4:1 split.
func (s Split) Ratio() float64 {
	if s.Denominator == 0 {
		return 0
	}
	return s.Numerator / s.Denominator
}

// Actions holds a ticker's corporate actions.
type Actions struct {
	Ticker    string
	Dividends []Dividend
	Splits    []Split
}

// Quote is a point-in-time market snapshot used by movers.
type Quote struct {
	Symbol        string
	Price         float64
	ChangePercent float64
}
