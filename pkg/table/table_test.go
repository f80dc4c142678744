package table

import (
	"strings"
	"testing"
	"time"
)

func TestMarkdown(t *testing.T) {
	tb := New("Ticker", "Relevancy Score")
	tb.AppendValues("AAPL", 3.5)
	tb.AppendValues("MSFT", -1.25)

	out := tb.Markdown()
	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator and 2 rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "|") || !strings.Contains(lines[0], "Relevancy Score") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], "---") {
		t.Fatalf("unexpected separator %q", lines[1])
	}
	if !strings.Contains(lines[2], "AAPL") || !strings.Contains(lines[2], "3.5") {
		t.Fatalf("unexpected row %q", lines[2])
	}
	if tb.Len() != 2 {
		t.Fatalf("len = %d", tb.Len())
	}
}

func TestCell(t *testing.T) {
	v := 1.5
	cases := map[string]struct {
		in   interface{}
		want string
	}{
		"nil":      {nil, ""},
		"float":    {2.25, "2.25"},
		"nil ptr":  {(*float64)(nil), "nan"},
		"ptr":      {&v, "1.5"},
		"int":      {42, "42"},
		"bool":     {true, "True"},
		"date":     {time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "2024-03-01"},
		"datetime": {time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), "2024-03-01 09:30:00"},
	}
	for name, tc := range cases {
		if got := Cell(tc.in); got != tc.want {
			t.Fatalf("%s: got %q want %q", name, got, tc.want)
		}
	}
}

func TestPercentAndFixed(t *testing.T) {
	if got := Percent(0.05123); got != "5.12%" {
		t.Fatalf("percent = %q", got)
	}
	if got := Fixed(101.5, 2); got != "101.50" {
		t.Fatalf("fixed = %q", got)
	}
}
