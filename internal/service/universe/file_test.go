package universe

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTickers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickers.txt")
	if err := os.WriteFile(path, []byte("aapl\n\n# comment\n MSFT \nnvda\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := NewFile(path).Tickers()
	if err != nil {
		t.Fatalf("tickers: %v", err)
	}
	want := []string{"AAPL", "MSFT", "NVDA"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestTickersMissingFile(t *testing.T) {
	if _, err := NewFile("/nonexistent/tickers.txt").Tickers(); err == nil {
		t.Fatalf("expected error")
	}
}
