package chart

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"FinBot/internal/domain/models"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func bars(n int) []models.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Bar, n)
	for i := range out {
		v := 100 + float64(i)
		out[i] = models.Bar{Time: start.AddDate(0, 0, i), Open: v, High: v + 1, Low: v - 1, Close: v + 0.5}
	}
	return out
}

func isPNG(t *testing.T, b []byte, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(b, pngMagic) {
		t.Fatalf("output is not a png")
	}
}

func TestHistory(t *testing.T) {
	b, err := New().History("AAPL", bars(30))
	isPNG(t, b, err)
}

func TestForecast(t *testing.T) {
	recent := bars(14)
	last := recent[len(recent)-1]
	res := &models.ForecastResult{Model: "arima", Ticker: "AAPL", Column: models.ColClose, Level: 90, Recent: recent}
	for i := 1; i <= 7; i++ {
		res.Points = append(res.Points, models.ForecastPoint{
			Date: last.Time.AddDate(0, 0, i), Mean: last.Close, Lo: last.Close - float64(i), Hi: last.Close + float64(i),
		})
	}
	b, err := New().Forecast(res)
	isPNG(t, b, err)
}

func TestMonteCarlo(t *testing.T) {
	obs := []float64{10, 11, 12, 11, 13}
	sim := models.Simulation{Paths: [][]float64{{13, 14, 15}, {13, 12, 11}}}
	b, err := New().MonteCarlo("AAPL", models.ColClose, time.Now(), obs, sim, 7)
	isPNG(t, b, err)
}

func TestBarsAndSeries(t *testing.T) {
	r := New()
	b, err := r.Bars("Top 2 stocks for Close in week", "Relevancy Score", []string{"AAPL", "MSFT"}, []float64{3.2, 1.1})
	isPNG(t, b, err)

	dates := []time.Time{time.Now().AddDate(0, -6, 0), time.Now().AddDate(0, -3, 0), time.Now()}
	b, err = r.Series("Shares Outstanding for AAPL by Quarter", "Shares Outstanding", dates, []float64{1, 2, 3})
	isPNG(t, b, err)
}

func TestLines(t *testing.T) {
	dates := []time.Time{time.Now().AddDate(-2, 0, 0), time.Now().AddDate(-1, 0, 0), time.Now()}
	b, err := New().Lines("AAPL Actions", dates, map[string][]float64{
		"Dividends":    {0.22, 0, 0.24},
		"Stock Splits": {0, 4, 0},
	})
	isPNG(t, b, err)

	if _, err := New().Lines("x", dates, map[string][]float64{"a": {1}}); err == nil {
		t.Fatalf("expected length mismatch error")
	}
}

func TestEmptyInputs(t *testing.T) {
	r := New()
	if _, err := r.History("x", nil); !errors.Is(err, ErrNoPoints) {
		t.Fatalf("expected ErrNoPoints, got %v", err)
	}
	if _, err := r.Bars("x", "y", []string{"a"}, nil); !errors.Is(err, ErrNoPoints) {
		t.Fatalf("expected ErrNoPoints, got %v", err)
	}
}
