// Package chart renders PNG charts for command replies with gonum/plot.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"sort"
	"time"

	"FinBot/internal/domain/models"
	domsvc "FinBot/internal/domain/service"
	"FinBot/internal/services/forecast"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ErrNoPoints is returned when there is nothing to draw.
var ErrNoPoints = errors.New("chart has no points")

const dateFormat = "2006-01-02"

// Renderer draws fixed-size PNG charts.
type Renderer struct {
	width  vg.Length
	height vg.Length
}

// Option configures Renderer.
type Option func(*Renderer)

// WithSize sets the canvas size.
func WithSize(w, h vg.Length) Option {
	return func(r *Renderer) {
		r.width, r.height = w, h
	}
}

func New(opts ...Option) *Renderer {
	r := &Renderer{width: 6 * vg.Inch, height: 4 * vg.Inch}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	return p
}

func (r *Renderer) encode(p *plot.Plot) ([]byte, error) {
	wt, err := p.WriterTo(r.width, r.height, "png")
	if err != nil {
		return nil, fmt.Errorf("chart writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func line(xys plotter.XYs, c color.Color) (*plotter.Line, error) {
	l, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("line: %w", err)
	}
	l.Color = c
	l.Width = vg.Points(1)
	return l, nil
}

func unix(t time.Time) float64 { return float64(t.Unix()) }

// History draws the four price columns over time.
func (r *Renderer) History(title string, bars []models.Bar) ([]byte, error) {
	if len(bars) == 0 {
		return nil, ErrNoPoints
	}
	p := newPlot(title, "Date", "Price($)")
	p.X.Tick.Marker = plot.TimeTicks{Format: dateFormat}
	for i, col := range models.PriceColumns {
		xys := make(plotter.XYs, len(bars))
		for j, b := range bars {
			xys[j].X = unix(b.Time)
			xys[j].Y = b.Value(col)
		}
		l, err := line(xys, plotutil.Color(i))
		if err != nil {
			return nil, err
		}
		p.Add(l)
		p.Legend.Add(string(col), l)
	}
	return r.encode(p)
}

// Forecast draws recent observations, the forecast mean and its interval band.
func (r *Renderer) Forecast(res *models.ForecastResult) ([]byte, error) {
	if res == nil || len(res.Points) == 0 {
		return nil, ErrNoPoints
	}
	title := fmt.Sprintf("%s: %s", forecast.Title(res.Model), res.Ticker)
	p := newPlot(title, "Time (Days)", fmt.Sprintf("%s Price($)", res.Column))
	p.X.Tick.Marker = plot.TimeTicks{Format: dateFormat}

	band := make(plotter.XYs, 0, 2*len(res.Points))
	for _, pt := range res.Points {
		band = append(band, plotter.XY{X: unix(pt.Date), Y: pt.Hi})
	}
	for i := len(res.Points) - 1; i >= 0; i-- {
		pt := res.Points[i]
		band = append(band, plotter.XY{X: unix(pt.Date), Y: pt.Lo})
	}
	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return nil, fmt.Errorf("band: %w", err)
	}
	poly.Color = color.RGBA{R: 31, G: 119, B: 180, A: 60}
	poly.LineStyle.Width = 0
	p.Add(poly)
	p.Legend.Add(fmt.Sprintf("%s-lo/hi-%.0f", forecast.Label(res.Model), res.Level), poly)

	if len(res.Recent) > 0 {
		obs := make(plotter.XYs, len(res.Recent))
		for i, b := range res.Recent {
			obs[i] = plotter.XY{X: unix(b.Time), Y: b.Value(res.Column)}
		}
		l, err := line(obs, color.Black)
		if err != nil {
			return nil, err
		}
		p.Add(l)
		p.Legend.Add(string(res.Column), l)
	}

	fc := make(plotter.XYs, len(res.Points))
	for i, pt := range res.Points {
		fc[i] = plotter.XY{X: unix(pt.Date), Y: pt.Mean}
	}
	l, err := line(fc, plotutil.Color(0))
	if err != nil {
		return nil, err
	}
	p.Add(l)
	p.Legend.Add(forecast.Label(res.Model), l)
	return r.encode(p)
}

// MonteCarlo draws the observed series against its trading-day index
// followed by every simulated path.
func (r *Renderer) MonteCarlo(ticker string, col models.Column, from time.Time, observed []float64, sim models.Simulation, frameDays int) ([]byte, error) {
	if len(observed) == 0 {
		return nil, ErrNoPoints
	}
	p := newPlot(fmt.Sprintf("Monte Carlo: %s", ticker),
		fmt.Sprintf("Trading Days After %s", from.Format(dateFormat)),
		fmt.Sprintf("%s Price($)", col))

	start := len(observed) - 1
	days := 0
	for i, path := range sim.Paths {
		xys := make(plotter.XYs, len(path))
		for j, v := range path {
			xys[j] = plotter.XY{X: float64(start + j), Y: v}
		}
		if len(path)-1 > days {
			days = len(path) - 1
		}
		l, err := line(xys, plotutil.Color(i))
		if err != nil {
			return nil, err
		}
		l.Width = vg.Points(0.5)
		p.Add(l)
	}

	obs := make(plotter.XYs, len(observed))
	for i, v := range observed {
		obs[i] = plotter.XY{X: float64(i), Y: v}
	}
	l, err := line(obs, color.Black)
	if err != nil {
		return nil, err
	}
	l.Width = vg.Points(1.5)
	p.Add(l)
	p.Legend.Add(string(col), l)

	p.X.Min = float64(frameDays) / 2
	p.X.Max = float64(len(observed) + days)
	return r.encode(p)
}

// Bars draws a labelled bar chart.
func (r *Renderer) Bars(title, ylabel string, labels []string, values []float64) ([]byte, error) {
	if len(values) == 0 || len(labels) != len(values) {
		return nil, ErrNoPoints
	}
	p := newPlot(title, "", ylabel)
	bc, err := plotter.NewBarChart(plotter.Values(values), vg.Points(18))
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	bc.Color = plotutil.Color(0)
	bc.LineStyle.Width = 0
	p.Add(bc)
	p.NominalX(labels...)
	return r.encode(p)
}

// Series draws a single dated line.
func (r *Renderer) Series(title, ylabel string, dates []time.Time, values []float64) ([]byte, error) {
	if len(values) == 0 || len(dates) != len(values) {
		return nil, ErrNoPoints
	}
	p := newPlot(title, "Date", ylabel)
	p.X.Tick.Marker = plot.TimeTicks{Format: dateFormat}
	xys := make(plotter.XYs, len(values))
	for i, v := range values {
		xys[i] = plotter.XY{X: unix(dates[i]), Y: v}
	}
	l, err := line(xys, plotutil.Color(0))
	if err != nil {
		return nil, err
	}
	pts, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("scatter: %w", err)
	}
	pts.GlyphStyle.Color = plotutil.Color(0)
	p.Add(l, pts)
	p.Legend.Add(ylabel, l)
	return r.encode(p)
}

// Lines draws several dated series on one axis, in name order.
func (r *Renderer) Lines(title string, dates []time.Time, series map[string][]float64) ([]byte, error) {
	if len(dates) == 0 || len(series) == 0 {
		return nil, ErrNoPoints
	}
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	p := newPlot(title, "Date", "")
	p.X.Tick.Marker = plot.TimeTicks{Format: dateFormat}
	for i, name := range names {
		values := series[name]
		if len(values) != len(dates) {
			return nil, fmt.Errorf("series %s: %d values for %d dates", name, len(values), len(dates))
		}
		xys := make(plotter.XYs, len(values))
		for j, v := range values {
			xys[j] = plotter.XY{X: unix(dates[j]), Y: v}
		}
		l, err := line(xys, plotutil.Color(i))
		if err != nil {
			return nil, err
		}
		p.Add(l)
		p.Legend.Add(name, l)
	}
	return r.encode(p)
}

var _ domsvc.ChartRenderer = (*Renderer)(nil)
