package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"FinBot/internal/domain/models"
	drepo "FinBot/internal/domain/repository"
	"FinBot/internal/service/metrics"
	"FinBot/internal/services/forecast"
	"FinBot/pkg/logger"
	"FinBot/pkg/table"
)

// forecastLookback is ten years of daily observations, int(365.25*10).
const forecastLookback = 3652

// Forecast fits one of the automatic models to the requested column and
// predicts frame days ahead.
func (c *Commands) Forecast(ctx context.Context, model, ticker string, col models.Column, frame drepo.Frame) (*models.Result, error) {
	res, err := c.ForecastSeries(ctx, model, ticker, col, frame)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%s_%s_%s", ticker, strings.ToUpper(res.Model), col)
	png, err := c.charts.Forecast(res)
	return &models.Result{
		Ticker:   ticker,
		Text:     forecastTable(res, res.Model == forecast.ModelCES).Markdown(),
		TextName: name + ".txt",
		Chart:    c.png(name+".png", png, err),
	}, nil
}

// ForecastSeries returns the raw forecast points, recording them to the audit
// store when one is configured.
func (c *Commands) ForecastSeries(ctx context.Context, model, ticker string, col models.Column, frame drepo.Frame) (*models.ForecastResult, error) {
	model = strings.ToLower(model)
	h := frame.Days()
	if h == 0 {
		return nil, fmt.Errorf("%w: unknown timeframe %q", ErrInvalidArgs, frame)
	}

	hist, err := c.history.History(ctx, ticker, drepo.MaxRange())
	if err != nil {
		return nil, c.providerErr("history", fmt.Errorf("%s %s: %w", model, ticker, err))
	}
	hist = hist.Tail(forecastLookback)
	if len(hist.Bars) == 0 {
		return nil, fmt.Errorf("%s %s: %w", model, ticker, ErrNoData)
	}

	res, err := c.fit(model, hist, col, h)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", model, ticker, err)
	}

	if c.audit != nil {
		if err := c.audit.RecordForecast(ctx, res); err != nil {
			c.log.Warn("record forecast failed", logger.String("ticker", ticker), logger.String("model", model), logger.Error(err))
		}
	}
	return res, nil
}

func (c *Commands) fit(model string, hist *models.History, col models.Column, h int) (*models.ForecastResult, error) {
	f, err := c.forecasters.New(model)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}

	y := hist.Values(col)
	start := time.Now()
	err = f.Fit(y)
	var pred models.Prediction
	if err == nil {
		pred, err = f.Predict(h, c.level)
	}
	metrics.ObserveFit(model, start, err)
	if err != nil {
		if errors.Is(err, forecast.ErrSeriesTooShort) {
			return nil, fmt.Errorf("%w: %v", ErrNotEnoughHistory, err)
		}
		return nil, err
	}

	last := hist.Bars[len(hist.Bars)-1].Time
	res := &models.ForecastResult{
		Model:    model,
		Label:    forecast.Label(model),
		Ticker:   hist.Ticker,
		Column:   col,
		Level:    pred.Level,
		Recent:   hist.Tail(2 * h).Bars,
		Points:   make([]models.ForecastPoint, len(pred.Mean)),
		Computed: c.now(),
	}
	for i := range pred.Mean {
		res.Points[i] = models.ForecastPoint{
			Date: last.AddDate(0, 0, i+1),
			Mean: pred.Mean[i],
			Lo:   pred.Lo[i],
			Hi:   pred.Hi[i],
		}
	}
	return res, nil
}

// forecastTable prepends the last observation, dated one day before the first
// forecast, to the forecast rows. Interval columns are kept on request.
func forecastTable(res *models.ForecastResult, withInterval bool) *table.Table {
	cols := []string{res.Label}
	if withInterval {
		lvl := fmt.Sprintf("%g", res.Level)
		cols = append(cols, res.Label+"-lo-"+lvl, res.Label+"-hi-"+lvl)
	}
	t := table.New("ds", cols...)

	if len(res.Recent) > 0 && len(res.Points) > 0 {
		lastObs := res.Recent[len(res.Recent)-1].Value(res.Column)
		day := res.Points[0].Date.AddDate(0, 0, -1)
		if withInterval {
			t.AppendValues(table.Date(day), lastObs, "nan", "nan")
		} else {
			t.AppendValues(table.Date(day), lastObs)
		}
	}
	for _, p := range res.Points {
		if withInterval {
			t.AppendValues(table.Date(p.Date), p.Mean, p.Lo, p.Hi)
		} else {
			t.AppendValues(table.Date(p.Date), p.Mean)
		}
	}
	return t
}
