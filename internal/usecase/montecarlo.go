package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"FinBot/internal/domain/models"
	drepo "FinBot/internal/domain/repository"
	"FinBot/internal/service/metrics"
	"FinBot/internal/services/montecarlo"
	"FinBot/pkg/logger"
	"FinBot/pkg/table"

	"github.com/shopspring/decimal"
)

// MonteCarlo simulates frame days of price paths from the frame's observed
// percent changes.
func (c *Commands) MonteCarlo(ctx context.Context, ticker string, col models.Column, frame drepo.Frame) (*models.Result, error) {
	r := drepo.FrameRange(frame, c.now())
	h, err := c.history.History(ctx, ticker, r)
	if err != nil {
		return nil, c.providerErr("history", fmt.Errorf("monte carlo %s: %w", ticker, err))
	}
	prices := h.Values(col)

	sim, err := c.sim.Simulate(prices, frame.Days())
	metrics.ObserveSimulation("monte_carlo")
	if err != nil {
		return nil, fmt.Errorf("monte carlo %s: %w", ticker, simErr(err))
	}

	t := table.New("", "Value")
	t.Append("Closing", decimal.NewFromFloat(sim.AvgPrice).Round(2).String())
	t.Append("Percent Change", table.Percent(sim.PctChange))
	t.Append("Chance of Increase", table.Percent(sim.IncreaseChance))

	name := fmt.Sprintf("%s_Monte_Carlo_%s", ticker, col)
	png, err := c.charts.MonteCarlo(ticker, col, r.From, prices, sim, frame.Days())
	return &models.Result{
		Ticker:   ticker,
		Text:     t.Markdown(),
		TextName: name + ".txt",
		Chart:    c.png(name+".png", png, err),
	}, nil
}

func simErr(err error) error {
	if errors.Is(err, montecarlo.ErrNotEnoughHistory) {
		return fmt.Errorf("%w: %v", ErrNotEnoughHistory, err)
	}
	return err
}

// Top ranks the first num tickers of the universe by relevancy score.
// Tickers that fail to load or simulate are skipped.
func (c *Commands) Top(ctx context.Context, col models.Column, frame drepo.Frame, num int) (*models.Result, error) {
	tickers, err := c.universe.Tickers()
	if err != nil {
		return nil, fmt.Errorf("top: %w", err)
	}
	if num > 0 && num < len(tickers) {
		tickers = tickers[:num]
	}

	ranked := c.rank(ctx, tickers, col, frame)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, fmt.Errorf("top: %w", ErrNoData)
	}

	t := table.New("Ticker", "Relevancy Score")
	var labels []string
	var values []float64
	for _, r := range ranked {
		t.Append(r.Ticker, decimal.NewFromFloat(r.Score).String())
		if r.Score >= 0 {
			labels = append(labels, r.Ticker)
			values = append(values, r.Score)
		}
	}

	res := &models.Result{
		Text:     t.Markdown(),
		TextName: fmt.Sprintf("Top_%s.txt", col),
	}
	if len(values) > 0 {
		png, err := c.charts.Bars(fmt.Sprintf("Top %d stocks for %s in %s", num, col, frame), "Relevancy Score", labels, values)
		res.Chart = c.png(fmt.Sprintf("Top_%s.png", col), png, err)
	}
	return res, nil
}

// rank scores tickers concurrently and sorts them by descending score.
func (c *Commands) rank(ctx context.Context, tickers []string, col models.Column, frame drepo.Frame) []models.Relevancy {
	r := drepo.FrameRange(frame, c.now())

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make([]models.Relevancy, 0, len(tickers))
		sem = make(chan struct{}, c.topConcurrency)
	)
	for _, ticker := range tickers {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			score, err := c.relevancy(ctx, ticker, col, r, frame.Days())
			if err != nil {
				c.log.Warn("top: skipping ticker", logger.String("ticker", ticker), logger.Error(err))
				return
			}
			mu.Lock()
			out = append(out, models.Relevancy{Ticker: ticker, Score: score})
			mu.Unlock()
		}(ticker)
	}
	wg.Wait()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].Ticker < out[j].Ticker
		}
		return out[i].Score > out[j].Score
	})
	return out
}

func (c *Commands) relevancy(ctx context.Context, ticker string, col models.Column, r drepo.Range, days int) (float64, error) {
	h, err := c.history.History(ctx, ticker, r)
	if err != nil {
		return 0, c.providerErr("history", err)
	}
	sim, err := c.fastSim.Summary(h.Values(col), days)
	metrics.ObserveSimulation("top")
	if err != nil {
		return 0, simErr(err)
	}
	score, _ := decimal.NewFromFloat(montecarlo.Relevancy(sim)).Round(2).Float64()
	return score, nil
}
