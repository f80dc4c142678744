// Package yahoo reads daily history, corporate actions and batch quotes from
// the Yahoo Finance chart and quote APIs.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"FinBot/internal/domain/models"
	drepo "FinBot/internal/domain/repository"
	"FinBot/internal/service/provider"
	"FinBot/pkg/util"
)

// ErrNoData is returned when the chart API has no rows for a ticker.
var ErrNoData = fmt.Errorf("yahoo: %w", drepo.ErrNoData)

const defaultBatch = 1900

// Client talks to query1.finance.yahoo.com.
type Client struct {
	base      *provider.HTTPBase
	batchSize int
	now       func() time.Time
}

// Option configures Client.
type Option func(*Client)

// WithBatchSize caps symbols per quote request.
func WithBatchSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithClock overrides the clock used for open-ended ranges.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		base:      provider.NewHTTPBase("yahoo", strings.TrimRight(baseURL, "/"), timeout),
		batchSize: defaultBatch,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp []int64 `json:"timestamp"`
	Events    struct {
		Dividends map[string]struct {
			Amount float64 `json:"amount"`
			Date   int64   `json:"date"`
		} `json:"dividends"`
		Splits map[string]struct {
			Date        int64   `json:"date"`
			Numerator   float64 `json:"numerator"`
			Denominator float64 `json:"denominator"`
		} `json:"splits"`
	} `json:"events"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

func (c *Client) chart(ctx context.Context, ticker string, r drepo.Range) (*chartResult, error) {
	q := map[string][]string{
		"interval":       {"1d"},
		"events":         {"div,splits"},
		"includePrePost": {"false"},
	}
	if r.Max {
		q["range"] = []string{"max"}
	} else {
		to := r.To
		if to.IsZero() {
			to = c.now()
		}
		q["period1"] = []string{strconv.FormatInt(r.From.Unix(), 10)}
		q["period2"] = []string{strconv.FormatInt(to.Unix(), 10)}
	}

	var resp chartResponse
	err := c.base.GetWithRetry(ctx, "/v8/finance/chart/"+ticker, q, &resp)
	if provider.IsNotFound(err) {
		return nil, fmt.Errorf("%w for %s", ErrNoData, ticker)
	}
	if err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("%w for %s: %s", ErrNoData, ticker, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, ticker)
	}
	return &resp.Chart.Result[0], nil
}

// day converts an exchange timestamp to the trading date at UTC midnight.
func day(ts, offset int64) time.Time {
	return util.TruncateDay(time.Unix(ts+offset, 0).UTC())
}

// History returns daily bars with dividends and split ratios merged in.
func (c *Client) History(ctx context.Context, ticker string, r drepo.Range) (*models.History, error) {
	res, err := c.chart(ctx, ticker, r)
	if err != nil {
		return nil, err
	}
	h := &models.History{Ticker: ticker}
	if len(res.Indicators.Quote) == 0 {
		return h, nil
	}
	q := res.Indicators.Quote[0]
	off := res.Meta.GMTOffset

	divs := map[time.Time]float64{}
	for _, d := range res.Events.Dividends {
		divs[day(d.Date, off)] += d.Amount
	}
	splits := map[time.Time]float64{}
	for _, s := range res.Events.Splits {
		if s.Denominator != 0 {
			splits[day(s.Date, off)] = s.Numerator / s.Denominator
		}
	}

	for i, ts := range res.Timestamp {
		cl := at(q.Close, i)
		if cl == nil {
			continue
		}
		t := day(ts, off)
		b := models.Bar{
			Time:     t,
			Open:     deref(at(q.Open, i)),
			High:     deref(at(q.High, i)),
			Low:      deref(at(q.Low, i)),
			Close:    *cl,
			Volume:   deref(at(q.Volume, i)),
			Dividend: divs[t],
			Split:    splits[t],
		}
		h.Bars = append(h.Bars, b)
	}
	if len(h.Bars) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, ticker)
	}
	return h, nil
}

// Actions returns every dividend and split over the full history.
func (c *Client) Actions(ctx context.Context, ticker string) (*models.Actions, error) {
	res, err := c.chart(ctx, ticker, drepo.MaxRange())
	if err != nil {
		return nil, err
	}
	off := res.Meta.GMTOffset
	out := &models.Actions{Ticker: ticker}
	for _, d := range res.Events.Dividends {
		out.Dividends = append(out.Dividends, models.Dividend{Date: day(d.Date, off), Amount: d.Amount})
	}
	for _, s := range res.Events.Splits {
		out.Splits = append(out.Splits, models.Split{Date: day(s.Date, off), Numerator: s.Numerator, Denominator: s.Denominator})
	}
	sort.Slice(out.Dividends, func(i, j int) bool { return out.Dividends[i].Date.Before(out.Dividends[j].Date) })
	sort.Slice(out.Splits, func(i, j int) bool { return out.Splits[i].Date.Before(out.Splits[j].Date) })
	return out, nil
}

// number accepts a plain JSON number or a formatted {"raw": x} object.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '{' {
		var v struct {
			Raw float64 `json:"raw"`
		}
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*n = number(v.Raw)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = number(f)
	return nil
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                     string `json:"symbol"`
			RegularMarketPrice         number `json:"regularMarketPrice"`
			RegularMarketChangePercent number `json:"regularMarketChangePercent"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

// Quotes fetches change percents in batches. A failed batch is skipped only
// when others succeed.
func (c *Client) Quotes(ctx context.Context, symbols []string) ([]models.Quote, error) {
	var (
		out     []models.Quote
		lastErr error
		okCount int
	)
	for start := 0; start < len(symbols); start += c.batchSize {
		end := start + c.batchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		var resp quoteResponse
		err := c.base.GetWithRetry(ctx, "/v7/finance/quote", map[string][]string{
			"symbols": {strings.Join(symbols[start:end], ",")},
		}, &resp)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		okCount++
		for _, r := range resp.QuoteResponse.Result {
			out = append(out, models.Quote{
				Symbol:        r.Symbol,
				Price:         float64(r.RegularMarketPrice),
				ChangePercent: float64(r.RegularMarketChangePercent),
			})
		}
	}
	if okCount == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

func at(xs []*float64, i int) *float64 {
	if i < len(xs) {
		return xs[i]
	}
	return nil
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

var (
	_ drepo.HistoryProvider = (*Client)(nil)
	_ drepo.ActionsProvider = (*Client)(nil)
	_ drepo.QuoteSource     = (*Client)(nil)
)
