// Package alpaca serves daily bars and news through the Alpaca market data API.
package alpaca

import (
	"context"
	"fmt"
	"time"

	"FinBot/internal/domain/models"
	drepo "FinBot/internal/domain/repository"
	"FinBot/pkg/util"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// ErrNoData is returned when no bars are available.
var ErrNoData = fmt.Errorf("alpaca: %w", drepo.ErrNoData)

// maxHistoryStart bounds "max" requests; the API has no earlier daily bars.
var maxHistoryStart = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

// MarketData is the subset of the SDK client used here.
type MarketData interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
	GetNews(req marketdata.GetNewsRequest) ([]marketdata.News, error)
}

// Client adapts the SDK to the history and news provider interfaces.
type Client struct {
	md  MarketData
	now func() time.Time
}

func New(apiKey, apiSecret string) *Client {
	return NewWithMarketData(marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}))
}

// NewWithMarketData wraps an existing SDK client.
func NewWithMarketData(md MarketData) *Client {
	return &Client{md: md, now: time.Now}
}

// History returns split and dividend adjusted daily bars. The SDK call is
// blocking and has no context; ctx is checked before it starts.
func (c *Client) History(ctx context.Context, ticker string, r drepo.Range) (*models.History, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req := marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.All,
		Start:      r.From,
		End:        r.To,
	}
	if r.Max {
		req.Start = maxHistoryStart
		req.End = c.now()
	}
	bars, err := c.md.GetBars(ticker, req)
	if err != nil {
		return nil, fmt.Errorf("alpaca bars %s: %w", ticker, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, ticker)
	}
	h := &models.History{Ticker: ticker, Bars: make([]models.Bar, len(bars))}
	for i, b := range bars {
		h.Bars[i] = models.Bar{
			Time:   util.TruncateDay(b.Timestamp),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: float64(b.Volume),
		}
	}
	return h, nil
}

// News returns the latest articles that mention ticker.
func (c *Client) News(ctx context.Context, ticker string, limit int) ([]models.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	news, err := c.md.GetNews(marketdata.GetNewsRequest{
		Symbols:    []string{ticker},
		TotalLimit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca news %s: %w", ticker, err)
	}
	out := make([]models.Article, len(news))
	for i, n := range news {
		out[i] = models.Article{
			Headline:  n.Headline,
			URL:       n.URL,
			Source:    n.Author,
			Related:   n.Symbols,
			Published: n.CreatedAt,
		}
	}
	return out, nil
}

var (
	_ drepo.HistoryProvider = (*Client)(nil)
	_ drepo.NewsProvider    = (*Client)(nil)
)
