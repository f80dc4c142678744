package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"FinBot/internal/domain/models"
	drepo "FinBot/internal/domain/repository"
	domsvc "FinBot/internal/domain/service"
	"FinBot/pkg/logger"
	"FinBot/pkg/table"

	"github.com/shopspring/decimal"
	"github.com/tidwall/pretty"
)

// Deps are the providers and services the commands are built from.
type Deps struct {
	History       drepo.HistoryProvider
	Actions       drepo.ActionsProvider
	Fundamentals  drepo.FundamentalsProvider
	News          drepo.NewsProvider
	Headlines     drepo.HeadlineSource
	Universe      drepo.TickerUniverse
	Forecasters   domsvc.ForecasterFactory
	Simulator     domsvc.Simulator
	FastSimulator domsvc.Simulator
	Sentiment     domsvc.SentimentAnalyzer
	Charts        domsvc.ChartRenderer
	Audit         drepo.AuditStore
	Metrics       drepo.Metrics
	Log           *logger.Logger
}

// Commands implements one operation per chat command. Each operation returns
// a rendered table plus optional chart; delivery is left to the caller.
type Commands struct {
	history      drepo.HistoryProvider
	actions      drepo.ActionsProvider
	fundamentals drepo.FundamentalsProvider
	news         drepo.NewsProvider
	headlines    drepo.HeadlineSource
	universe     drepo.TickerUniverse
	forecasters  domsvc.ForecasterFactory
	sim          domsvc.Simulator
	fastSim      domsvc.Simulator
	sentiment    domsvc.SentimentAnalyzer
	charts       domsvc.ChartRenderer
	audit        drepo.AuditStore
	metrics      drepo.Metrics
	log          *logger.Logger

	now            func() time.Time
	level          float64
	headlineCount  int
	newsLimit      int
	calendarDays   int
	topConcurrency int
}

type Option func(*Commands)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Commands) { c.now = now }
}

// WithLevel sets the prediction interval level in percent.
func WithLevel(level float64) Option {
	return func(c *Commands) {
		if level > 0 && level < 100 {
			c.level = level
		}
	}
}

// WithHeadlineCount sets how many scraped headlines feed the sentiment score.
func WithHeadlineCount(n int) Option {
	return func(c *Commands) {
		if n > 0 {
			c.headlineCount = n
		}
	}
}

// WithNewsLimit caps the news table.
func WithNewsLimit(n int) Option {
	return func(c *Commands) {
		if n > 0 {
			c.newsLimit = n
		}
	}
}

// WithTopConcurrency bounds parallel simulations in Top.
func WithTopConcurrency(n int) Option {
	return func(c *Commands) {
		if n > 0 {
			c.topConcurrency = n
		}
	}
}

func NewCommands(d Deps, opts ...Option) *Commands {
	c := &Commands{
		history:        d.History,
		actions:        d.Actions,
		fundamentals:   d.Fundamentals,
		news:           d.News,
		headlines:      d.Headlines,
		universe:       d.Universe,
		forecasters:    d.Forecasters,
		sim:            d.Simulator,
		fastSim:        d.FastSimulator,
		sentiment:      d.Sentiment,
		charts:         d.Charts,
		audit:          d.Audit,
		metrics:        d.Metrics,
		log:            d.Log,
		now:            time.Now,
		level:          90,
		headlineCount:  25,
		newsLimit:      20,
		calendarDays:   90,
		topConcurrency: 4,
	}
	if c.fastSim == nil {
		c.fastSim = c.sim
	}
	if c.log == nil {
		c.log = logger.NewNop()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// providerErr counts upstream failures that are not plain "no data" answers.
func (c *Commands) providerErr(provider string, err error) error {
	if err != nil && !errors.Is(err, ErrNoData) && !errors.Is(err, context.Canceled) && c.metrics != nil {
		c.metrics.RecordProviderError(provider)
	}
	return err
}

// png wraps a chart. Rendering failures drop the chart but keep the reply.
func (c *Commands) png(name string, data []byte, err error) *models.Attachment {
	if err != nil {
		c.log.Warn("chart render failed", logger.String("chart", name), logger.Error(err))
		return nil
	}
	return &models.Attachment{Name: name, ContentType: "image/png", Data: data}
}

// infoDropped are profile fields that carry no market information.
var infoDropped = map[string]bool{
	"phone":    true,
	"weburl":   true,
	"website":  true,
	"logo":     true,
	"logo_url": true,
	"city":     true,
	"state":    true,
	"country":  true,
}

// Info lists company fields and the mean headline sentiment.
func (c *Commands) Info(ctx context.Context, ticker string) (*models.Result, error) {
	info, err := c.fundamentals.CompanyInfo(ctx, ticker)
	if err != nil {
		return nil, c.providerErr("fundamentals", fmt.Errorf("info %s: %w", ticker, err))
	}

	keys := make([]string, 0, len(info.Fields))
	for k := range info.Fields {
		if !infoDropped[strings.ToLower(k)] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	t := table.New("", "Value")
	for _, k := range keys {
		t.AppendValues(k, info.Fields[k])
	}

	res := &models.Result{
		Ticker:     ticker,
		Text:       t.Markdown(),
		TextName:   ticker + "_info.txt",
		AlwaysFile: true,
		Note:       fmt.Sprintf("\n *Sentiment for %s is: %s*", ticker, c.headlineSentiment(ctx, ticker)),
	}
	if len(info.Raw) > 0 {
		res.Extra = append(res.Extra, models.Attachment{
			Name:        ticker + "_info.json",
			ContentType: "application/json",
			Data:        pretty.Pretty(info.Raw),
		})
	}
	return res, nil
}

// headlineSentiment returns the mean compound score as text, or "n/a" when
// headlines cannot be scored.
func (c *Commands) headlineSentiment(ctx context.Context, ticker string) string {
	hs, err := c.headlines.Headlines(ctx, ticker, c.headlineCount)
	if err != nil {
		c.providerErr("headlines", err)
		c.log.Warn("headlines unavailable", logger.String("ticker", ticker), logger.Error(err))
		return "n/a"
	}
	texts := make([]string, len(hs))
	for i, h := range hs {
		texts[i] = h.Text
	}
	score, err := c.sentiment.MeanCompound(texts)
	if err != nil {
		return "n/a"
	}
	return decimal.NewFromFloat(score).Round(2).String()
}

// Calendar lists earnings events from today over the next quarter.
func (c *Commands) Calendar(ctx context.Context, ticker string) (*models.Result, error) {
	now := c.now()
	events, err := c.fundamentals.EarningsCalendar(ctx, ticker, now, now.AddDate(0, 0, c.calendarDays))
	if err != nil {
		return nil, c.providerErr("fundamentals", fmt.Errorf("calendar %s: %w", ticker, err))
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("calendar %s: %w", ticker, ErrNoData)
	}

	t := table.New("Earnings Date", "Hour", "Quarter", "Year", "EPS Estimate", "EPS Actual", "Revenue Estimate", "Revenue Actual")
	for _, e := range events {
		t.AppendValues(table.Date(e.Date), e.Hour, e.Quarter, e.Year, e.EPSEstimate, e.EPSActual, e.RevenueEstimate, e.RevenueActual)
	}
	return &models.Result{
		Ticker:     ticker,
		Text:       t.Markdown(),
		TextName:   ticker + "_calendar.txt",
		AlwaysFile: true,
	}, nil
}

// Experts lists analyst recommendation trends dated inside [now-frame, now].
func (c *Commands) Experts(ctx context.Context, ticker string, frame drepo.Frame) (*models.Result, error) {
	recs, err := c.fundamentals.Recommendations(ctx, ticker)
	if err != nil {
		return nil, c.providerErr("fundamentals", fmt.Errorf("experts %s: %w", ticker, err))
	}
	r := drepo.FrameRange(frame, c.now())

	t := table.New("Period", "strongBuy", "buy", "hold", "sell", "strongSell")
	for _, rec := range recs {
		if rec.Period.Before(r.From) || rec.Period.After(r.To) {
			continue
		}
		t.AppendValues(table.Date(rec.Period), rec.StrongBuy, rec.Buy, rec.Hold, rec.Sell, rec.StrongSell)
	}
	if t.Len() == 0 {
		return nil, fmt.Errorf("experts %s in %s: %w", ticker, frame, ErrNoData)
	}
	return &models.Result{
		Ticker:     ticker,
		Text:       t.Markdown(),
		TextName:   ticker + "_experts.txt",
		AlwaysFile: true,
	}, nil
}

// Sustainability lists ESG scores.
func (c *Commands) Sustainability(ctx context.Context, ticker string) (*models.Result, error) {
	kvs, err := c.fundamentals.Sustainability(ctx, ticker)
	if err != nil {
		return nil, c.providerErr("fundamentals", fmt.Errorf("sustainability %s: %w", ticker, err))
	}
	t := table.New("", "Value")
	for _, kv := range kvs {
		t.AppendValues(kv.Key, kv.Value)
	}
	return &models.Result{
		Ticker:     ticker,
		Text:       t.Markdown(),
		TextName:   ticker + "_sustainability.txt",
		AlwaysFile: true,
	}, nil
}

// History renders daily bars for "max" or a frame and plots the price columns.
func (c *Commands) History(ctx context.Context, ticker, period string) (*models.Result, error) {
	r, err := drepo.PeriodRange(period, c.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	h, err := c.history.History(ctx, ticker, r)
	if err != nil {
		return nil, c.providerErr("history", fmt.Errorf("history %s: %w", ticker, err))
	}
	if len(h.Bars) == 0 {
		return nil, fmt.Errorf("history %s: %w", ticker, ErrNoData)
	}

	t := table.New("Date", "Open", "High", "Low", "Close", "Volume", "Dividends", "Stock Splits")
	for _, b := range h.Bars {
		t.AppendValues(table.Date(b.Time), b.Open, b.High, b.Low, b.Close, b.Volume, b.Dividend, b.Split)
	}
	png, err := c.charts.History(ticker+" History", h.Bars)
	return &models.Result{
		Ticker:   ticker,
		Text:     t.Markdown(),
		TextName: ticker + "_history.txt",
		Chart:    c.png("plot.png", png, err),
	}, nil
}

// News lists recent articles.
func (c *Commands) News(ctx context.Context, ticker string) (*models.Result, error) {
	articles, err := c.news.News(ctx, ticker, c.newsLimit)
	if err != nil {
		return nil, c.providerErr("news", fmt.Errorf("news %s: %w", ticker, err))
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("news %s: %w", ticker, ErrNoData)
	}
	t := table.New("", "title", "link", "relatedTickers")
	for i, a := range articles {
		t.Append(fmt.Sprintf("%d", i), a.Headline, a.URL, strings.Join(a.Related, ", "))
	}
	return &models.Result{
		Ticker:   ticker,
		Text:     t.Markdown(),
		TextName: ticker + "_news.txt",
	}, nil
}

// Actions merges dividends and splits by date.
func (c *Commands) Actions(ctx context.Context, ticker string) (*models.Result, error) {
	acts, err := c.loadActions(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if len(acts.Dividends) == 0 && len(acts.Splits) == 0 {
		return nil, fmt.Errorf("actions %s: %w", ticker, ErrNoData)
	}

	type row struct{ div, split float64 }
	byDay := make(map[time.Time]*row)
	for _, d := range acts.Dividends {
		if byDay[d.Date] == nil {
			byDay[d.Date] = &row{}
		}
		byDay[d.Date].div = d.Amount
	}
	for _, s := range acts.Splits {
		if byDay[s.Date] == nil {
			byDay[s.Date] = &row{}
		}
		byDay[s.Date].split = s.Ratio()
	}
	dates := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	t := table.New("Date", "Dividends", "Stock Splits")
	divs := make([]float64, len(dates))
	splits := make([]float64, len(dates))
	for i, d := range dates {
		r := byDay[d]
		divs[i], splits[i] = r.div, r.split
		t.AppendValues(table.Date(d), r.div, r.split)
	}
	png, err := c.charts.Lines(ticker+" Actions", dates, map[string][]float64{
		"Dividends":    divs,
		"Stock Splits": splits,
	})
	return &models.Result{
		Ticker:   ticker,
		Text:     t.Markdown(),
		TextName: ticker + "_actions.txt",
		Chart:    c.png("plot.png", png, err),
	}, nil
}

// Dividends lists cash dividends.
func (c *Commands) Dividends(ctx context.Context, ticker string) (*models.Result, error) {
	acts, err := c.loadActions(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if len(acts.Dividends) == 0 {
		return nil, fmt.Errorf("dividends %s: %w", ticker, ErrNoData)
	}
	t := table.New("Date", "Dividends")
	dates := make([]time.Time, len(acts.Dividends))
	values := make([]float64, len(acts.Dividends))
	for i, d := range acts.Dividends {
		dates[i], values[i] = d.Date, d.Amount
		t.AppendValues(table.Date(d.Date), d.Amount)
	}
	png, err := c.charts.Series(ticker+" Dividends", "Dividends", dates, values)
	return &models.Result{
		Ticker:   ticker,
		Text:     t.Markdown(),
		TextName: ticker + "_dividends.txt",
		Chart:    c.png("plot.png", png, err),
	}, nil
}

// Splits lists stock splits as ratios.
func (c *Commands) Splits(ctx context.Context, ticker string) (*models.Result, error) {
	acts, err := c.loadActions(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if len(acts.Splits) == 0 {
		return nil, fmt.Errorf("splits %s: %w", ticker, ErrNoData)
	}
	t := table.New("Date", "Stock Splits")
	dates := make([]time.Time, len(acts.Splits))
	values := make([]float64, len(acts.Splits))
	for i, s := range acts.Splits {
		dates[i], values[i] = s.Date, s.Ratio()
		t.AppendValues(table.Date(s.Date), s.Ratio())
	}
	png, err := c.charts.Series(ticker+" Splits", "Stock Splits", dates, values)
	return &models.Result{
		Ticker:   ticker,
		Text:     t.Markdown(),
		TextName: ticker + "_splits.txt",
		Chart:    c.png("plot.png", png, err),
	}, nil
}

func (c *Commands) loadActions(ctx context.Context, ticker string) (*models.Actions, error) {
	acts, err := c.actions.Actions(ctx, ticker)
	if err != nil {
		return nil, c.providerErr("actions", fmt.Errorf("actions %s: %w", ticker, err))
	}
	return acts, nil
}

// Income renders the latest annual income statements.
func (c *Commands) Income(ctx context.Context, ticker string) (*models.Result, error) {
	return c.statement(ctx, ticker, models.IncomeStatement, "_Income.txt")
}

// Cashflow renders the latest annual cash flow statements.
func (c *Commands) Cashflow(ctx context.Context, ticker string) (*models.Result, error) {
	return c.statement(ctx, ticker, models.CashFlowStatement, "_Cashflow.txt")
}

func (c *Commands) statement(ctx context.Context, ticker string, kind models.StatementKind, suffix string) (*models.Result, error) {
	st, err := c.fundamentals.Statement(ctx, ticker, kind)
	if err != nil {
		return nil, c.providerErr("fundamentals", fmt.Errorf("statement %s %s: %w", kind, ticker, err))
	}
	if len(st.Rows) == 0 {
		return nil, fmt.Errorf("statement %s %s: %w", kind, ticker, ErrNoData)
	}
	cols := make([]string, len(st.Periods))
	for i, p := range st.Periods {
		cols[i] = table.Date(p)
	}
	t := table.New("", cols...)
	for _, row := range st.Rows {
		cells := make([]interface{}, len(row.Values))
		for i, v := range row.Values {
			cells[i] = v
		}
		t.AppendValues(row.Label, cells...)
	}
	return &models.Result{
		Ticker:   ticker,
		Text:     t.Markdown(),
		TextName: ticker + suffix,
	}, nil
}

// Shares lists shares outstanding by quarter.
func (c *Commands) Shares(ctx context.Context, ticker string) (*models.Result, error) {
	pts, err := c.fundamentals.SharesOutstanding(ctx, ticker)
	if err != nil {
		return nil, c.providerErr("fundamentals", fmt.Errorf("shares %s: %w", ticker, err))
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("shares %s: %w", ticker, ErrNoData)
	}
	t := table.New("Date", "Shares Outstanding")
	dates := make([]time.Time, len(pts))
	values := make([]float64, len(pts))
	for i, p := range pts {
		dates[i], values[i] = p.Date, p.Shares
		t.AppendValues(table.Date(p.Date), p.Shares)
	}
	png, err := c.charts.Series(fmt.Sprintf("Shares Outstanding for %s by Quarter", ticker), "Shares Outstanding", dates, values)
	return &models.Result{
		Ticker:   ticker,
		Text:     t.Markdown(),
		TextName: ticker + "_Shares.txt",
		Chart:    c.png(ticker+"_Shares.png", png, err),
	}, nil
}
