// Package finnhub serves company fundamentals, news and a live trade stream
// from Finnhub.
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"FinBot/internal/domain/models"
	drepo "FinBot/internal/domain/repository"
	"FinBot/internal/service/provider"
	"FinBot/pkg/util"
)

// ErrNoData is returned for empty provider answers.
var ErrNoData = fmt.Errorf("finnhub: %w", drepo.ErrNoData)

// Client is the Finnhub REST client.
type Client struct {
	base *provider.HTTPBase
	now  func() time.Time
}

// New creates a REST client authenticated with the X-Finnhub-Token header.
func New(apiKey, baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: provider.NewHTTPBase("finnhub", strings.TrimRight(baseURL, "/"), timeout,
			provider.WithHeader("X-Finnhub-Token", apiKey)),
		now: time.Now,
	}
}

func (c *Client) get(ctx context.Context, path string, q map[string][]string, dest interface{}) error {
	return c.base.GetWithRetry(ctx, path, q, dest)
}

func symbol(t string) map[string][]string { return map[string][]string{"symbol": {t}} }

// CompanyInfo merges the company profile with the basic financials metrics.
func (c *Client) CompanyInfo(ctx context.Context, ticker string) (*models.CompanyInfo, error) {
	var profile map[string]interface{}
	if err := c.get(ctx, "/stock/profile2", symbol(ticker), &profile); err != nil {
		return nil, err
	}
	var metrics struct {
		Metric map[string]interface{} `json:"metric"`
	}
	q := symbol(ticker)
	q["metric"] = []string{"all"}
	if err := c.get(ctx, "/stock/metric", q, &metrics); err != nil {
		return nil, err
	}
	if len(profile) == 0 && len(metrics.Metric) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, ticker)
	}

	fields := make(map[string]interface{}, len(profile)+len(metrics.Metric))
	for k, v := range profile {
		fields[k] = v
	}
	for k, v := range metrics.Metric {
		fields[k] = v
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal info: %w", err)
	}
	return &models.CompanyInfo{Ticker: ticker, Fields: fields, Raw: raw}, nil
}

type recommendation struct {
	Period     string `json:"period"`
	StrongBuy  int    `json:"strongBuy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strongSell"`
}

// Recommendations returns monthly analyst trends, newest first.
func (c *Client) Recommendations(ctx context.Context, ticker string) ([]models.Recommendation, error) {
	var rows []recommendation
	if err := c.get(ctx, "/stock/recommendation", symbol(ticker), &rows); err != nil {
		return nil, err
	}
	out := make([]models.Recommendation, 0, len(rows))
	for _, r := range rows {
		period, ok := util.ParseTime(r.Period)
		if !ok {
			continue
		}
		out = append(out, models.Recommendation{
			Period:     period,
			StrongBuy:  r.StrongBuy,
			Buy:        r.Buy,
			Hold:       r.Hold,
			Sell:       r.Sell,
			StrongSell: r.StrongSell,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.After(out[j].Period) })
	return out, nil
}

// EarningsCalendar lists earnings releases in [from, to].
func (c *Client) EarningsCalendar(ctx context.Context, ticker string, from, to time.Time) ([]models.EarningsEvent, error) {
	var resp struct {
		EarningsCalendar []struct {
			Date            string   `json:"date"`
			Hour            string   `json:"hour"`
			Quarter         int      `json:"quarter"`
			Year            int      `json:"year"`
			EPSEstimate     *float64 `json:"epsEstimate"`
			EPSActual       *float64 `json:"epsActual"`
			RevenueEstimate *float64 `json:"revenueEstimate"`
			RevenueActual   *float64 `json:"revenueActual"`
		} `json:"earningsCalendar"`
	}
	q := symbol(ticker)
	q["from"] = []string{from.Format(util.DateLayout)}
	q["to"] = []string{to.Format(util.DateLayout)}
	if err := c.get(ctx, "/calendar/earnings", q, &resp); err != nil {
		return nil, err
	}
	out := make([]models.EarningsEvent, 0, len(resp.EarningsCalendar))
	for _, e := range resp.EarningsCalendar {
		d, _ := util.ParseTime(e.Date)
		out = append(out, models.EarningsEvent{
			Date:            d,
			Hour:            e.Hour,
			Quarter:         e.Quarter,
			Year:            e.Year,
			EPSEstimate:     e.EPSEstimate,
			EPSActual:       e.EPSActual,
			RevenueEstimate: e.RevenueEstimate,
			RevenueActual:   e.RevenueActual,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Sustainability flattens the ESG answer into sorted key/value rows.
func (c *Client) Sustainability(ctx context.Context, ticker string) ([]models.KeyValue, error) {
	var resp map[string]interface{}
	if err := c.get(ctx, "/stock/esg", symbol(ticker), &resp); err != nil {
		return nil, err
	}
	flat := map[string]interface{}{}
	for k, v := range resp {
		if k == "symbol" {
			continue
		}
		if nested, ok := v.(map[string]interface{}); ok {
			for nk, nv := range nested {
				flat[nk] = nv
			}
			continue
		}
		flat[k] = v
	}
	if len(flat) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, ticker)
	}
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]models.KeyValue, len(keys))
	for i, k := range keys {
		out[i] = models.KeyValue{Key: k, Value: flat[k]}
	}
	return out, nil
}

type reportedItem struct {
	Concept string   `json:"concept"`
	Label   string   `json:"label"`
	Value   *float64 `json:"value"`
}

type reportedFiling struct {
	Year    int                       `json:"year"`
	Quarter int                       `json:"quarter"`
	EndDate string                    `json:"endDate"`
	Report  map[string][]reportedItem `json:"report"`
}

func (c *Client) reported(ctx context.Context, ticker, freq string) ([]reportedFiling, error) {
	var resp struct {
		Data []reportedFiling `json:"data"`
	}
	q := symbol(ticker)
	q["freq"] = []string{freq}
	if err := c.get(ctx, "/stock/financials-reported", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, ticker)
	}
	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].EndDate > resp.Data[j].EndDate })
	return resp.Data, nil
}

// maxPeriods is the number of annual reports laid out in statements.
const maxPeriods = 4

// Statement lays out one report section of the latest annual filings. Rows
// follow the order of the newest filing; values are matched by concept.
func (c *Client) Statement(ctx context.Context, ticker string, kind models.StatementKind) (*models.Statement, error) {
	filings, err := c.reported(ctx, ticker, "annual")
	if err != nil {
		return nil, err
	}
	if len(filings) > maxPeriods {
		filings = filings[:maxPeriods]
	}
	st := &models.Statement{Ticker: ticker}
	byConcept := make([]map[string]*float64, len(filings))
	for i, f := range filings {
		end, _ := util.ParseTime(f.EndDate)
		st.Periods = append(st.Periods, util.TruncateDay(end))
		byConcept[i] = map[string]*float64{}
		for _, item := range f.Report[string(kind)] {
			byConcept[i][item.Concept] = item.Value
		}
	}
	seen := map[string]bool{}
	for _, item := range filings[0].Report[string(kind)] {
		if seen[item.Concept] {
			continue
		}
		seen[item.Concept] = true
		row := models.StatementRow{Label: item.Label, Values: make([]*float64, len(filings))}
		for i := range filings {
			row.Values[i] = byConcept[i][item.Concept]
		}
		st.Rows = append(st.Rows, row)
	}
	if len(st.Rows) == 0 {
		return nil, fmt.Errorf("%w: no %s section for %s", ErrNoData, kind, ticker)
	}
	return st, nil
}

var sharesConcepts = []string{
	"us-gaap_WeightedAverageNumberOfSharesOutstandingBasic",
	"dei_EntityCommonStockSharesOutstanding",
}

// SharesOutstanding returns basic weighted shares per quarter, oldest first.
func (c *Client) SharesOutstanding(ctx context.Context, ticker string) ([]models.SharesPoint, error) {
	filings, err := c.reported(ctx, ticker, "quarterly")
	if err != nil {
		return nil, err
	}
	var out []models.SharesPoint
	for _, f := range filings {
		v := findConcept(f, sharesConcepts)
		if v == nil {
			continue
		}
		end, ok := util.ParseTime(f.EndDate)
		if !ok {
			continue
		}
		out = append(out, models.SharesPoint{Date: util.TruncateDay(end), Shares: *v})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no shares data for %s", ErrNoData, ticker)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func findConcept(f reportedFiling, concepts []string) *float64 {
	for _, concept := range concepts {
		for _, section := range []string{"ic", "bs", "cf"} {
			for _, item := range f.Report[section] {
				if item.Concept == concept && item.Value != nil {
					return item.Value
				}
			}
		}
	}
	return nil
}

// News returns company news from the last week, newest first.
func (c *Client) News(ctx context.Context, ticker string, limit int) ([]models.Article, error) {
	var rows []struct {
		Datetime int64  `json:"datetime"`
		Headline string `json:"headline"`
		Related  string `json:"related"`
		Source   string `json:"source"`
		URL      string `json:"url"`
	}
	now := c.now()
	q := symbol(ticker)
	q["from"] = []string{now.AddDate(0, 0, -7).Format(util.DateLayout)}
	q["to"] = []string{now.Format(util.DateLayout)}
	if err := c.get(ctx, "/company-news", q, &rows); err != nil {
		return nil, err
	}
	out := make([]models.Article, 0, len(rows))
	for _, r := range rows {
		var related []string
		for _, s := range strings.Split(r.Related, ",") {
			if s = strings.TrimSpace(s); s != "" {
				related = append(related, s)
			}
		}
		out = append(out, models.Article{
			Headline:  r.Headline,
			URL:       r.URL,
			Source:    r.Source,
			Related:   related,
			Published: time.Unix(r.Datetime, 0).UTC(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Published.After(out[j].Published) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var (
	_ drepo.FundamentalsProvider = (*Client)(nil)
	_ drepo.NewsProvider         = (*Client)(nil)
)
