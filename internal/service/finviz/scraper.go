// Package finviz scrapes quote page headlines used for sentiment.
package finviz

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"FinBot/internal/domain/models"
	drepo "FinBot/internal/domain/repository"
	"FinBot/internal/service/provider"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoHeadlines is returned when the news table is missing or empty.
var ErrNoHeadlines = errors.New("finviz: no headlines")

// Scraper reads the #news-table of quote.ashx.
type Scraper struct {
	base *provider.HTTPBase
}

func New(baseURL string, timeout time.Duration) *Scraper {
	return &Scraper{base: provider.NewHTTPBase("finviz", strings.TrimRight(baseURL, "/"), timeout)}
}

// Headlines returns the first n rows of the news table. Rows that only carry
// a time inherit the date of the row above.
func (s *Scraper) Headlines(ctx context.Context, ticker string, n int) ([]models.Headline, error) {
	var body []byte
	if err := s.base.GetWithRetry(ctx, "/quote.ashx", map[string][]string{"t": {ticker}}, &body); err != nil {
		return nil, err
	}
	out, err := ParseHeadlines(ticker, body, n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}
	return out, nil
}

// ParseHeadlines extracts headline rows from a quote page.
func ParseHeadlines(ticker string, page []byte, n int) ([]models.Headline, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	table := doc.Find("#news-table")
	if table.Length() == 0 {
		return nil, ErrNoHeadlines
	}

	var (
		out  []models.Headline
		date string
	)
	table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if n > 0 && len(out) >= n {
			return false
		}
		text := strings.TrimSpace(row.Find("a").First().Text())
		if text == "" {
			return true
		}
		stamp := strings.Fields(strings.TrimSpace(row.Find("td").First().Text()))
		var clock string
		switch len(stamp) {
		case 0:
		case 1:
			clock = stamp[0]
		default:
			date, clock = stamp[0], stamp[1]
		}
		out = append(out, models.Headline{Ticker: ticker, Date: date, Time: clock, Text: text})
		return true
	})
	if len(out) == 0 {
		return nil, ErrNoHeadlines
	}
	return out, nil
}

var _ drepo.HeadlineSource = (*Scraper)(nil)
