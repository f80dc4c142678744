package alpaca

import (
	"context"
	"errors"
	"testing"
	"time"

	drepo "FinBot/internal/domain/repository"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

type fakeMarketData struct {
	barsReq marketdata.GetBarsRequest
	bars    []marketdata.Bar
	news    []marketdata.News
}

func (f *fakeMarketData) GetBars(_ string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error) {
	f.barsReq = req
	return f.bars, nil
}

func (f *fakeMarketData) GetNews(marketdata.GetNewsRequest) ([]marketdata.News, error) {
	return f.news, nil
}

func TestHistory(t *testing.T) {
	ts := time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC)
	md := &fakeMarketData{bars: []marketdata.Bar{{Timestamp: ts, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100}}}
	h, err := NewWithMarketData(md).History(context.Background(), "AAPL", drepo.MaxRange())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(h.Bars) != 1 || h.Bars[0].Close != 1.5 || h.Bars[0].Time.Hour() != 0 || h.Bars[0].Volume != 100 {
		t.Fatalf("unexpected bars %+v", h.Bars)
	}
	if !md.barsReq.Start.Equal(maxHistoryStart) || md.barsReq.Adjustment != marketdata.All {
		t.Fatalf("unexpected request %+v", md.barsReq)
	}
}

func TestHistoryEmpty(t *testing.T) {
	_, err := NewWithMarketData(&fakeMarketData{}).History(context.Background(), "ZZZ", drepo.MaxRange())
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestNews(t *testing.T) {
	md := &fakeMarketData{news: []marketdata.News{{Headline: "Apple beats", Author: "Benzinga", URL: "https://x", Symbols: []string{"AAPL"}}}}
	arts, err := NewWithMarketData(md).News(context.Background(), "AAPL", 5)
	if err != nil {
		t.Fatalf("news: %v", err)
	}
	if len(arts) != 1 || arts[0].Related[0] != "AAPL" || arts[0].Source != "Benzinga" {
		t.Fatalf("unexpected articles %+v", arts)
	}
}
