package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	drepo "FinBot/internal/domain/repository"
)

const chartJSON = `{"chart":{"result":[{
	"meta":{"symbol":"AAPL","gmtoffset":-14400},
	"timestamp":[1704205800,1704292200,1704378600],
	"events":{
		"dividends":{"1704292200":{"amount":0.24,"date":1704292200}},
		"splits":{"1704378600":{"date":1704378600,"numerator":4,"denominator":1}}
	},
	"indicators":{"quote":[{
		"open":[187.15,184.22,null],
		"high":[188.44,185.88,null],
		"low":[183.89,183.43,null],
		"close":[185.64,184.25,null],
		"volume":[82488700,58414500,null]
	}]}
}],"error":null}}`

func TestHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v8/finance/chart/AAPL") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("range") != "max" || r.URL.Query().Get("interval") != "1d" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	h, err := New(srv.URL, time.Second).History(context.Background(), "AAPL", drepo.MaxRange())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(h.Bars) != 2 {
		t.Fatalf("null close rows must be dropped, got %d bars", len(h.Bars))
	}
	if h.Bars[0].Time.Format("2006-01-02") != "2024-01-02" {
		t.Fatalf("unexpected first date %v", h.Bars[0].Time)
	}
	if h.Bars[1].Dividend != 0.24 || h.Bars[0].Dividend != 0 {
		t.Fatalf("dividend not merged: %+v", h.Bars)
	}
}

func TestActions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	a, err := New(srv.URL, time.Second).Actions(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("actions: %v", err)
	}
	if len(a.Dividends) != 1 || len(a.Splits) != 1 || a.Splits[0].Ratio() != 4 {
		t.Fatalf("unexpected actions %+v", a)
	}
}

func TestHistoryNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).History(context.Background(), "ZZZZ", drepo.MaxRange())
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestQuotesBatchesAndFormats(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		syms := strings.Split(r.URL.Query().Get("symbols"), ",")
		if len(syms) > 2 {
			t.Errorf("batch too large: %v", syms)
		}
		if n == 1 {
			_, _ = w.Write([]byte(`{"quoteResponse":{"result":[
				{"symbol":"AAA","regularMarketPrice":10,"regularMarketChangePercent":{"raw":1.5,"fmt":"1.50%"}},
				{"symbol":"BBB","regularMarketPrice":20,"regularMarketChangePercent":-2.25}]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[{"symbol":"CCC","regularMarketChangePercent":0.5}]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, WithBatchSize(2))
	qs, err := c.Quotes(context.Background(), []string{"AAA", "BBB", "CCC"})
	if err != nil {
		t.Fatalf("quotes: %v", err)
	}
	if len(qs) != 3 || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("quotes=%d calls=%d", len(qs), calls)
	}
	if qs[0].ChangePercent != 1.5 || qs[1].ChangePercent != -2.25 {
		t.Fatalf("unexpected change percents %+v", qs)
	}
}
