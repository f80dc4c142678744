package nasdaq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const file = `Nasdaq Traded|Symbol|Security Name|Listing Exchange
Y|AAPL|Apple Inc. - Common Stock|Q
Y|BRK.A|Berkshire Hathaway|N
Y|AGM$A|Federal Agricultural Mortgage|N
Y|MSFT|Microsoft Corporation - Common Stock|Q
File Creation Time: 0105202421:01|||
`

func TestParse(t *testing.T) {
	syms, err := Parse([]byte(file))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(syms) != 2 || syms[0] != "AAPL" || syms[1] != "MSFT" {
		t.Fatalf("unexpected symbols %v", syms)
	}
}

func TestSymbolsMemoised(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(file))
	}))
	defer srv.Close()

	d := New(srv.URL+"/nasdaqtraded.txt", time.Second)
	for i := 0; i < 3; i++ {
		if _, err := d.Symbols(context.Background()); err != nil {
			t.Fatalf("symbols: %v", err)
		}
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected one fetch, got %d", calls)
	}
}
