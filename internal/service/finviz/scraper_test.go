package finviz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const page = `<html><body><table id="news-table">
<tr><td width="130">Jan-05-24 09:30AM</td><td><div><a href="/1">Apple shares surge</a><span>(Reuters)</span></div></td></tr>
<tr><td>08:15AM</td><td><div><a href="/2">Apple faces lawsuit</a></div></td></tr>
<tr><td>Jan-04-24 05:00PM</td><td><div><a href="/3">Markets close flat</a></div></td></tr>
</table></body></html>`

func TestParseHeadlinesInheritsDate(t *testing.T) {
	hs, err := ParseHeadlines("AAPL", []byte(page), 25)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(hs) != 3 {
		t.Fatalf("got %d headlines", len(hs))
	}
	if hs[1].Date != "Jan-05-24" || hs[1].Time != "08:15AM" {
		t.Fatalf("time-only row should inherit date: %+v", hs[1])
	}
	if hs[2].Date != "Jan-04-24" || hs[0].Text != "Apple shares surge" {
		t.Fatalf("unexpected rows %+v", hs)
	}
}

func TestParseHeadlinesLimit(t *testing.T) {
	hs, _ := ParseHeadlines("AAPL", []byte(page), 2)
	if len(hs) != 2 {
		t.Fatalf("limit not applied: %d", len(hs))
	}
}

func TestHeadlinesMissingTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("t") != "ZZZ" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte("<html><body>no table</body></html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Headlines(context.Background(), "ZZZ", 25)
	if !errors.Is(err, ErrNoHeadlines) {
		t.Fatalf("expected ErrNoHeadlines, got %v", err)
	}
}
