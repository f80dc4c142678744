package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"FinBot/internal/domain/models"
	drepo "FinBot/internal/domain/repository"
	pcache "FinBot/pkg/cache"
	"FinBot/pkg/logger"
)

type countingProvider struct {
	calls int
	err   error
}

func (p *countingProvider) History(_ context.Context, ticker string, _ drepo.Range) (*models.History, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &models.History{Ticker: ticker, Bars: []models.Bar{{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 10}}}, nil
}

type brokenStore struct{ pcache.Service }

func (brokenStore) Get(context.Context, string, interface{}) error { return errors.New("down") }
func (brokenStore) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("down")
}

func TestCachedHistoryHitsCache(t *testing.T) {
	p := &countingProvider{}
	c := NewCachedHistory(p, pcache.NewMemoryCache(), time.Minute, logger.NewNop())
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		h, err := c.History(ctx, "AAPL", drepo.MaxRange())
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		if len(h.Bars) != 1 || h.Bars[0].Close != 10 {
			t.Fatalf("unexpected history %+v", h)
		}
	}
	if p.calls != 1 {
		t.Fatalf("provider called %d times, want 1", p.calls)
	}
}

func TestCachedHistoryKeysByRange(t *testing.T) {
	p := &countingProvider{}
	c := NewCachedHistory(p, pcache.NewMemoryCache(), time.Minute, logger.NewNop())
	now := time.Now()
	_, _ = c.History(context.Background(), "AAPL", drepo.FrameRange(drepo.FrameWeek, now))
	_, _ = c.History(context.Background(), "AAPL", drepo.FrameRange(drepo.FrameMonth, now))
	if p.calls != 2 {
		t.Fatalf("different ranges must not share an entry, calls=%d", p.calls)
	}
}

func TestCachedHistoryStoreFailureFallsThrough(t *testing.T) {
	p := &countingProvider{}
	c := NewCachedHistory(p, brokenStore{}, time.Minute, logger.NewNop())
	if _, err := c.History(context.Background(), "AAPL", drepo.MaxRange()); err != nil {
		t.Fatalf("cache failure must not fail the call: %v", err)
	}
}

func TestCachedHistoryProviderError(t *testing.T) {
	p := &countingProvider{err: errors.New("boom")}
	c := NewCachedHistory(p, pcache.NewMemoryCache(), time.Minute, logger.NewNop())
	if _, err := c.History(context.Background(), "AAPL", drepo.MaxRange()); err == nil {
		t.Fatalf("expected provider error")
	}
}
