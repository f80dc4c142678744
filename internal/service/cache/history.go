// Package cache decorates market data providers with a shared cache.
package cache

import (
	"context"
	"errors"
	"time"

	"FinBot/internal/domain/models"
	drepo "FinBot/internal/domain/repository"
	"FinBot/pkg/cache"
	"FinBot/pkg/logger"
	"FinBot/pkg/util"
)

// CachedHistory serves repeated history requests from the cache. Cache
// failures are logged and fall through to the provider.
type CachedHistory struct {
	next  drepo.HistoryProvider
	store cache.Service
	ttl   time.Duration
	log   *logger.Logger
	now   func() time.Time
}

func NewCachedHistory(next drepo.HistoryProvider, store cache.Service, ttl time.Duration, log *logger.Logger) *CachedHistory {
	return &CachedHistory{next: next, store: store, ttl: ttl, log: log, now: time.Now}
}

// historyKey buckets ranges by day so repeated commands within a day share
// an entry.
func (c *CachedHistory) historyKey(ticker string, r drepo.Range) string {
	if r.Max {
		return cache.Key("history", ticker, "max", c.now().UTC().Format(util.DateLayout))
	}
	return cache.Key("history", ticker, r.From.UTC().Format(util.DateLayout), r.To.UTC().Format(util.DateLayout))
}

func (c *CachedHistory) History(ctx context.Context, ticker string, r drepo.Range) (*models.History, error) {
	key := c.historyKey(ticker, r)

	var cached models.History
	err := c.store.Get(ctx, key, &cached)
	switch {
	case err == nil:
		return &cached, nil
	case !errors.Is(err, cache.ErrCacheMiss):
		c.log.Warn("history cache read failed", logger.String("key", key), logger.Error(err))
	}

	h, err := c.next.History(ctx, ticker, r)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, key, h, c.ttl); err != nil {
		c.log.Warn("history cache write failed", logger.String("key", key), logger.Error(err))
	}
	return h, nil
}

var _ drepo.HistoryProvider = (*CachedHistory)(nil)
