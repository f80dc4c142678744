package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"FinBot/internal/domain/models"
	drepo "FinBot/internal/domain/repository"
	"FinBot/pkg/logger"
)

// Movers polls change percents for a symbol universe and raises an alert when
// a symbol's change moves by more than the threshold between two polls.
type Movers struct {
	symbols drepo.SymbolDirectory
	quotes  drepo.QuoteSource
	sink    drepo.AlertSink
	metrics drepo.Metrics
	log     *logger.Logger

	channelID string
	threshold float64
	interval  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	previous map[string]float64
}

func NewMovers(
	symbols drepo.SymbolDirectory,
	quotes drepo.QuoteSource,
	sink drepo.AlertSink,
	metrics drepo.Metrics,
	log *logger.Logger,
	channelID string,
	threshold float64,
	interval time.Duration,
) *Movers {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Movers{
		symbols:   symbols,
		quotes:    quotes,
		sink:      sink,
		metrics:   metrics,
		log:       log,
		channelID: channelID,
		threshold: threshold,
		interval:  interval,
		now:       time.Now,
		previous:  make(map[string]float64),
	}
}

// Run records a baseline then polls every interval until ctx is done.
func (m *Movers) Run(ctx context.Context) error {
	if _, err := m.Poll(ctx); err != nil {
		m.log.Warn("movers: initial poll failed", logger.Error(err))
	}

	tk := time.NewTicker(m.interval)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tk.C:
			alerts, err := m.Poll(ctx)
			if err != nil {
				m.log.Warn("movers: poll failed", logger.Error(err))
				continue
			}
			m.deliver(ctx, alerts)
		}
	}
}

// Poll fetches one round of quotes and returns the alerts it raises. Symbols
// seen for the first time only set their baseline.
func (m *Movers) Poll(ctx context.Context) ([]models.MoverAlert, error) {
	syms, err := m.symbols.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("movers symbols: %w", err)
	}
	quotes, err := m.quotes.Quotes(ctx, syms)
	if err != nil {
		return nil, fmt.Errorf("movers quotes: %w", err)
	}

	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	var alerts []models.MoverAlert
	for _, q := range quotes {
		prev, seen := m.previous[q.Symbol]
		m.previous[q.Symbol] = q.ChangePercent
		if !seen {
			continue
		}
		delta := q.ChangePercent - prev
		if math.Abs(delta) > m.threshold {
			alerts = append(alerts, models.MoverAlert{
				Symbol:    q.Symbol,
				Delta:     delta,
				Previous:  prev,
				Current:   q.ChangePercent,
				ChannelID: m.channelID,
				At:        now,
			})
		}
	}
	return alerts, nil
}

func (m *Movers) deliver(ctx context.Context, alerts []models.MoverAlert) {
	for _, a := range alerts {
		if err := m.sink.Deliver(ctx, a); err != nil {
			m.log.Error("movers: deliver alert failed", logger.String("symbol", a.Symbol), logger.Error(err))
			continue
		}
		if m.metrics != nil {
			m.metrics.RecordMoverAlert()
		}
		m.log.Info("mover alert", logger.String("symbol", a.Symbol), logger.Float64("delta", a.Delta))
	}
}
