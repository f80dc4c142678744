package repository

import (
	"context"
	"errors"
	"time"

	"FinBot/internal/domain/models"
)

// ErrNoData is wrapped by providers when an upstream has nothing for a ticker.
var ErrNoData = errors.New("no data")

// HistoryProvider returns daily bars for a range.
type HistoryProvider interface {
	History(ctx context.Context, ticker string, r Range) (*models.History, error)
}

// ActionsProvider returns dividends and splits over the full history.
type ActionsProvider interface {
	Actions(ctx context.Context, ticker string) (*models.Actions, error)
}

// FundamentalsProvider serves company data used by info-style commands.
type FundamentalsProvider interface {
	CompanyInfo(ctx context.Context, ticker string) (*models.CompanyInfo, error)
	Recommendations(ctx context.Context, ticker string) ([]models.Recommendation, error)
	EarningsCalendar(ctx context.Context, ticker string, from, to time.Time) ([]models.EarningsEvent, error)
	Sustainability(ctx context.Context, ticker string) ([]models.KeyValue, error)
	Statement(ctx context.Context, ticker string, kind models.StatementKind) (*models.Statement, error)
	SharesOutstanding(ctx context.Context, ticker string) ([]models.SharesPoint, error)
}

// NewsProvider returns recent articles for a ticker.
type NewsProvider interface {
	News(ctx context.Context, ticker string, limit int) ([]models.Article, error)
}

// HeadlineSource returns scraped headlines used for sentiment.
type HeadlineSource interface {
	Headlines(ctx context.Context, ticker string, n int) ([]models.Headline, error)
}

// QuoteSource returns change percents for many symbols.
type QuoteSource interface {
	Quotes(ctx context.Context, symbols []string) ([]models.Quote, error)
}

// SymbolDirectory lists tradable symbols.
type SymbolDirectory interface {
	Symbols(ctx context.Context) ([]string, error)
}

// TickerUniverse lists tickers ranked by the top command.
type TickerUniverse interface {
	Tickers() ([]string, error)
}

// AuditStore persists command outcomes and forecasts.
type AuditStore interface {
	Init(ctx context.Context) error
	RecordCommand(ctx context.Context, ev models.CommandEvent) error
	RecordForecast(ctx context.Context, res *models.ForecastResult) error
	Health(ctx context.Context) error
	Close() error
}

// EventPublisher ships command events and mover alerts to the event bus.
type EventPublisher interface {
	PublishCommandEvent(ctx context.Context, ev models.CommandEvent) error
	PublishAlert(ctx context.Context, alert models.MoverAlert) error
	Close() error
}

// AlertSink delivers mover alerts.
type AlertSink interface {
	Deliver(ctx context.Context, alert models.MoverAlert) error
}

type Metrics interface {
	RecordCommand(command, status string, took time.Duration)
	RecordProviderError(provider string)
	RecordMoverAlert()
	SetQueueDepth(n int)
}
