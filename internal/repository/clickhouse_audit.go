package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"FinBot/internal/domain/models"
	domrepo "FinBot/internal/domain/repository"
	pkgch "FinBot/pkg/clickhouse"
	applogger "FinBot/pkg/logger"
)

// AuditSchema creates the audit tables.
var AuditSchema = []string{
	`CREATE DATABASE IF NOT EXISTS finbot`,
	`CREATE TABLE IF NOT EXISTS finbot.command_audit (
        id          String,
        at          DateTime64(3, 'UTC'),
        user_id     String,
        command     LowCardinality(String),
        args        Array(String),
        ticker      String,
        status      LowCardinality(String),
        error       String,
        duration_ms UInt32
    ) ENGINE = MergeTree
    PARTITION BY toYYYYMM(at)
    ORDER BY (command, at)
    TTL toDateTime(at) + INTERVAL 180 DAY`,
	`CREATE TABLE IF NOT EXISTS finbot.forecasts (
        computed_at DateTime64(3, 'UTC'),
        ticker      LowCardinality(String),
        model       LowCardinality(String),
        col         LowCardinality(String),
        level       Float64,
        ds          Date,
        mean        Float64,
        lo          Float64,
        hi          Float64
    ) ENGINE = MergeTree
    PARTITION BY toYYYYMM(computed_at)
    ORDER BY (ticker, model, computed_at, ds)`,
}

// ClickHouseAuditStore implements AuditStore backed by ClickHouse.
type ClickHouseAuditStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewClickHouseAuditStore(ch *pkgch.Client, l *applogger.Logger) *ClickHouseAuditStore {
	return &ClickHouseAuditStore{ch: ch, db: ch.DB(), l: l}
}

func (s *ClickHouseAuditStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, AuditSchema)
}

func (s *ClickHouseAuditStore) RecordCommand(ctx context.Context, ev models.CommandEvent) error {
	const q = `INSERT INTO finbot.command_audit (id, at, user_id, command, args, ticker, status, error, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	args := ev.Args
	if args == nil {
		args = []string{}
	}
	_, err := s.db.ExecContext(ctx, q, ev.ID, ev.At, ev.UserID, ev.Command, args, ev.Ticker, ev.Status, ev.Error, uint32(ev.DurationMs))
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse insert command_audit error",
				applogger.String("id", ev.ID),
				applogger.String("command", ev.Command),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("insert command audit: %w", err)
	}
	return nil
}

func (s *ClickHouseAuditStore) RecordForecast(ctx context.Context, res *models.ForecastResult) error {
	q, args := forecastInsert(res)
	if q == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse insert forecasts error",
				applogger.String("ticker", res.Ticker),
				applogger.String("model", res.Model),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("insert forecast: %w", err)
	}
	return nil
}

// forecastInsert builds one multi-row insert for all forecast points.
func forecastInsert(res *models.ForecastResult) (string, []interface{}) {
	if res == nil || len(res.Points) == 0 {
		return "", nil
	}
	values := make([]string, 0, len(res.Points))
	args := make([]interface{}, 0, len(res.Points)*9)
	for _, p := range res.Points {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			res.Computed.UTC(),
			res.Ticker,
			res.Model,
			string(res.Column),
			res.Level,
			p.Date,
			p.Mean,
			p.Lo,
			p.Hi,
		)
	}
	q := "INSERT INTO finbot.forecasts (computed_at, ticker, model, col, level, ds, mean, lo, hi) VALUES " + strings.Join(values, ",")
	return q, args
}

func (s *ClickHouseAuditStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *ClickHouseAuditStore) Close() error {
	return nil // Managed by pkg
}

// NopAuditStore is used when ClickHouse is disabled.
type NopAuditStore struct{}

func (NopAuditStore) Init(context.Context) error                                   { return nil }
func (NopAuditStore) RecordCommand(context.Context, models.CommandEvent) error     { return nil }
func (NopAuditStore) RecordForecast(context.Context, *models.ForecastResult) error { return nil }
func (NopAuditStore) Health(context.Context) error                                 { return nil }
func (NopAuditStore) Close() error                                                 { return nil }

var (
	_ domrepo.AuditStore = (*ClickHouseAuditStore)(nil)
	_ domrepo.AuditStore = NopAuditStore{}
)
