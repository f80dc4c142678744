package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"FinBot/internal/domain/models"
)

type published struct {
	topic string
	key   string
	value interface{}
}

type fakeProducer struct {
	msgs   []published
	closed bool
}

func (p *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	p.msgs = append(p.msgs, published{topic: topic, key: string(key), value: value})
	return nil
}

func (p *fakeProducer) Close() error {
	p.closed = true
	return nil
}

func TestKafkaEventPublisherRoutesByTopic(t *testing.T) {
	prod := &fakeProducer{}
	pub := NewKafkaEventPublisher(prod, "finbot.commands", "finbot.movers")

	if err := pub.PublishCommandEvent(context.Background(), models.CommandEvent{ID: "1", UserID: "u1"}); err != nil {
		t.Fatalf("publish event: %v", err)
	}
	if err := NewKafkaAlertSink(pub).Deliver(context.Background(), models.MoverAlert{Symbol: "AAPL"}); err != nil {
		t.Fatalf("deliver alert: %v", err)
	}
	if len(prod.msgs) != 2 {
		t.Fatalf("published %d messages", len(prod.msgs))
	}
	if prod.msgs[0].topic != "finbot.commands" || prod.msgs[0].key != "u1" {
		t.Fatalf("event message = %+v", prod.msgs[0])
	}
	if prod.msgs[1].topic != "finbot.movers" || prod.msgs[1].key != "AAPL" {
		t.Fatalf("alert message = %+v", prod.msgs[1])
	}
	_ = pub.Close()
	if !prod.closed {
		t.Fatalf("producer not closed")
	}
}

func TestForecastInsert(t *testing.T) {
	if q, _ := forecastInsert(&models.ForecastResult{}); q != "" {
		t.Fatalf("empty forecast should not build a query")
	}

	day := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	q, args := forecastInsert(&models.ForecastResult{
		Model:  "ets",
		Ticker: "AAPL",
		Column: models.ColClose,
		Level:  90,
		Points: []models.ForecastPoint{
			{Date: day, Mean: 1, Lo: 0.5, Hi: 1.5},
			{Date: day.AddDate(0, 0, 1), Mean: 2, Lo: 1.5, Hi: 2.5},
		},
		Computed: day,
	})
	if strings.Count(q, "(?, ?, ?, ?, ?, ?, ?, ?, ?)") != 2 || len(args) != 18 {
		t.Fatalf("query %q with %d args", q, len(args))
	}
	if args[3] != "Close" || args[15] != 2.0 {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestAuditSchemaCreatesTables(t *testing.T) {
	joined := strings.Join(AuditSchema, "\n")
	for _, table := range []string{"finbot.command_audit", "finbot.forecasts"} {
		if !strings.Contains(joined, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Fatalf("schema missing %s", table)
		}
	}
}
