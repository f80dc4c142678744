package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"FinBot/internal/domain/models"
	drepo "FinBot/internal/domain/repository"
	pkgkafka "FinBot/pkg/kafka"
)

// AlertHandler consumes mover alerts from Kafka and hands them to a sink.
type AlertHandler struct {
	topic string
	sink  drepo.AlertSink
}

func NewAlertHandler(topic string, sink drepo.AlertSink) *AlertHandler {
	return &AlertHandler{topic: topic, sink: sink}
}

func (h *AlertHandler) Topic() string { return h.topic }

// incoming message schema: models.MoverAlert as JSON
func (h *AlertHandler) Handle(ctx context.Context, b []byte) error {
	var a models.MoverAlert
	if err := json.Unmarshal(b, &a); err != nil {
		return fmt.Errorf("decode alert: %w", err)
	}
	if a.Symbol == "" {
		return fmt.Errorf("alert without symbol")
	}
	return h.sink.Deliver(ctx, a)
}

var _ pkgkafka.MessageHandler = (*AlertHandler)(nil)
