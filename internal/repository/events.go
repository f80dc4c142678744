package repository

import (
	"context"

	"FinBot/internal/domain/models"
	domrepo "FinBot/internal/domain/repository"
)

// Producer is the subset of the Kafka producer used here.
type Producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaEventPublisher implements EventPublisher for Kafka.
type KafkaEventPublisher struct {
	producer    Producer
	eventsTopic string
	alertsTopic string
}

// NewKafkaEventPublisher creates Kafka publisher. Command events are keyed by
// user and alerts by symbol.
func NewKafkaEventPublisher(producer Producer, eventsTopic, alertsTopic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, eventsTopic: eventsTopic, alertsTopic: alertsTopic}
}

func (p *KafkaEventPublisher) PublishCommandEvent(ctx context.Context, ev models.CommandEvent) error {
	return p.producer.Publish(ctx, p.eventsTopic, []byte(ev.UserID), ev)
}

func (p *KafkaEventPublisher) PublishAlert(ctx context.Context, alert models.MoverAlert) error {
	return p.producer.Publish(ctx, p.alertsTopic, []byte(alert.Symbol), alert)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// KafkaAlertSink publishes alerts for whichever instance owns the gateway.
type KafkaAlertSink struct {
	pub domrepo.EventPublisher
}

func NewKafkaAlertSink(pub domrepo.EventPublisher) *KafkaAlertSink {
	return &KafkaAlertSink{pub: pub}
}

func (s *KafkaAlertSink) Deliver(ctx context.Context, alert models.MoverAlert) error {
	return s.pub.PublishAlert(ctx, alert)
}

// NopEventPublisher drops events when Kafka is disabled.
type NopEventPublisher struct{}

func (NopEventPublisher) PublishCommandEvent(context.Context, models.CommandEvent) error { return nil }
func (NopEventPublisher) PublishAlert(context.Context, models.MoverAlert) error          { return nil }
func (NopEventPublisher) Close() error                                                   { return nil }

var (
	_ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)
	_ domrepo.EventPublisher = NopEventPublisher{}
	_ domrepo.AlertSink      = (*KafkaAlertSink)(nil)
)
