package event

import (
	"context"
	"encoding/json"

	"github.com/construct/backend/internal/domain/shared"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaPublisher implements EventPublisher on a Kafka topic. Messages
// are keyed by tenant so one tenant's events stay ordered within a
// partition. Publish failures are logged, never surfaced: events go
// out after the database commit and must not fail the request.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher creates a new KafkaPublisher
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
		logger: logger,
	}
}

type eventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	TenantID      string          `json:"tenant_id"`
	OccurredAt    string          `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// Publish writes the events to the topic
func (p *KafkaPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	messages := make([]kafka.Message, 0, len(events))
	for _, evt := range events {
		payload, err := json.Marshal(evt)
		if err != nil {
			p.logger.Error("failed to serialize event",
				zap.String("event_type", evt.EventType()),
				zap.Error(err),
			)
			continue
		}
		envelope, err := json.Marshal(eventEnvelope{
			EventID:       evt.EventID().String(),
			EventType:     evt.EventType(),
			AggregateType: evt.AggregateType(),
			AggregateID:   evt.AggregateID().String(),
			TenantID:      evt.TenantID().String(),
			OccurredAt:    evt.OccurredAt().Format("2006-01-02T15:04:05.000Z07:00"),
			Payload:       payload,
		})
		if err != nil {
			continue
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(evt.TenantID().String()),
			Value: envelope,
		})
	}
	if len(messages) == 0 {
		return nil
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.logger.Error("failed to publish events to kafka", zap.Error(err))
	}
	return nil
}

// Close closes the underlying writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Ensure KafkaPublisher implements EventPublisher
var _ shared.EventPublisher = (*KafkaPublisher)(nil)
