package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"tableside/internal/domain"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	writer MessageWriter
	logger *zap.Logger
}

func NewKafkaPublisher(writer MessageWriter, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		logger: logger,
	}
}

// PublishOrderSynced announces that a local order reached the remote API.
// Messages are keyed by local id so every event for one order lands on the
// same partition.
func (p *KafkaPublisher) PublishOrderSynced(ctx context.Context, event domain.OrderSyncedEvent) error {
	if event.Type == "" {
		event.Type = domain.EventOrderSynced
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.LocalID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing %s event: %w", event.Type, err)
	}

	p.logger.Debug("sync event published", zap.String("localId", event.LocalID), zap.String("remoteOrderId", event.RemoteOrderID))
	return nil
}
