package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/ecosort/recyclesort/pkg/kafka/producer"
	"github.com/ecosort/recyclesort/pkg/types/errs"
)

// EventPublisher writes messages to one topic. The shared writer is
// configured with RequiredAcks=all, so a nil return means every in-sync
// replica acknowledged the write: at-least-once, acknowledged delivery.
type EventPublisher struct {
	*producer.Producer
	topic string
}

func NewEventPublisher(producer *producer.Producer, topic string) *EventPublisher {
	return &EventPublisher{producer, topic}
}

func (ep *EventPublisher) Publish(ctx context.Context, key string, payload []byte) error {
	err := ep.Writer.WriteMessages(ctx, kafka.Message{
		Topic: ep.topic,
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("EventPublisher - Publish - ep.Writer.WriteMessages: %w: %w", errs.ErrUpstreamUnavailable, err)
	}

	return nil
}

func (ep *EventPublisher) Close() error {
	err := ep.Producer.Close()
	if err != nil {
		return fmt.Errorf("EventPublisher - Close: %w", err)
	}

	return nil
}
