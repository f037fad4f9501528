package events

import (
	"context"

	"fitstudio/pkg/kafka"
)

type kafkaPublisher struct {
	producer *kafka.Producer
	source   string
}

func NewKafkaPublisher(producer *kafka.Producer, source string) Publisher {
	return &kafkaPublisher{producer: producer, source: source}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event BookingEvent) error {
	msg, err := KafkaMessage(event, p.source)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

// KafkaMessage keys by booking reference so events for one booking stay ordered.
func KafkaMessage(event BookingEvent, source string) (kafka.Message, error) {
	return kafka.NewMessage().
		WithKey(event.BookingReference).
		WithValue(event).
		WithEventID(event.EventID).
		WithEventType(event.Type).
		WithCorrelationID(event.RequestID).
		WithSchemaVersion(SchemaVersion).
		WithSource(source).
		WithTimestamp(event.OccurredAt).
		Build()
}
