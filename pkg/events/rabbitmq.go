package events

import (
	"context"

	"fitstudio/pkg/mq"
)

type rabbitPublisher struct {
	publisher *mq.Publisher
}

func NewRabbitPublisher(publisher *mq.Publisher) Publisher {
	return &rabbitPublisher{publisher: publisher}
}

// Publish uses the event type as routing key, so consumers can bind to
// "booking.*" or to a single transition.
func (p *rabbitPublisher) Publish(ctx context.Context, event BookingEvent) error {
	return p.publisher.PublishJSON(ctx, event.Type, event.EventID, event)
}

func (p *rabbitPublisher) Close() error {
	return p.publisher.Close()
}
