package kafka_middleware

import (
	"context"
	"time"

	"fitstudio/pkg/kafka"
	"fitstudio/pkg/logger"
)

func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)

		attrs := []any{
			"topic", msg.Topic,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"correlation_id", msg.GetCorrelationID(),
			"duration", time.Since(start),
		}
		if err != nil {
			log.WithContext(ctx).Error("Failed to publish kafka message", append(attrs, "error", err)...)
			return err
		}
		log.WithContext(ctx).Debug("Published kafka message", attrs...)
		return nil
	}
}
