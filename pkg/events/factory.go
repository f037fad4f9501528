package events

import (
	"fmt"

	"fitstudio/pkg/kafka"
	kafka_config "fitstudio/pkg/kafka/config"
	kafka_middleware "fitstudio/pkg/kafka/middleware"
	"fitstudio/pkg/logger"
	"fitstudio/pkg/mq"
)

// New builds the publisher selected by cfg.Driver.
func New(cfg *Config, log *logger.Logger) (Publisher, error) {
	switch cfg.Driver {
	case DriverKafka:
		kcfg, err := kafka_config.Load()
		if err != nil {
			return nil, err
		}
		producer, err := kafka.NewProducer(kcfg, log)
		if err != nil {
			return nil, fmt.Errorf("create kafka producer: %w", err)
		}
		producer.Use(kafka_middleware.LoggingProducerMiddleware(log))
		log.Info("Publishing booking events to kafka", "brokers", kcfg.Brokers, "topic", kcfg.Topic)
		return NewKafkaPublisher(producer, cfg.Source), nil
	case DriverRabbitMQ:
		publisher, err := mq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			return nil, err
		}
		log.Info("Publishing booking events to rabbitmq", "exchange", cfg.RabbitMQExchange)
		return NewRabbitPublisher(publisher), nil
	default:
		log.Info("Booking events disabled")
		return NewNoopPublisher(), nil
	}
}
