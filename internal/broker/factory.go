package broker

import (
	"fmt"

	"peekq/internal/config"
	"peekq/internal/logger"
)

const (
	TypeKafka    = "kafka"
	TypeRabbitMQ = "rabbitmq"
)

func NewConsumer(cfg config.BrokerConfig, log logger.Logger) (Consumer, error) {
	switch cfg.Type {
	case TypeKafka:
		return NewKafkaConsumer(cfg.Kafka, cfg.Retry, log), nil
	case TypeRabbitMQ:
		return NewRabbitMQConsumer(cfg.RabbitMQ, cfg.Retry, log), nil
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}

// Source returns the queue or topic the configured broker consumes from.
func Source(cfg config.BrokerConfig) string {
	if cfg.Type == TypeKafka {
		return cfg.Kafka.Topic
	}
	return cfg.RabbitMQ.Queue
}
