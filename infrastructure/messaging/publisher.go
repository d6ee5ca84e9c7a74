/*
Package messaging relays outbox events to a broker.

The outbox worker hands every claimed row to a Publisher; a nil error
marks the row published, anything else schedules a retry. Publishers must
therefore tolerate the same message being sent more than once: consumers
deduplicate on Message.ID.
*/
package messaging

import (
	"context"
	"fmt"
	"time"

	"bookstore/pkg/logger"

	"go.uber.org/zap"
)

// Message is one outbox row on its way to the broker.
type Message struct {
	ID          string
	AggregateID string
	EventType   string
	Payload     []byte // JSON
	OccurredAt  time.Time
}

// Publisher sends outbox messages.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Kind selects a Publisher implementation.
type Kind string

const (
	KindLog      Kind = "log"
	KindKafka    Kind = "kafka"
	KindRabbitMQ Kind = "rabbitmq"
)

// Config Broker settings
type Config struct {
	Kind          Kind
	KafkaBrokers  []string
	KafkaTopic    string
	RabbitMQURL   string
	RabbitMQQueue string
}

// NewPublisher builds the publisher cfg.Kind names.
func NewPublisher(cfg Config) (Publisher, error) {
	switch cfg.Kind {
	case "", KindLog:
		return LogPublisher{}, nil
	case KindKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	case KindRabbitMQ:
		return DialRabbitMQ(cfg.RabbitMQURL, cfg.RabbitMQQueue)
	default:
		return nil, fmt.Errorf("unknown publisher kind %q", cfg.Kind)
	}
}

// LogPublisher writes events to the application log. Used in development
// and when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, msg Message) error {
	logger.Info("Outbox event published",
		zap.String("event_id", msg.ID),
		zap.String("event_type", msg.EventType),
		zap.String("aggregate_id", msg.AggregateID),
		zap.ByteString("payload", msg.Payload),
	)
	return nil
}

func (LogPublisher) Close() error { return nil }
