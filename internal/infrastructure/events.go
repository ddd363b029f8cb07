package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventPublisher fans audit events out to a topic exchange for downstream
// consumers (CRM sync, analytics). Postgres stays the source of truth; this
// is best-effort and must never block or fail a customer turn.
type EventPublisher struct {
	conn     *amqp.Connection
	exchange string
	log      *zap.Logger
}

func NewEventPublisher(url, exchange string, log *zap.Logger) (*EventPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}
	return &EventPublisher{conn: conn, exchange: exchange, log: log}, nil
}

func (p *EventPublisher) Publish(ctx context.Context, key string, payload any, correlationID string) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	err = ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     uuid.NewString(),
		CorrelationId: correlationID,
		Timestamp:     time.Now(),
		Body:          body,
	})
	if err == nil {
		p.log.Debug("event published", zap.String("key", key), zap.String("exchange", p.exchange))
	}
	return err
}

func (p *EventPublisher) Close() error {
	return p.conn.Close()
}
