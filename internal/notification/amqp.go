package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher is the subset of *amqp.Channel used for event delivery.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes messages as persistent JSON events on a topic
// exchange, routed by message kind.
type AMQPNotifier struct {
	ch       Publisher
	exchange string
	logger   *slog.Logger
}

// NewAMQPNotifier builds a notifier publishing to exchange.
func NewAMQPNotifier(ch Publisher, exchange string, logger *slog.Logger) *AMQPNotifier {
	return &AMQPNotifier{ch: ch, exchange: exchange, logger: logger}
}

// Send publishes the message with the kind as routing key.
func (n *AMQPNotifier) Send(ctx context.Context, message Message) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = n.ch.PublishWithContext(ctx, n.exchange, message.Kind, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", message.Kind, err)
	}
	n.logger.Debug("event published", slog.String("exchange", n.exchange), slog.String("routing_key", message.Kind))
	return nil
}
