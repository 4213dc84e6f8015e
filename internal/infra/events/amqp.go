package events

import (
	"context"
	"encoding/json"
	"fmt"

	"fieldserve/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher fans booking lifecycle events out on a topic exchange.
// Consumers (notification workers etc.) live outside this service.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *Publisher) Publish(ctx context.Context, event domain.BookingEvent) error {
	body, err := json.Marshal(map[string]any{
		"booking_id":     event.BookingID,
		"booking_number": event.BookingNumber,
		"status":         string(event.Status),
		"subject":        event.Subject,
	})
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, event.Kind, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
