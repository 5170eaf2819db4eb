package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"ridehail/internal/service"
)

// channel is the slice of *amqp091.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher sends ride notifications to a RabbitMQ topic exchange.
// Routing keys follow ride.status.<status>, e.g. ride.status.in_progress.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	ch       channel
	exchange string
}

// Ensure Publisher implements service.Publisher.
var _ service.Publisher = (*Publisher)(nil)

// Dial connects to the broker and declares the durable topic exchange.
func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp091.ExchangeTopic, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %q: %w", exchange, err)
	}

	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish implements service.Publisher.
func (p *Publisher) Publish(ctx context.Context, n service.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx,
		p.exchange,    // exchange
		RoutingKey(n), // routing key
		false,         // mandatory
		false,         // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			MessageId:    n.ID,
			Type:         string(n.Type),
			Timestamp:    n.CreatedAt,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil {
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// RoutingKey derives the topic routing key from the ride status carried by n.
func RoutingKey(n service.Notification) string {
	status := strings.ToLower(strings.ReplaceAll(string(n.Status), " ", "_"))
	return "ride.status." + status
}

// LogPublisher writes notifications to the log instead of a broker.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish implements service.Publisher.
func (p *LogPublisher) Publish(ctx context.Context, n service.Notification) error {
	p.logger.InfoContext(ctx, "ride notification",
		"type", n.Type,
		"routing_key", RoutingKey(n),
		"ride_id", n.RideID,
		"recipient_id", n.RecipientID,
		"message", n.Message,
		"at", n.CreatedAt.Format(time.RFC3339),
	)
	return nil
}
