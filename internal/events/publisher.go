package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/soulparking/dashboard/internal/metrics"
)

const publishTimeout = 5 * time.Second

// Publisher delivers activity events to subscribers outside the process.
type Publisher interface {
	Publish(ctx context.Context, event ActivityEvent) error
	Close() error
}

// AMQPPublisher publishes events to a durable topic exchange.
type AMQPPublisher struct {
	mu           sync.Mutex
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
}

func NewAMQPPublisher(url, exchangeName string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: channel, exchangeName: exchangeName}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, event ActivityEvent) error {
	body, err := event.ToJSON()
	if err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	// amqp091 channels are not safe for concurrent publishing.
	p.mu.Lock()
	err = p.channel.PublishWithContext(
		ctx,
		p.exchangeName,     // exchange
		event.RoutingKey(), // routing key
		false,              // mandatory
		false,              // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	p.mu.Unlock()
	if err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("publish event: %w", err)
	}

	metrics.EventsPublished.WithLabelValues("ok").Inc()
	log.Ctx(ctx).Debug().
		Str("event_id", event.ID).
		Str("routing_key", event.RoutingKey()).
		Str("exchange", p.exchangeName).
		Msg("Published activity event")
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Noop discards events. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, ActivityEvent) error { return nil }
func (Noop) Close() error { return nil }

// MemoryPublisher keeps published events in order, for tests and local tooling.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []ActivityEvent
	Err    error
}

func (m *MemoryPublisher) Publish(_ context.Context, event ActivityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *MemoryPublisher) Close() error { return nil }

// Events returns a copy of everything published so far.
func (m *MemoryPublisher) Events() []ActivityEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ActivityEvent(nil), m.events...)
}
