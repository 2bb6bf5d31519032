// Package events publishes booking lifecycle events to RabbitMQ.
// Publishing is best effort: callers log failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/navikt/roomfinder/internal/models"
)

// Event types, also used as routing keys
const (
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingCancelled = "booking.cancelled"
)

// BookingEvent is the message body sent to the broker
type BookingEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	BookingRef string    `json:"bookingRef"`
	RoomID     string    `json:"roomId"`
	User       string    `json:"user,omitempty"`
	StartTime  string    `json:"startTime"`
	EndTime    string    `json:"endTime"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewBookingEvent describes b for eventType
func NewBookingEvent(eventType string, b models.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		BookingRef: b.Reference,
		RoomID:     b.RoomID,
		User:       b.User,
		StartTime:  b.Interval.Start.Format(models.DateTimeLayout),
		EndTime:    b.Interval.End.Format(models.DateTimeLayout),
		OccurredAt: at.UTC(),
	}
}

// Publisher sends booking events somewhere
type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

// Publish does nothing
func (NoopPublisher) Publish(ctx context.Context, event BookingEvent) error { return nil }

// Close does nothing
func (NoopPublisher) Close() error { return nil }

// Channel is the part of *amqp.Channel the publisher uses
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes persistent JSON messages. With an empty exchange
// the default exchange is used and one durable queue per event type is
// declared; otherwise a durable topic exchange is declared.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       Channel
	exchange string
	logger   *slog.Logger
}

// Dial connects to the broker at url
func Dial(url, exchange string, logger *slog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}

	p, err := NewAMQPPublisher(ch, exchange, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewAMQPPublisher declares the topology on ch and returns a publisher using it
func NewAMQPPublisher(ch Channel, exchange string, logger *slog.Logger) (*AMQPPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if exchange != "" {
		if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("rabbitmq: exchange declare failed: %w", err)
		}
	} else {
		for _, queue := range []string{TypeBookingConfirmed, TypeBookingCancelled} {
			if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
				return nil, fmt.Errorf("rabbitmq: queue declare failed: %w", err)
			}
		}
	}

	return &AMQPPublisher{ch: ch, exchange: exchange, logger: logger}, nil
}

// Publish sends event with its type as routing key
func (p *AMQPPublisher) Publish(ctx context.Context, event BookingEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event failed: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         event.Type,
		Timestamp:    event.OccurredAt,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, p.exchange, event.Type, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq: publish failed: %w", err)
	}

	p.logger.Debug("Published booking event",
		slog.String("type", event.Type),
		slog.String("bookingRef", event.BookingRef))
	return nil
}

// Close closes the channel and the connection
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
