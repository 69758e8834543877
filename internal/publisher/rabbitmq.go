package publisher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"auction-lifecycle/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the topic exchange auction events are routed through
const ExchangeName = "auction_events"

// RabbitPublisher publishes to a durable topic exchange with publisher
// confirms, routing keys auction.ended and auction.updated.
type RabbitPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	mu   sync.Mutex
}

// NewRabbitPublisher dials url, declares the exchange and enables confirms
func NewRabbitPublisher(url string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("error opening connection to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("error opening channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("error creating exchange %s: %w", ExchangeName, err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("error enabling publisher confirms: %w", err)
	}

	return &RabbitPublisher{conn: conn, ch: ch}, nil
}

// PublishAuctionEnded routes with key auction.ended
func (p *RabbitPublisher) PublishAuctionEnded(ctx context.Context, event models.AuctionEndedEvent) error {
	body, err := Encode(EventTypeAuctionEnded, event.EventID, event.AuctionID, event)
	if err != nil {
		return err
	}
	return p.publish(ctx, EventTypeAuctionEnded, Publishing(event.EventID, event.FinalizedAt, body))
}

// PublishAuctionUpdated routes with key auction.updated
func (p *RabbitPublisher) PublishAuctionUpdated(ctx context.Context, event models.AuctionUpdatedEvent) error {
	body, err := Encode(EventTypeAuctionUpdated, event.EventID, event.AuctionID, event)
	if err != nil {
		return err
	}
	return p.publish(ctx, EventTypeAuctionUpdated, Publishing(event.EventID, event.UpdatedAt, body))
}

// Publishing builds a persistent JSON message carrying the event id as MessageId
func Publishing(eventID string, at time.Time, body []byte) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    eventID,
		Timestamp:    at,
		Body:         body,
	}
}

func (p *RabbitPublisher) publish(ctx context.Context, key string, msg amqp.Publishing) error {
	p.mu.Lock()
	confirm, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, ExchangeName, key, false, false, msg)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish to exchange %s: %w", ExchangeName, err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("waiting for confirm on %s: %w", key, err)
	}
	if !acked {
		return fmt.Errorf("broker nacked %s message %s", key, msg.MessageId)
	}
	return nil
}

// Close closes the channel and connection
func (p *RabbitPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return err
	}
	return p.conn.Close()
}
