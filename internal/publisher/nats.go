package publisher

import (
	"context"
	"fmt"
	"time"

	"auction-lifecycle/internal/models"
	"auction-lifecycle/utils"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	streamName    = "AUCTION_EVENTS"
	subjectPrefix = "auction.events"
)

// Subject returns the JetStream subject for an event, e.g. auction.events.ended.42
func Subject(eventType string, auctionID int64) string {
	switch eventType {
	case EventTypeAuctionEnded:
		return fmt.Sprintf("%s.ended.%d", subjectPrefix, auctionID)
	default:
		return fmt.Sprintf("%s.updated.%d", subjectPrefix, auctionID)
	}
}

// JetStreamPublisher publishes to a persistent JetStream stream. The event id
// is sent as Nats-Msg-Id so the server drops duplicates inside its window.
type JetStreamPublisher struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

// NewJetStreamPublisher connects to NATS and ensures the stream exists
func NewJetStreamPublisher(ctx context.Context, natsURL string) (*JetStreamPublisher, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	streamCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(streamCtx, jetstream.StreamConfig{
		Name:        streamName,
		Description: "Auction lifecycle events",
		Subjects:    []string{subjectPrefix + ".>"},
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		Duplicates:  2 * time.Minute,
		Replicas:    1,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create/update stream: %w", err)
	}
	utils.Info("jetstream stream ready", map[string]any{"stream": streamName})

	return &JetStreamPublisher{conn: conn, js: js}, nil
}

// PublishAuctionEnded publishes to auction.events.ended.<id>
func (p *JetStreamPublisher) PublishAuctionEnded(ctx context.Context, event models.AuctionEndedEvent) error {
	body, err := Encode(EventTypeAuctionEnded, event.EventID, event.AuctionID, event)
	if err != nil {
		return err
	}
	return p.publish(ctx, Subject(EventTypeAuctionEnded, event.AuctionID), event.EventID, body)
}

// PublishAuctionUpdated publishes to auction.events.updated.<id>
func (p *JetStreamPublisher) PublishAuctionUpdated(ctx context.Context, event models.AuctionUpdatedEvent) error {
	body, err := Encode(EventTypeAuctionUpdated, event.EventID, event.AuctionID, event)
	if err != nil {
		return err
	}
	return p.publish(ctx, Subject(EventTypeAuctionUpdated, event.AuctionID), event.EventID, body)
}

// publish waits for the server ack, so a nil error means the event is stored
func (p *JetStreamPublisher) publish(ctx context.Context, subject, eventID string, body []byte) error {
	ack, err := p.js.Publish(ctx, subject, body, jetstream.WithMsgID(eventID))
	if err != nil {
		return fmt.Errorf("failed to publish to JetStream %s: %w", subject, err)
	}
	utils.Debug("jetstream publish acked", map[string]any{
		"subject":   subject,
		"event_id":  eventID,
		"sequence":  ack.Sequence,
		"duplicate": ack.Duplicate,
	})
	return nil
}

// Close drains the NATS connection
func (p *JetStreamPublisher) Close() error {
	return p.conn.Drain()
}
