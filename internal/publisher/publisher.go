package publisher

//go:generate mockgen -source=publisher.go -destination=mock_publisher.go -package=publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"auction-lifecycle/internal/models"
	"auction-lifecycle/utils"
)

// Event types carried in the envelope and used for routing
const (
	EventTypeAuctionEnded   = "auction.ended"
	EventTypeAuctionUpdated = "auction.updated"
)

// EventPublisher delivers lifecycle events to subscribers at least once.
// Subscribers deduplicate on the event id.
type EventPublisher interface {
	PublishAuctionEnded(ctx context.Context, event models.AuctionEndedEvent) error
	PublishAuctionUpdated(ctx context.Context, event models.AuctionUpdatedEvent) error
}

// Envelope is the wire format shared by every broker adapter
type Envelope struct {
	Type      string          `json:"type"`
	EventID   string          `json:"event_id"`
	AuctionID int64           `json:"auction_id"`
	Payload   json.RawMessage `json:"payload"`
}

// Encode wraps an event in an Envelope and marshals it
func Encode(eventType, eventID string, auctionID int64, event any) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	body, err := json.Marshal(Envelope{
		Type:      eventType,
		EventID:   eventID,
		AuctionID: auctionID,
		Payload:   payload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", eventType, err)
	}
	return body, nil
}

// LogPublisher writes events to the structured log; used when no broker is configured
type LogPublisher struct{}

// NewLogPublisher creates a LogPublisher
func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

// PublishAuctionEnded logs the ended event
func (p *LogPublisher) PublishAuctionEnded(ctx context.Context, event models.AuctionEndedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	utils.Info("event published", map[string]any{
		"type":         EventTypeAuctionEnded,
		"event_id":     event.EventID,
		"auction_id":   event.AuctionID,
		"title":        event.Title,
		"status":       event.Status.String(),
		"finalized_at": event.FinalizedAt,
	})
	return nil
}

// PublishAuctionUpdated logs the updated event
func (p *LogPublisher) PublishAuctionUpdated(ctx context.Context, event models.AuctionUpdatedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	utils.Info("event published", map[string]any{
		"type":       EventTypeAuctionUpdated,
		"event_id":   event.EventID,
		"auction_id": event.AuctionID,
		"title":      event.Title,
		"status":     event.Status.String(),
	})
	return nil
}
