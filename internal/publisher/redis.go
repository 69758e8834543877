package publisher

import (
	"context"
	"fmt"

	"auction-lifecycle/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes envelopes to Redis Pub/Sub on auction_events:<id>.
// Pub/Sub does not persist messages, so it suits live fan-out rather than archival.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher wraps an existing client
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Channel returns the Pub/Sub channel for an auction
func Channel(auctionID int64) string {
	return fmt.Sprintf("auction_events:%d", auctionID)
}

// PublishAuctionEnded publishes the ended envelope
func (p *RedisPublisher) PublishAuctionEnded(ctx context.Context, event models.AuctionEndedEvent) error {
	body, err := Encode(EventTypeAuctionEnded, event.EventID, event.AuctionID, event)
	if err != nil {
		return err
	}
	return p.publish(ctx, event.AuctionID, body)
}

// PublishAuctionUpdated publishes the updated envelope
func (p *RedisPublisher) PublishAuctionUpdated(ctx context.Context, event models.AuctionUpdatedEvent) error {
	body, err := Encode(EventTypeAuctionUpdated, event.EventID, event.AuctionID, event)
	if err != nil {
		return err
	}
	return p.publish(ctx, event.AuctionID, body)
}

func (p *RedisPublisher) publish(ctx context.Context, auctionID int64, body []byte) error {
	if err := p.client.Publish(ctx, Channel(auctionID), body).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", Channel(auctionID), err)
	}
	return nil
}
