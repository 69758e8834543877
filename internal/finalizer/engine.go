package finalizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-lifecycle/internal/auctionerrors"
	"auction-lifecycle/internal/models"
	"auction-lifecycle/internal/publisher"
	"auction-lifecycle/internal/repository"
	"auction-lifecycle/utils"
)

// Finalizer is the operation trigger sources invoke
type Finalizer interface {
	FinalizeAuction(ctx context.Context, auctionID int64) (Result, error)
}

// Engine finalizes auctions whose end time has passed. It holds no mutable
// state; concurrent invocations are serialised only by the repository's
// conditional write.
type Engine struct {
	repo      repository.AuctionRepository
	publisher publisher.EventPublisher
	now       func() time.Time
	newID     func() string
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the wall clock
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides event id generation
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine creates a new Engine instance
func NewEngine(repo repository.AuctionRepository, pub publisher.EventPublisher, opts ...Option) *Engine {
	e := &Engine{
		repo:      repo,
		publisher: pub,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     utils.GenerateID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FinalizeAuction finalizes the auction if it is open and due. It is safe to
// call any number of times for the same id: once the auction is finalized
// every later call is a no-op without writes or publishes.
//
// Store failures are returned wrapped and leave nothing changed. A publish
// failure after the write is logged and reported through Result.Published;
// the status change stands.
func (e *Engine) FinalizeAuction(ctx context.Context, auctionID int64) (Result, error) {
	auction, err := e.repo.GetByID(ctx, auctionID)
	if errors.Is(err, auctionerrors.ErrAuctionNotFound) {
		utils.Debug("finalizer: auction not found", map[string]any{"auction_id": auctionID})
		return noOp(ReasonNotFound), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("finalizer: load auction %d: %w", auctionID, err)
	}

	now := e.now()
	switch auction.FinalizationCheck(now) {
	case models.CheckTerminal:
		return noOp(ReasonAlreadyTerminal), nil
	case models.CheckNotDue:
		return noOp(ReasonNotYetDue), nil
	case models.CheckUnknownStatus:
		utils.Warn("finalizer: auction has unknown status", map[string]any{
			"auction_id": auctionID,
			"status":     auction.Status.String(),
		})
		return noOp(ReasonUnknownStatus), nil
	}

	finalized, err := auction.Finalize()
	if err != nil {
		return Result{}, fmt.Errorf("finalizer: %w", err)
	}

	// nothing written yet, so a cancelled caller can simply retry
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("finalizer: auction %d: %w", auctionID, err)
	}

	if err := e.repo.Update(ctx, &finalized); err != nil {
		switch {
		case errors.Is(err, auctionerrors.ErrVersionConflict), errors.Is(err, auctionerrors.ErrAuctionFinalized):
			return e.lostRace(ctx, auctionID), nil
		case errors.Is(err, auctionerrors.ErrAuctionNotFound):
			return noOp(ReasonNotFound), nil
		default:
			return Result{}, fmt.Errorf("finalizer: write auction %d: %w", auctionID, err)
		}
	}

	event := models.NewAuctionEndedEvent(e.newID(), finalized, now)
	result := Result{Outcome: OutcomeFinalized, EventID: event.EventID, Published: true}

	if err := e.publisher.PublishAuctionEnded(ctx, event); err != nil {
		result.Published = false
		utils.Error("finalizer: auction finalized but ended event not delivered", map[string]any{
			"auction_id": auctionID,
			"event_id":   event.EventID,
			"error":      fmt.Errorf("%w: %w", auctionerrors.ErrPublishFailed, err).Error(),
		})
		return result, nil
	}

	utils.Info("finalizer: auction finalized", map[string]any{
		"auction_id": auctionID,
		"event_id":   event.EventID,
		"end_time":   auction.EndTime,
	})
	return result, nil
}

// lostRace classifies a rejected conditional write with one read. It never
// retries the write.
func (e *Engine) lostRace(ctx context.Context, auctionID int64) Result {
	current, err := e.repo.GetByID(ctx, auctionID)
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return noOp(ReasonNotFound)
	case err != nil:
		utils.Warn("finalizer: lost race, could not reload auction", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return noOp(ReasonConflict)
	case current.IsTerminal():
		return noOp(ReasonAlreadyTerminal)
	default:
		return noOp(ReasonConflict)
	}
}
