package auction

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

// InputValidator checks auction input before it is persisted
type InputValidator interface {
	ValidateAuction(in models.AuctionInput) error
}

// FinalizationScheduler arranges a finalize call at an auction's end time
type FinalizationScheduler interface {
	Schedule(auctionID int64, at time.Time)
}

// CreateAuctionCommand asks for a new auction owned by UserID
type CreateAuctionCommand struct {
	Input  models.AuctionInput
	UserID int64
}

// UpdateAuctionCommand edits an existing auction on behalf of UserID
type UpdateAuctionCommand struct {
	AuctionID int64
	Input     models.AuctionInput
	UserID    int64
}

// HandlerOption configures the command handlers
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	scheduler     FinalizationScheduler
	initialStatus models.Status
	now           func() time.Time
	newID         func() string
}

// WithScheduler registers a finalize callback for every created or rescheduled auction
func WithScheduler(s FinalizationScheduler) HandlerOption {
	return func(c *handlerConfig) { c.scheduler = s }
}

// WithInitialStatus sets the status of newly created auctions; only Draft and
// Pending are accepted, anything else keeps the default Pending.
func WithInitialStatus(s models.Status) HandlerOption {
	return func(c *handlerConfig) {
		if s == models.StatusDraft || s == models.StatusPending {
			c.initialStatus = s
		}
	}
}

// WithClock overrides the wall clock used for timestamps
func WithClock(now func() time.Time) HandlerOption {
	return func(c *handlerConfig) { c.now = now }
}

// WithEventIDGenerator overrides event id generation
func WithEventIDGenerator(newID func() string) HandlerOption {
	return func(c *handlerConfig) { c.newID = newID }
}

func newHandlerConfig(opts []HandlerOption) handlerConfig {
	cfg := handlerConfig{
		initialStatus: models.StatusPending,
		now:           func() time.Time { return time.Now().UTC() },
		newID:         utils.GenerateID,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// CreateAuctionHandler validates and persists new auctions
type CreateAuctionHandler struct {
	repo      repository.AuctionRepository
	validator InputValidator
	cfg       handlerConfig
}

// NewCreateAuctionHandler creates a new CreateAuctionHandler instance
func NewCreateAuctionHandler(repo repository.AuctionRepository, v InputValidator, opts ...HandlerOption) *CreateAuctionHandler {
	return &CreateAuctionHandler{repo: repo, validator: v, cfg: newHandlerConfig(opts)}
}

// Handle creates the auction and returns the id assigned by the repository
func (h *CreateAuctionHandler) Handle(ctx context.Context, cmd CreateAuctionCommand) (int64, error) {
	if cmd.UserID <= 0 {
		return 0, fmt.Errorf("service: %w - missing owner", auctionerrors.ErrUnauthorized)
	}
	if err := h.validator.ValidateAuction(cmd.Input); err != nil {
		return 0, fmt.Errorf("service: %w", err)
	}

	now := h.cfg.now()
	auction := models.Auction{
		UserID:    cmd.UserID,
		Status:    h.cfg.initialStatus,
		CreatedAt: now,
		UpdatedAt: now,
	}
	auction.Apply(cmd.Input)
	if auction.Type == "" {
		auction.Type = models.AuctionTypeSimple
	}

	if err := h.repo.Add(ctx, &auction); err != nil {
		return 0, fmt.Errorf("service: failed to create auction for user %d: %w", cmd.UserID, err)
	}

	if h.cfg.scheduler != nil {
		h.cfg.scheduler.Schedule(auction.ID, auction.EndTime)
	}

	utils.Info("service: auction created", map[string]any{
		"auction_id": auction.ID,
		"user_id":    auction.UserID,
		"status":     auction.Status.String(),
		"end_time":   auction.EndTime,
	})
	return auction.ID, nil
}

// UpdateAuctionHandler applies owner edits to open auctions
type UpdateAuctionHandler struct {
	repo      repository.AuctionRepository
	publisher publisher.EventPublisher
	validator InputValidator
	cfg       handlerConfig
}

// NewUpdateAuctionHandler creates a new UpdateAuctionHandler instance
func NewUpdateAuctionHandler(repo repository.AuctionRepository, pub publisher.EventPublisher, v InputValidator, opts ...HandlerOption) *UpdateAuctionHandler {
	return &UpdateAuctionHandler{repo: repo, publisher: pub, validator: v, cfg: newHandlerConfig(opts)}
}

// Handle updates the auction's editable fields; the status is never changed.
// The write is conditional on the version that was read, so an update never
// overwrites a concurrent finalization.
func (h *UpdateAuctionHandler) Handle(ctx context.Context, cmd UpdateAuctionCommand) (bool, error) {
	current, err := h.repo.GetByID(ctx, cmd.AuctionID)
	if err != nil {
		return false, fmt.Errorf("service: failed to load auction %d: %w", cmd.AuctionID, err)
	}
	if current.UserID != cmd.UserID {
		return false, fmt.Errorf("service: %w - auction %d, user %d", auctionerrors.ErrUnauthorized, cmd.AuctionID, cmd.UserID)
	}
	if current.IsTerminal() {
		return false, fmt.Errorf("service: auction %d: %w", cmd.AuctionID, auctionerrors.ErrAuctionFinalized)
	}
	if err := h.validator.ValidateAuction(cmd.Input); err != nil {
		return false, fmt.Errorf("service: %w", err)
	}

	updated := current.Clone()
	updated.Apply(cmd.Input)
	if updated.Type == "" {
		updated.Type = current.Type
	}
	updated.UpdatedAt = h.cfg.now()

	if err := h.repo.Update(ctx, &updated); err != nil {
		return false, h.classifyWriteError(ctx, cmd.AuctionID, err)
	}

	event := models.NewAuctionUpdatedEvent(h.cfg.newID(), updated)
	if err := h.publisher.PublishAuctionUpdated(ctx, event); err != nil {
		utils.Error("service: auction updated but event not delivered", map[string]any{
			"auction_id": updated.ID,
			"event_id":   event.EventID,
			"error":      fmt.Errorf("%w: %w", auctionerrors.ErrPublishFailed, err).Error(),
		})
	}

	if h.cfg.scheduler != nil && !updated.EndTime.Equal(current.EndTime) {
		h.cfg.scheduler.Schedule(updated.ID, updated.EndTime)
	}

	utils.Info("service: auction updated", map[string]any{
		"auction_id": updated.ID,
		"version":    updated.Version,
		"event_id":   event.EventID,
	})
	return true, nil
}

// classifyWriteError turns a rejected conditional write into the error the
// caller should see. A finalization that won the race wins over a plain conflict.
func (h *UpdateAuctionHandler) classifyWriteError(ctx context.Context, auctionID int64, err error) error {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionFinalized), errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return fmt.Errorf("service: auction %d: %w", auctionID, err)
	case !errors.Is(err, auctionerrors.ErrVersionConflict):
		return fmt.Errorf("service: failed to update auction %d: %w", auctionID, err)
	}

	latest, readErr := h.repo.GetByID(ctx, auctionID)
	if readErr == nil && latest.IsTerminal() {
		return fmt.Errorf("service: auction %d: %w", auctionID, auctionerrors.ErrAuctionFinalized)
	}
	return fmt.Errorf("service: auction %d: %w", auctionID, err)
}

// AuctionService bundles the command handlers and reads for the HTTP layer
type AuctionService struct {
	repo   repository.AuctionRepository
	create *CreateAuctionHandler
	update *UpdateAuctionHandler
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(repo repository.AuctionRepository, pub publisher.EventPublisher, v InputValidator, opts ...HandlerOption) *AuctionService {
	return &AuctionService{
		repo:   repo,
		create: NewCreateAuctionHandler(repo, v, opts...),
		update: NewUpdateAuctionHandler(repo, pub, v, opts...),
	}
}

// CreateAuction delegates to the create handler
func (s *AuctionService) CreateAuction(ctx context.Context, cmd CreateAuctionCommand) (int64, error) {
	return s.create.Handle(ctx, cmd)
}

// UpdateAuction delegates to the update handler
func (s *AuctionService) UpdateAuction(ctx context.Context, cmd UpdateAuctionCommand) (bool, error) {
	return s.update.Handle(ctx, cmd)
}

// GetAuction returns a single auction by id
func (s *AuctionService) GetAuction(ctx context.Context, auctionID int64) (models.Auction, error) {
	if auctionID <= 0 {
		return models.Auction{}, fmt.Errorf("service: %w - invalid auction id %d", auctionerrors.ErrAuctionNotFound, auctionID)
	}

	auction, err := s.repo.GetByID(ctx, auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to get auction %d: %w", auctionID, err)
	}
	return auction, nil
}
