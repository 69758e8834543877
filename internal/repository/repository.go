package repository

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"auction-lifecycle/internal/auctionerrors"
	"auction-lifecycle/internal/models"
)

// AuctionRepository defines auction persistence for handlers and the finalizer.
//
// Update is a conditional write: it succeeds only while the stored record
// still carries auction.Version and is not finalized, and bumps the version on
// the caller's struct. It fails with ErrAuctionNotFound, ErrVersionConflict or
// ErrAuctionFinalized.
type AuctionRepository interface {
	GetByID(ctx context.Context, id int64) (models.Auction, error)
	Add(ctx context.Context, auction *models.Auction) error
	Update(ctx context.Context, auction *models.Auction) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]int64, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionRepository
type MemoryRepo struct {
	mu       sync.RWMutex
	auctions map[int64]models.Auction // key: auctionID -> value: latest snapshot
	nextID   int64
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions: make(map[int64]models.Auction),
	}
}

// GetByID returns a copy of the stored auction
func (r *MemoryRepo) GetByID(ctx context.Context, id int64) (models.Auction, error) {
	if err := ctx.Err(); err != nil {
		return models.Auction{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.auctions[id]
	if !ok {
		return models.Auction{}, fmt.Errorf("get auction %d: %w", id, auctionerrors.ErrAuctionNotFound)
	}
	return a.Clone(), nil
}

// Add assigns the next identifier and stores the auction at version 1
func (r *MemoryRepo) Add(ctx context.Context, auction *models.Auction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	auction.ID = r.nextID
	auction.Version = 1
	r.auctions[auction.ID] = auction.Clone()
	return nil
}

// Update replaces the stored snapshot if the version still matches
func (r *MemoryRepo) Update(ctx context.Context, auction *models.Auction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.auctions[auction.ID]
	switch {
	case !ok:
		return fmt.Errorf("update auction %d: %w", auction.ID, auctionerrors.ErrAuctionNotFound)
	case stored.IsTerminal():
		return fmt.Errorf("update auction %d: %w", auction.ID, auctionerrors.ErrAuctionFinalized)
	case stored.Version != auction.Version:
		return fmt.Errorf("update auction %d at version %d (stored %d): %w",
			auction.ID, auction.Version, stored.Version, auctionerrors.ErrVersionConflict)
	}

	auction.Version++
	r.auctions[auction.ID] = auction.Clone()
	return nil
}

// ListDue returns open auctions whose end time is not after now, oldest end first
func (r *MemoryRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("list due auctions: limit must be greater than zero")
	}

	r.mu.RLock()
	due := make([]models.Auction, 0)
	for _, a := range r.auctions {
		if a.Status.IsOpen() && !now.Before(a.EndTime) {
			due = append(due, a)
		}
	}
	r.mu.RUnlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].EndTime.Equal(due[j].EndTime) {
			return due[i].ID < due[j].ID
		}
		return due[i].EndTime.Before(due[j].EndTime)
	})
	if len(due) > limit {
		due = due[:limit]
	}

	ids := make([]int64, 0, len(due))
	for _, a := range due {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

// Seed stores an auction as-is, keeping its ID, status and version. This method is intended for tests only.
func (r *MemoryRepo) Seed(auction models.Auction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if auction.Version == 0 {
		auction.Version = 1
	}
	if auction.ID > r.nextID {
		r.nextID = auction.ID
	}
	r.auctions[auction.ID] = auction.Clone()
}
