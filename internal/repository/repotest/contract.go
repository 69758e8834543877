// Package repotest holds the behaviour every AuctionRepository adapter must share.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"auction-lifecycle/internal/auctionerrors"
	"auction-lifecycle/internal/models"

	"github.com/stretchr/testify/require"
)

// Repository mirrors repository.AuctionRepository to keep this package import-cycle free
type Repository interface {
	GetByID(ctx context.Context, id int64) (models.Auction, error)
	Add(ctx context.Context, auction *models.Auction) error
	Update(ctx context.Context, auction *models.Auction) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]int64, error)
}

// NewAuction returns a valid open auction ending at endTime
func NewAuction(userID int64, status models.Status, endTime time.Time) models.Auction {
	reserve := 250.0
	return models.Auction{
		ProductID:    1,
		UserID:       userID,
		Title:        fmt.Sprintf("auction by %d", userID),
		Description:  "description",
		InitialPrice: 100,
		MinIncrement: 10,
		ReservePrice: &reserve,
		StartTime:    endTime.Add(-2 * time.Hour).UTC().Truncate(time.Millisecond),
		EndTime:      endTime.UTC().Truncate(time.Millisecond),
		Conditions:   "New",
		Type:         models.AuctionTypeSimple,
		Status:       status,
		CreatedAt:    endTime.Add(-3 * time.Hour).UTC().Truncate(time.Millisecond),
		UpdatedAt:    endTime.Add(-3 * time.Hour).UTC().Truncate(time.Millisecond),
	}
}

// RunContract runs the shared adapter behaviour against a fresh repository per subtest
func RunContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("add_assigns_id_and_version", func(t *testing.T) {
		repo := newRepo(t)

		first := NewAuction(1, models.StatusPending, now.Add(time.Hour))
		second := NewAuction(2, models.StatusDraft, now.Add(time.Hour))
		require.NoError(t, repo.Add(ctx, &first))
		require.NoError(t, repo.Add(ctx, &second))

		require.NotZero(t, first.ID)
		require.NotEqual(t, first.ID, second.ID)
		require.Equal(t, int64(1), first.Version)

		got, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		require.Equal(t, first.Title, got.Title)
		require.Equal(t, first.UserID, got.UserID)
		require.Equal(t, models.StatusPending, got.Status)
		require.Equal(t, int64(1), got.Version)
		require.True(t, first.EndTime.Equal(got.EndTime))
		require.True(t, first.StartTime.Equal(got.StartTime))
		require.NotNil(t, got.ReservePrice)
		require.Equal(t, 250.0, *got.ReservePrice)
	})

	t.Run("get_missing", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.GetByID(ctx, 4242)
		require.True(t, errors.Is(err, auctionerrors.ErrAuctionNotFound), "got %v", err)
	})

	t.Run("update_bumps_version", func(t *testing.T) {
		repo := newRepo(t)

		a := NewAuction(1, models.StatusPending, now.Add(time.Hour))
		require.NoError(t, repo.Add(ctx, &a))

		a.Title = "Updated Title"
		a.ReservePrice = nil
		require.NoError(t, repo.Update(ctx, &a))
		require.Equal(t, int64(2), a.Version)

		got, err := repo.GetByID(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, "Updated Title", got.Title)
		require.Nil(t, got.ReservePrice)
		require.Equal(t, int64(2), got.Version)
	})

	t.Run("update_stale_version", func(t *testing.T) {
		repo := newRepo(t)

		a := NewAuction(1, models.StatusPending, now.Add(time.Hour))
		require.NoError(t, repo.Add(ctx, &a))
		stale := a.Clone()

		a.Title = "first writer"
		require.NoError(t, repo.Update(ctx, &a))

		stale.Title = "second writer"
		err := repo.Update(ctx, &stale)
		require.True(t, errors.Is(err, auctionerrors.ErrVersionConflict), "got %v", err)
		require.Equal(t, int64(1), stale.Version)

		got, err := repo.GetByID(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, "first writer", got.Title)
	})

	t.Run("update_missing", func(t *testing.T) {
		repo := newRepo(t)

		a := NewAuction(1, models.StatusPending, now)
		a.ID = 9999
		a.Version = 1
		err := repo.Update(ctx, &a)
		require.True(t, errors.Is(err, auctionerrors.ErrAuctionNotFound), "got %v", err)
	})

	t.Run("finalized_is_immutable", func(t *testing.T) {
		repo := newRepo(t)

		a := NewAuction(1, models.StatusActive, now.Add(-time.Minute))
		require.NoError(t, repo.Add(ctx, &a))

		finalized, err := a.Finalize()
		require.NoError(t, err)
		require.NoError(t, repo.Update(ctx, &finalized))

		got, err := repo.GetByID(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, models.StatusFinalized, got.Status)

		got.Title = "after the end"
		err = repo.Update(ctx, &got)
		require.True(t, errors.Is(err, auctionerrors.ErrAuctionFinalized), "got %v", err)
	})

	t.Run("list_due", func(t *testing.T) {
		repo := newRepo(t)

		overdue := NewAuction(1, models.StatusActive, now.Add(-time.Hour))
		due := NewAuction(2, models.StatusPending, now.Add(-time.Minute))
		draft := NewAuction(3, models.StatusDraft, now.Add(-30*time.Minute))
		future := NewAuction(4, models.StatusActive, now.Add(time.Hour))
		done := NewAuction(5, models.StatusActive, now.Add(-2*time.Hour))
		for _, a := range []*models.Auction{&overdue, &due, &draft, &future, &done} {
			require.NoError(t, repo.Add(ctx, a))
		}
		finalized, err := done.Finalize()
		require.NoError(t, err)
		require.NoError(t, repo.Update(ctx, &finalized))

		ids, err := repo.ListDue(ctx, now, 10)
		require.NoError(t, err)
		require.Equal(t, []int64{overdue.ID, draft.ID, due.ID}, ids)

		ids, err = repo.ListDue(ctx, now, 2)
		require.NoError(t, err)
		require.Equal(t, []int64{overdue.ID, draft.ID}, ids)

		ids, err = repo.ListDue(ctx, now.Add(-3*time.Hour), 10)
		require.NoError(t, err)
		require.Empty(t, ids)
	})

	t.Run("concurrent_updates_single_winner", func(t *testing.T) {
		repo := newRepo(t)

		a := NewAuction(1, models.StatusActive, now.Add(-time.Minute))
		require.NoError(t, repo.Add(ctx, &a))

		var wg sync.WaitGroup
		var wins, conflicts atomic.Int32
		concurrentCount := 20

		for i := 0; i < concurrentCount; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				candidate, err := a.Finalize()
				if err != nil {
					return
				}
				err = repo.Update(ctx, &candidate)
				switch {
				case err == nil:
					wins.Add(1)
				case errors.Is(err, auctionerrors.ErrVersionConflict), errors.Is(err, auctionerrors.ErrAuctionFinalized):
					conflicts.Add(1)
				}
			}()
		}
		wg.Wait()

		require.Equal(t, int32(1), wins.Load())
		require.Equal(t, int32(concurrentCount-1), conflicts.Load())
	})

	t.Run("cancelled_context", func(t *testing.T) {
		repo := newRepo(t)

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		a := NewAuction(1, models.StatusPending, now)
		require.Error(t, repo.Add(cctx, &a))
	})
}
