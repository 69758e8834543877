package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"auction-lifecycle/internal/auctionerrors"
	"auction-lifecycle/internal/models"
	"auction-lifecycle/internal/repository/repotest"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "auctions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_Contract(t *testing.T) {
	t.Parallel()

	repotest.RunContract(t, func(t *testing.T) repotest.Repository {
		return openTestStore(t)
	})
}

func TestOpen_RequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "  ")
	require.Error(t, err)
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "auctions.db")

	first, err := Open(ctx, path)
	require.NoError(t, err)
	a := repotest.NewAuction(1, models.StatusPending, time.Now().Add(time.Hour))
	require.NoError(t, first.Add(ctx, &a))
	require.NoError(t, first.Close())

	second, err := Open(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, a.Title, got.Title)
}

// Rows written by the legacy service carry localized status labels
func TestStore_LegacyStatusLabels(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)
	now := time.Now().UTC()

	insertLegacy := func(status string, end time.Time) int64 {
		res, err := store.sqlDB.ExecContext(ctx, `
INSERT INTO auctions (user_id, title, initial_price, min_increment, start_time, end_time, status, created_at, updated_at)
VALUES (1, 'legacy', 100, 10, ?, ?, ?, ?, ?)`,
			toMillis(end.Add(-time.Hour)), toMillis(end), status, toMillis(now), toMillis(now))
		require.NoError(t, err)
		id, err := res.LastInsertId()
		require.NoError(t, err)
		return id
	}

	capitalized := insertLegacy(" Active", now.Add(-2*time.Minute))
	activa := insertLegacy("activa", now.Add(-time.Minute))
	insertLegacy("archivada", now.Add(-time.Hour))

	got, err := store.GetByID(ctx, activa)
	require.NoError(t, err)
	require.Equal(t, models.StatusActive, got.Status)

	ids, err := store.ListDue(ctx, now, 10)
	require.NoError(t, err)
	require.Equal(t, []int64{capitalized, activa}, ids)

	for _, label := range []string{"finalizada", "Finalizada", "FINALIZED"} {
		id := insertLegacy(label, now.Add(-time.Hour))

		done, err := store.GetByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, models.StatusFinalized, done.Status, label)

		done.Title = "rewritten"
		done.Status = models.StatusPending
		err = store.Update(ctx, &done)
		require.ErrorIs(t, err, auctionerrors.ErrAuctionFinalized, label)

		var stored, title string
		require.NoError(t, store.sqlDB.QueryRowContext(ctx, `SELECT status, title FROM auctions WHERE id = ?`, id).Scan(&stored, &title))
		require.Equal(t, label, stored)
		require.Equal(t, "legacy", title)
	}

	// a finalize written through the adapter uses the canonical label
	finalized, err := got.Finalize()
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, &finalized))

	var label string
	require.NoError(t, store.sqlDB.QueryRowContext(ctx, `SELECT status FROM auctions WHERE id = ?`, activa).Scan(&label))
	require.Equal(t, "finalized", label)
}
