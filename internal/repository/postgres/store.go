package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-lifecycle/internal/auctionerrors"
	"auction-lifecycle/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS auctions (
	id            BIGSERIAL PRIMARY KEY,
	product_id    BIGINT           NOT NULL DEFAULT 0,
	user_id       BIGINT           NOT NULL,
	title         VARCHAR(100)     NOT NULL,
	description   TEXT             NOT NULL DEFAULT '',
	initial_price DOUBLE PRECISION NOT NULL,
	min_increment DOUBLE PRECISION NOT NULL,
	reserve_price DOUBLE PRECISION,
	start_time    TIMESTAMPTZ      NOT NULL,
	end_time      TIMESTAMPTZ      NOT NULL,
	conditions    TEXT             NOT NULL DEFAULT '',
	auction_type  VARCHAR(50)      NOT NULL DEFAULT '',
	status        VARCHAR(50)      NOT NULL,
	version       BIGINT           NOT NULL DEFAULT 1,
	created_at    TIMESTAMPTZ      NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ      NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_auctions_status_end_time ON auctions (status, end_time);
`

// Store provides PostgreSQL-backed auction persistence
type Store struct {
	Pool *pgxpool.Pool
}

// Connect opens a pgx pool for dsn
func Connect(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Store{Pool: pool}, nil
}

// Close releases the pool
func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

// Ready pings the database
func (s *Store) Ready(ctx context.Context) error {
	var one int
	return s.Pool.QueryRow(ctx, "select 1").Scan(&one)
}

// EnsureSchema creates the auctions table if it does not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const selectColumns = `
	id, product_id, user_id, title, description, initial_price, min_increment,
	reserve_price, start_time, end_time, conditions, auction_type, status,
	version, created_at, updated_at`

// GetByID loads one auction
func (s *Store) GetByID(ctx context.Context, id int64) (models.Auction, error) {
	row := s.Pool.QueryRow(ctx, `SELECT`+selectColumns+` FROM auctions WHERE id = $1`, id)
	a, err := scanAuction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Auction{}, fmt.Errorf("get auction %d: %w", id, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return models.Auction{}, fmt.Errorf("get auction %d: %w", id, err)
	}
	return a, nil
}

// Add inserts the auction at version 1 and stores the assigned id on it
func (s *Store) Add(ctx context.Context, auction *models.Auction) error {
	err := s.Pool.QueryRow(ctx, `
INSERT INTO auctions (
	product_id, user_id, title, description, initial_price, min_increment,
	reserve_price, start_time, end_time, conditions, auction_type, status,
	version, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1, $13, $14)
RETURNING id`,
		auction.ProductID,
		auction.UserID,
		auction.Title,
		auction.Description,
		auction.InitialPrice,
		auction.MinIncrement,
		auction.ReservePrice,
		auction.StartTime.UTC(),
		auction.EndTime.UTC(),
		auction.Conditions,
		auction.Type,
		auction.Status.String(),
		auction.CreatedAt.UTC(),
		auction.UpdatedAt.UTC(),
	).Scan(&auction.ID)
	if err != nil {
		return fmt.Errorf("add auction: %w", err)
	}
	auction.Version = 1
	return nil
}

// Update writes the full snapshot if the stored version still matches and
// the stored record is not finalized
func (s *Store) Update(ctx context.Context, auction *models.Auction) error {
	ct, err := s.Pool.Exec(ctx, `
UPDATE auctions SET
	product_id = $1, user_id = $2, title = $3, description = $4, initial_price = $5,
	min_increment = $6, reserve_price = $7, start_time = $8, end_time = $9,
	conditions = $10, auction_type = $11, status = $12, updated_at = $13,
	version = version + 1
WHERE id = $14 AND version = $15 AND NOT (lower(btrim(status)) = ANY($16))`,
		auction.ProductID,
		auction.UserID,
		auction.Title,
		auction.Description,
		auction.InitialPrice,
		auction.MinIncrement,
		auction.ReservePrice,
		auction.StartTime.UTC(),
		auction.EndTime.UTC(),
		auction.Conditions,
		auction.Type,
		auction.Status.String(),
		auction.UpdatedAt.UTC(),
		auction.ID,
		auction.Version,
		models.StatusFinalized.Labels(),
	)
	if err != nil {
		return fmt.Errorf("update auction %d: %w", auction.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return s.classifyMiss(ctx, auction)
	}
	auction.Version++
	return nil
}

func (s *Store) classifyMiss(ctx context.Context, auction *models.Auction) error {
	var status string
	var version int64
	err := s.Pool.QueryRow(ctx, `SELECT status, version FROM auctions WHERE id = $1`, auction.ID).Scan(&status, &version)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("update auction %d: %w", auction.ID, auctionerrors.ErrAuctionNotFound)
	case err != nil:
		return fmt.Errorf("update auction %d: classify: %w", auction.ID, err)
	case models.ParseStatus(status).IsTerminal():
		return fmt.Errorf("update auction %d: %w", auction.ID, auctionerrors.ErrAuctionFinalized)
	default:
		return fmt.Errorf("update auction %d at version %d (stored %d): %w",
			auction.ID, auction.Version, version, auctionerrors.ErrVersionConflict)
	}
}

// ListDue returns open auctions whose end time is not after now, oldest end first
func (s *Store) ListDue(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("list due auctions: limit must be greater than zero")
	}

	var open []string
	for _, st := range models.OpenStatuses() {
		open = append(open, st.Labels()...)
	}

	rows, err := s.Pool.Query(ctx, `
SELECT id FROM auctions
WHERE lower(btrim(status)) = ANY($1) AND end_time <= $2
ORDER BY end_time ASC, id ASC
LIMIT $3`, open, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list due auctions: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan due auctions: %w", err)
	}
	return ids, nil
}

func scanAuction(row pgx.Row) (models.Auction, error) {
	var (
		a      models.Auction
		status string
	)
	if err := row.Scan(
		&a.ID,
		&a.ProductID,
		&a.UserID,
		&a.Title,
		&a.Description,
		&a.InitialPrice,
		&a.MinIncrement,
		&a.ReservePrice,
		&a.StartTime,
		&a.EndTime,
		&a.Conditions,
		&a.Type,
		&status,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return models.Auction{}, err
	}
	a.Status = models.ParseStatus(status)
	a.StartTime = a.StartTime.UTC()
	a.EndTime = a.EndTime.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}
