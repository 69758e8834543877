package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"auction-lifecycle/internal/auctionerrors"
	"auction-lifecycle/internal/models"
	"auction-lifecycle/internal/repository/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed auction persistence
type Store struct {
	sqlDB *sql.DB
}

// Open opens an auction SQLite store and applies migrations
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the SQLite connection
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

const selectColumns = `
	id, product_id, user_id, title, description, initial_price, min_increment,
	reserve_price, start_time, end_time, conditions, auction_type, status,
	version, created_at, updated_at`

// GetByID loads one auction
func (s *Store) GetByID(ctx context.Context, id int64) (models.Auction, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT`+selectColumns+` FROM auctions WHERE id = ?`, id)
	a, err := scanAuction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Auction{}, fmt.Errorf("get auction %d: %w", id, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return models.Auction{}, fmt.Errorf("get auction %d: %w", id, err)
	}
	return a, nil
}

// Add inserts the auction at version 1 and stores the assigned id on it
func (s *Store) Add(ctx context.Context, auction *models.Auction) error {
	res, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO auctions (
	product_id, user_id, title, description, initial_price, min_increment,
	reserve_price, start_time, end_time, conditions, auction_type, status,
	version, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
`,
		auction.ProductID,
		auction.UserID,
		auction.Title,
		auction.Description,
		auction.InitialPrice,
		auction.MinIncrement,
		nullablePrice(auction.ReservePrice),
		toMillis(auction.StartTime),
		toMillis(auction.EndTime),
		auction.Conditions,
		auction.Type,
		auction.Status.String(),
		toMillis(auction.CreatedAt),
		toMillis(auction.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("add auction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("add auction: last insert id: %w", err)
	}
	auction.ID = id
	auction.Version = 1
	return nil
}

// Update writes the full snapshot if the stored version still matches and
// the stored record is not finalized
func (s *Store) Update(ctx context.Context, auction *models.Auction) error {
	args := []any{
		auction.ProductID,
		auction.UserID,
		auction.Title,
		auction.Description,
		auction.InitialPrice,
		auction.MinIncrement,
		nullablePrice(auction.ReservePrice),
		toMillis(auction.StartTime),
		toMillis(auction.EndTime),
		auction.Conditions,
		auction.Type,
		auction.Status.String(),
		toMillis(auction.UpdatedAt),
		auction.ID,
		auction.Version,
	}
	terminal := models.StatusFinalized.Labels()
	for _, l := range terminal {
		args = append(args, l)
	}

	res, err := s.sqlDB.ExecContext(ctx, `
UPDATE auctions SET
	product_id = ?, user_id = ?, title = ?, description = ?, initial_price = ?,
	min_increment = ?, reserve_price = ?, start_time = ?, end_time = ?,
	conditions = ?, auction_type = ?, status = ?, updated_at = ?,
	version = version + 1
WHERE id = ? AND version = ? AND LOWER(TRIM(status)) NOT IN (`+placeholders(len(terminal))+`)
`, args...)
	if err != nil {
		return fmt.Errorf("update auction %d: %w", auction.ID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update auction %d: rows affected: %w", auction.ID, err)
	}
	if rows == 0 {
		return s.classifyMiss(ctx, auction)
	}
	auction.Version++
	return nil
}

// classifyMiss explains why a conditional update matched no row
func (s *Store) classifyMiss(ctx context.Context, auction *models.Auction) error {
	var status string
	var version int64
	err := s.sqlDB.QueryRowContext(ctx, `SELECT status, version FROM auctions WHERE id = ?`, auction.ID).Scan(&status, &version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
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

	var open []any
	for _, st := range models.OpenStatuses() {
		for _, l := range st.Labels() {
			open = append(open, l)
		}
	}
	args := append(open, toMillis(now), limit)

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id FROM auctions
WHERE LOWER(TRIM(status)) IN (`+placeholders(len(open))+`) AND end_time <= ?
ORDER BY end_time ASC, id ASC
LIMIT ?
`, args...)
	if err != nil {
		return nil, fmt.Errorf("list due auctions: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0, limit)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan due auction: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due auctions: %w", err)
	}
	return ids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuction(row rowScanner) (models.Auction, error) {
	var (
		a                            models.Auction
		reserve                      sql.NullFloat64
		status                       string
		start, end, created, updated int64
	)
	if err := row.Scan(
		&a.ID,
		&a.ProductID,
		&a.UserID,
		&a.Title,
		&a.Description,
		&a.InitialPrice,
		&a.MinIncrement,
		&reserve,
		&start,
		&end,
		&a.Conditions,
		&a.Type,
		&status,
		&a.Version,
		&created,
		&updated,
	); err != nil {
		return models.Auction{}, err
	}
	if reserve.Valid {
		v := reserve.Float64
		a.ReservePrice = &v
	}
	a.Status = models.ParseStatus(status)
	a.StartTime = fromMillis(start)
	a.EndTime = fromMillis(end)
	a.CreatedAt = fromMillis(created)
	a.UpdatedAt = fromMillis(updated)
	return a, nil
}

func nullablePrice(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
