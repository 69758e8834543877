package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"auction-lifecycle/internal/auctionerrors"
	"auction-lifecycle/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	nextIDKey = "auctions:next_id"
	dueKey    = "auctions:due" // sorted set of open auctions scored by end time (ms)
)

// Lua result codes for the conditional update
const (
	updateNotFound  = -1
	updateFinalized = -2
	updateConflict  = 0
)

// Store keeps each auction in a hash {version, status, data} and indexes open
// auctions by end time. All writes to one auction go through a Lua script so
// the version check and the write are atomic on the server.
type Store struct {
	client       *redis.Client
	updateScript *redis.Script
}

// NewStore wraps an existing client
func NewStore(client *redis.Client) *Store {
	// KEYS[1]: auction:{id} hash
	// KEYS[2]: auctions:due sorted set
	// ARGV[1]: expected version
	// ARGV[2]: new data (json)
	// ARGV[3]: new status label
	// ARGV[4]: end time (ms)
	// ARGV[5]: auction id
	// ARGV[6]: "1" if the new status is open
	// ARGV[7..]: terminal status labels, lower-case
	updateScript := redis.NewScript(`
		local version = redis.call('HGET', KEYS[1], 'version')
		if not version then
			return -1
		end

		local current = redis.call('HGET', KEYS[1], 'status')
		if current then
			current = string.lower(string.match(current, '^%s*(.-)%s*$'))
		end
		for i = 7, #ARGV do
			if current == ARGV[i] then
				return -2
			end
		end

		if tonumber(version) ~= tonumber(ARGV[1]) then
			return 0
		end

		local next_version = tonumber(version) + 1
		redis.call('HSET', KEYS[1], 'version', next_version, 'status', ARGV[3], 'data', ARGV[2])
		if ARGV[6] == '1' then
			redis.call('ZADD', KEYS[2], ARGV[4], ARGV[5])
		else
			redis.call('ZREM', KEYS[2], ARGV[5])
		end
		return next_version
	`)

	return &Store{client: client, updateScript: updateScript}
}

// Connect creates a client for addr and checks connectivity
func Connect(ctx context.Context, addr, password string, db int) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewStore(rdb), nil
}

// Client exposes the underlying connection so the event publisher can share it
func (s *Store) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func auctionKey(id int64) string {
	return fmt.Sprintf("auction:%d", id)
}

// GetByID loads one auction
func (s *Store) GetByID(ctx context.Context, id int64) (models.Auction, error) {
	fields, err := s.client.HGetAll(ctx, auctionKey(id)).Result()
	if err != nil {
		return models.Auction{}, fmt.Errorf("get auction %d: %w", id, err)
	}
	if len(fields) == 0 {
		return models.Auction{}, fmt.Errorf("get auction %d: %w", id, auctionerrors.ErrAuctionNotFound)
	}

	var a models.Auction
	if err := json.Unmarshal([]byte(fields["data"]), &a); err != nil {
		return models.Auction{}, fmt.Errorf("decode auction %d: %w", id, err)
	}
	version, err := strconv.ParseInt(fields["version"], 10, 64)
	if err != nil {
		return models.Auction{}, fmt.Errorf("decode auction %d version: %w", id, err)
	}
	a.ID = id
	a.Version = version
	a.Status = models.ParseStatus(fields["status"])
	return a, nil
}

// Add allocates an id with INCR and writes the hash and due index in one transaction
func (s *Store) Add(ctx context.Context, auction *models.Auction) error {
	id, err := s.client.Incr(ctx, nextIDKey).Result()
	if err != nil {
		return fmt.Errorf("add auction: allocate id: %w", err)
	}

	stored := auction.Clone()
	stored.ID = id
	stored.Version = 1
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("add auction: encode: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, auctionKey(id), "version", 1, "status", stored.Status.String(), "data", data)
		if stored.Status.IsOpen() {
			pipe.ZAdd(ctx, dueKey, redis.Z{Score: float64(stored.EndTime.UnixMilli()), Member: id})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("add auction %d: %w", id, err)
	}

	auction.ID = id
	auction.Version = 1
	return nil
}

// Update runs the conditional write script
func (s *Store) Update(ctx context.Context, auction *models.Auction) error {
	data, err := json.Marshal(auction)
	if err != nil {
		return fmt.Errorf("update auction %d: encode: %w", auction.ID, err)
	}

	open := "0"
	if auction.Status.IsOpen() {
		open = "1"
	}
	args := []any{
		auction.Version,
		data,
		auction.Status.String(),
		auction.EndTime.UnixMilli(),
		auction.ID,
		open,
	}
	for _, l := range models.StatusFinalized.Labels() {
		args = append(args, l)
	}

	code, err := s.updateScript.Run(ctx, s.client, []string{auctionKey(auction.ID), dueKey}, args...).Int64()
	if err != nil {
		return fmt.Errorf("update auction %d: %w", auction.ID, err)
	}

	switch code {
	case updateNotFound:
		return fmt.Errorf("update auction %d: %w", auction.ID, auctionerrors.ErrAuctionNotFound)
	case updateFinalized:
		return fmt.Errorf("update auction %d: %w", auction.ID, auctionerrors.ErrAuctionFinalized)
	case updateConflict:
		return fmt.Errorf("update auction %d at version %d: %w", auction.ID, auction.Version, auctionerrors.ErrVersionConflict)
	}
	auction.Version = code
	return nil
}

// ListDue reads the due index up to now, oldest end first
func (s *Store) ListDue(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("list due auctions: limit must be greater than zero")
	}

	members, err := s.client.ZRangeByScore(ctx, dueKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("list due auctions: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("list due auctions: bad member %q: %w", m, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
