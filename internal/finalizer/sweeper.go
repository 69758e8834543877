package finalizer

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"auction-lifecycle/utils"

	"golang.org/x/sync/errgroup"
)

// DueLister finds candidate auctions for a sweep
type DueLister interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]int64, error)
}

// SweepStats summarises one sweep
type SweepStats struct {
	Candidates  int
	Finalized   int
	NoOps       int
	Failed      int
	Undelivered int
}

// Sweeper periodically lists due auctions and finalizes each one
type Sweeper struct {
	lister      DueLister
	finalizer   Finalizer
	interval    time.Duration
	batchSize   int
	concurrency int
	timeout     time.Duration
	now         func() time.Time
}

// SweeperConfig holds the sweep cadence and fan-out
type SweeperConfig struct {
	Interval    time.Duration
	BatchSize   int
	Concurrency int
	// Timeout bounds each FinalizeAuction call; zero means no bound
	Timeout time.Duration
}

// NewSweeper creates a Sweeper. Non-positive values fall back to defaults.
func NewSweeper(lister DueLister, finalizer Finalizer, cfg SweeperConfig) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Sweeper{
		lister:      lister,
		finalizer:   finalizer,
		interval:    cfg.Interval,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
		timeout:     cfg.Timeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps once immediately and then every interval until ctx is done
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			utils.Error("sweeper: sweep failed", map[string]any{"error": err.Error()})
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SweepOnce finalizes up to one batch of due auctions. Per-auction failures
// are counted and logged; they never stop the rest of the batch.
func (s *Sweeper) SweepOnce(ctx context.Context) (SweepStats, error) {
	ids, err := s.lister.ListDue(ctx, s.now(), s.batchSize)
	if err != nil {
		return SweepStats{}, fmt.Errorf("sweeper: list due auctions: %w", err)
	}

	var finalized, noops, failed, undelivered atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			callCtx := gctx
			if s.timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(gctx, s.timeout)
				defer cancel()
			}

			res, err := s.finalizer.FinalizeAuction(callCtx, id)
			switch {
			case err != nil:
				failed.Add(1)
				utils.Warn("sweeper: finalize failed", map[string]any{"auction_id": id, "error": err.Error()})
			case res.Finalized():
				finalized.Add(1)
				if !res.Published {
					undelivered.Add(1)
				}
			default:
				noops.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	stats := SweepStats{
		Candidates:  len(ids),
		Finalized:   int(finalized.Load()),
		NoOps:       int(noops.Load()),
		Failed:      int(failed.Load()),
		Undelivered: int(undelivered.Load()),
	}
	if stats.Candidates > 0 {
		utils.Info("sweeper: sweep complete", map[string]any{
			"candidates":  stats.Candidates,
			"finalized":   stats.Finalized,
			"noops":       stats.NoOps,
			"failed":      stats.Failed,
			"undelivered": stats.Undelivered,
		})
	}
	return stats, nil
}
