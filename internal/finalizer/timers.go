package finalizer

import (
	"context"
	"sync"
	"time"

	"auction-lifecycle/utils"
)

// TimerScheduler fires FinalizeAuction for an auction at its end time.
// Timers live in process memory only; the Sweeper picks up anything lost on restart.
type TimerScheduler struct {
	base      context.Context
	finalizer Finalizer
	timeout   time.Duration

	mu     sync.Mutex
	timers map[int64]*time.Timer
	closed bool
}

// NewTimerScheduler creates a scheduler whose callbacks derive from base
func NewTimerScheduler(base context.Context, finalizer Finalizer, timeout time.Duration) *TimerScheduler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TimerScheduler{
		base:      base,
		finalizer: finalizer,
		timeout:   timeout,
		timers:    make(map[int64]*time.Timer),
	}
}

// Schedule arranges a finalize call at at, replacing any earlier timer for the id
func (s *TimerScheduler) Schedule(auctionID int64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if t, ok := s.timers[auctionID]; ok {
		t.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(time.Until(at), func() {
		s.mu.Lock()
		if s.timers[auctionID] == timer {
			delete(s.timers, auctionID)
		}
		s.mu.Unlock()
		s.fire(auctionID)
	})
	s.timers[auctionID] = timer
}

// Stop cancels every pending timer; later Schedule calls are ignored
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	dropped := 0
	for id, t := range s.timers {
		if t.Stop() {
			dropped++
		}
		delete(s.timers, id)
	}
	if dropped > 0 {
		utils.Info("scheduler: stopped with timers pending", map[string]any{"dropped": dropped})
	}
}

func (s *TimerScheduler) fire(auctionID int64) {
	if s.base.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(s.base, s.timeout)
	defer cancel()

	res, err := s.finalizer.FinalizeAuction(ctx, auctionID)
	if err != nil {
		utils.Warn("scheduler: finalize failed", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}
	utils.Debug("scheduler: finalize invoked", map[string]any{
		"auction_id": auctionID,
		"outcome":    res.Outcome.String(),
		"reason":     res.Reason.String(),
	})
}
