package models

import (
	"fmt"
	"time"

	"auction-lifecycle/internal/auctionerrors"
)

// FinalizationCheck classifies an auction against a point in time
type FinalizationCheck uint8

const (
	CheckEligible FinalizationCheck = iota
	CheckTerminal
	CheckNotDue
	CheckUnknownStatus
)

func (c FinalizationCheck) String() string {
	switch c {
	case CheckEligible:
		return "eligible"
	case CheckTerminal:
		return "terminal"
	case CheckNotDue:
		return "not_due"
	default:
		return "unknown_status"
	}
}

// FinalizationCheck is pure: now is supplied by the caller.
func (a Auction) FinalizationCheck(now time.Time) FinalizationCheck {
	switch {
	case a.Status.IsTerminal():
		return CheckTerminal
	case !a.Status.IsOpen():
		return CheckUnknownStatus
	case now.Before(a.EndTime):
		return CheckNotDue
	default:
		return CheckEligible
	}
}

// CanFinalize reports whether the auction is open and its end time has passed
func (a Auction) CanFinalize(now time.Time) bool {
	return a.FinalizationCheck(now) == CheckEligible
}

// IsTerminal reports whether the auction accepts no further mutation
func (a Auction) IsTerminal() bool {
	return a.Status.IsTerminal()
}

// Finalize returns a copy of the auction in the Finalized status. Only the
// status changes; the end time is not consulted here, callers gate on
// CanFinalize.
func (a Auction) Finalize() (Auction, error) {
	if !a.Status.IsOpen() {
		return Auction{}, fmt.Errorf("finalize auction %d from %s: %w", a.ID, a.Status, auctionerrors.ErrInvalidTransition)
	}
	next := a.Clone()
	next.Status = StatusFinalized
	return next, nil
}
