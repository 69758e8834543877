package finalizer

// Outcome is what a FinalizeAuction invocation did
type Outcome uint8

const (
	OutcomeNoOp Outcome = iota
	OutcomeFinalized
)

func (o Outcome) String() string {
	if o == OutcomeFinalized {
		return "finalized"
	}
	return "noop"
}

// Reason explains a no-op
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonNotFound
	ReasonAlreadyTerminal
	ReasonNotYetDue
	ReasonUnknownStatus
	// ReasonConflict: the conditional write lost to a concurrent update and
	// the auction is still open; the next sweep retries.
	ReasonConflict
)

func (r Reason) String() string {
	switch r {
	case ReasonNotFound:
		return "not_found"
	case ReasonAlreadyTerminal:
		return "already_terminal"
	case ReasonNotYetDue:
		return "not_yet_due"
	case ReasonUnknownStatus:
		return "unknown_status"
	case ReasonConflict:
		return "conflict"
	default:
		return ""
	}
}

// Result of one FinalizeAuction invocation. Published is false when the
// status change was written but the ended event could not be delivered.
type Result struct {
	Outcome   Outcome
	Reason    Reason
	EventID   string
	Published bool
}

// Finalized reports whether this invocation performed the transition
func (r Result) Finalized() bool {
	return r.Outcome == OutcomeFinalized
}

func noOp(reason Reason) Result {
	return Result{Outcome: OutcomeNoOp, Reason: reason}
}
