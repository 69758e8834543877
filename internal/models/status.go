package models

import "strings"

// Status is the lifecycle state of an auction
type Status uint8

const (
	StatusUnknown Status = iota
	StatusDraft
	StatusPending
	StatusActive
	StatusFinalized
)

var statusLabels = map[Status]string{
	StatusDraft:     "draft",
	StatusPending:   "pending",
	StatusActive:    "active",
	StatusFinalized: "finalized",
}

// spellings found in stored records, keyed by lower-case label
var statusAliases = map[string]Status{
	"draft":      StatusDraft,
	"borrador":   StatusDraft,
	"pending":    StatusPending,
	"pendiente":  StatusPending,
	"active":     StatusActive,
	"activa":     StatusActive,
	"finalized":  StatusFinalized,
	"finalizada": StatusFinalized,
}

// ParseStatus maps a stored status label onto the enum. Unrecognised labels
// return StatusUnknown.
func ParseStatus(label string) Status {
	if s, ok := statusAliases[strings.ToLower(strings.TrimSpace(label))]; ok {
		return s
	}
	return StatusUnknown
}

// String returns the canonical label
func (s Status) String() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return "unknown"
}

// Labels returns every lower-case spelling that parses to s, canonical label
// first. Adapters compare them against the trimmed, lower-cased stored label
// so legacy rows match in any letter case.
func (s Status) Labels() []string {
	canonical, ok := statusLabels[s]
	if !ok {
		return nil
	}
	labels := []string{canonical}
	for alias, st := range statusAliases {
		if st == s && alias != canonical {
			labels = append(labels, alias)
		}
	}
	return labels
}

// IsTerminal reports whether no further transition is allowed
func (s Status) IsTerminal() bool {
	return s == StatusFinalized
}

// IsOpen reports whether s is a known non-terminal status
func (s Status) IsOpen() bool {
	switch s {
	case StatusDraft, StatusPending, StatusActive:
		return true
	default:
		return false
	}
}

// OpenStatuses lists the non-terminal statuses
func OpenStatuses() []Status {
	return []Status{StatusDraft, StatusPending, StatusActive}
}

// MarshalText implements encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown labels decode to
// StatusUnknown rather than failing, so a bad row never blocks a read.
func (s *Status) UnmarshalText(text []byte) error {
	*s = ParseStatus(string(text))
	return nil
}
