package models

import "fmt"

// ShareStatus is the settlement state of a Share.
//
// The only transition is UNSETTLED -> SETTLED; there is no reversal.
type ShareStatus string

const (
	ShareUnsettled ShareStatus = "UNSETTLED"
	ShareSettled   ShareStatus = "SETTLED"
)

// IsSettled reports whether the share was marked paid.
func (s ShareStatus) IsSettled() bool {
	return s == ShareSettled
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Staying in the same state is allowed so that settling twice is a no-op.
func (s ShareStatus) CanTransitionTo(next ShareStatus) bool {
	switch {
	case s == next:
		return true
	case s == ShareUnsettled && next == ShareSettled:
		return true
	default:
		return false
	}
}

// ParseShareStatus validates a stored status value.
func ParseShareStatus(v string) (ShareStatus, error) {
	switch s := ShareStatus(v); s {
	case ShareUnsettled, ShareSettled:
		return s, nil
	default:
		return "", fmt.Errorf("unknown share status %q", v)
	}
}
