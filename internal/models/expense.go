package models

import (
	"fmt"

	"github.com/mmynk/fistein/internal/money"
)

// SplitPolicy is the rule used to divide an expense into shares.
type SplitPolicy string

const (
	SplitEqual      SplitPolicy = "EQUAL"
	SplitExact      SplitPolicy = "EXACT"
	SplitPercentage SplitPolicy = "PERCENTAGE"
)

// ParseSplitPolicy validates a policy name.
func ParseSplitPolicy(s string) (SplitPolicy, error) {
	switch p := SplitPolicy(s); p {
	case SplitEqual, SplitExact, SplitPercentage:
		return p, nil
	default:
		return "", fmt.Errorf("unknown split policy %q", s)
	}
}

// Expense is a single charge paid by one member, divided among participants.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	GroupID     string
	Description string
	Amount      money.Money

	// PaidBy is the user ID of the payer.
	PaidBy string

	// CreatedBy is the user ID that recorded the expense.
	CreatedBy string

	Policy SplitPolicy
	Notes  string

	// ExpenseDate is when the charge happened; CreatedAt is when it was
	// recorded. Both are Unix timestamps.
	ExpenseDate int64
	CreatedAt   int64

	// Shares always sum exactly to Amount.
	Shares []Share
}

// Share is one member's obligation arising from one expense.
type Share struct {
	ID        string
	ExpenseID string
	UserID    string
	Amount    money.Money

	// Percentage is set only for PERCENTAGE splits.
	Percentage *money.Percent

	Status    ShareStatus
	SettledAt int64
}

// ShareFor returns the share owed by userID, if any.
func (e *Expense) ShareFor(userID string) (Share, bool) {
	for _, s := range e.Shares {
		if s.UserID == userID {
			return s, true
		}
	}
	return Share{}, false
}
