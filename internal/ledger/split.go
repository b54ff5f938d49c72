package ledger

import (
	"slices"

	"github.com/mmynk/fistein/internal/models"
	"github.com/mmynk/fistein/internal/money"
)

// Split is the policy-specific input to Allocate. It is a closed set:
// EqualSplit, ExactSplit and PercentageSplit are the only implementations.
type Split interface {
	Policy() models.SplitPolicy
	participants() []string
}

// EqualSplit divides the amount evenly between Participants.
type EqualSplit struct {
	Participants []string
}

// ExactSplit assigns each participant a caller-chosen amount.
type ExactSplit struct {
	Participants []string
	Amounts      map[string]money.Money
}

// PercentageSplit assigns each participant a percentage of the amount.
type PercentageSplit struct {
	Participants []string
	Percentages  map[string]money.Percent
}

func (EqualSplit) Policy() models.SplitPolicy      { return models.SplitEqual }
func (ExactSplit) Policy() models.SplitPolicy      { return models.SplitExact }
func (PercentageSplit) Policy() models.SplitPolicy { return models.SplitPercentage }

func (s EqualSplit) participants() []string      { return s.Participants }
func (s ExactSplit) participants() []string      { return s.Participants }
func (s PercentageSplit) participants() []string { return s.Participants }

// Participants returns the members a split names, in the caller's order.
func Participants(s Split) []string {
	return slices.Clone(s.participants())
}

// SplitFromShares rebuilds the Split that produced an expense's shares.
// Used when an expense is edited without new share data.
func SplitFromShares(policy models.SplitPolicy, shares []models.Share) (Split, error) {
	participants := make([]string, len(shares))
	for i, s := range shares {
		participants[i] = s.UserID
	}

	switch policy {
	case models.SplitEqual:
		return EqualSplit{Participants: participants}, nil
	case models.SplitExact:
		amounts := make(map[string]money.Money, len(shares))
		for _, s := range shares {
			amounts[s.UserID] = s.Amount
		}
		return ExactSplit{Participants: participants, Amounts: amounts}, nil
	case models.SplitPercentage:
		pcts := make(map[string]money.Percent, len(shares))
		for _, s := range shares {
			if s.Percentage == nil {
				return nil, &ValidationError{Kind: MissingShareData, Member: s.UserID, Field: "percentage"}
			}
			pcts[s.UserID] = *s.Percentage
		}
		return PercentageSplit{Participants: participants, Percentages: pcts}, nil
	default:
		return nil, &ValidationError{Kind: InvalidPolicy, Field: "split_type", Got: string(policy)}
	}
}
