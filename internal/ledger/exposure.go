package ledger

import (
	"cmp"
	"slices"

	"github.com/mmynk/fistein/internal/models"
	"github.com/mmynk/fistein/internal/money"
)

// Exposure is what is still outstanding between one member and a single
// counterparty, over unsettled shares only.
type Exposure struct {
	Counterparty string
	Amount       money.Money
	// Expenses counts the expenses that contributed to Amount.
	Expenses int
}

// Exposures breaks a member's position down by counterparty. Debts are what
// member owes each payer; credits are what each participant owes member.
// A member's own share of an expense they paid is neither. Both lists are
// sorted by counterparty ID.
func Exposures(member string, expenses []models.Expense) (debts, credits []Exposure) {
	owe := make(map[string]*Exposure)
	owed := make(map[string]*Exposure)

	add := func(into map[string]*Exposure, who string, amount money.Money) {
		e, ok := into[who]
		if !ok {
			e = &Exposure{Counterparty: who}
			into[who] = e
		}
		e.Amount += amount
		e.Expenses++
	}

	for _, e := range expenses {
		for _, s := range e.Shares {
			if s.Status.IsSettled() || s.UserID == e.PaidBy {
				continue
			}
			switch member {
			case s.UserID:
				add(owe, e.PaidBy, s.Amount)
			case e.PaidBy:
				add(owed, s.UserID, s.Amount)
			}
		}
	}
	return sortedExposures(owe), sortedExposures(owed)
}

func sortedExposures(m map[string]*Exposure) []Exposure {
	out := make([]Exposure, 0, len(m))
	for _, e := range m {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b Exposure) int {
		return cmp.Compare(a.Counterparty, b.Counterparty)
	})
	return out
}
