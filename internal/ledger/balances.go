package ledger

import (
	"slices"
	"strings"

	"github.com/mmynk/fistein/internal/models"
	"github.com/mmynk/fistein/internal/money"
)

// MemberBalance represents the balance information for one group member.
type MemberBalance struct {
	Member string

	// TotalPaid is the sum of every expense this member paid for.
	TotalPaid money.Money

	// TotalOwed is the sum of this member's unsettled shares.
	TotalOwed money.Money

	// TotalReceived is the sum of settled shares on expenses this member
	// paid for, i.e. money already paid back to them.
	TotalReceived money.Money

	// Net is positive when the member is owed money, negative when they owe.
	Net money.Money
}

// Aggregate folds a group's expenses into one balance per member.
//
// Every member in members appears in the result, even with no activity.
// Payers and share holders missing from members (e.g. removed members with
// history) are included as well. For each expense the payer is credited the
// full amount; each unsettled share is debited to its member; each settled
// share is taken off the payer's credit, since it was already paid back.
// The nets therefore always sum to zero.
//
// The result is sorted by member ID.
func Aggregate(members []string, expenses []models.Expense) []MemberBalance {
	balances := make(map[string]*MemberBalance, len(members))
	get := func(id string) *MemberBalance {
		b, ok := balances[id]
		if !ok {
			b = &MemberBalance{Member: id}
			balances[id] = b
		}
		return b
	}

	for _, m := range members {
		get(m)
	}

	for _, e := range expenses {
		payer := get(e.PaidBy)
		payer.TotalPaid += e.Amount

		for _, s := range e.Shares {
			if s.Status.IsSettled() {
				payer.TotalReceived += s.Amount
				continue
			}
			get(s.UserID).TotalOwed += s.Amount
		}
	}

	out := make([]MemberBalance, 0, len(balances))
	for _, b := range balances {
		b.Net = b.TotalPaid - b.TotalOwed - b.TotalReceived
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b MemberBalance) int {
		return strings.Compare(a.Member, b.Member)
	})
	return out
}

// NetBalances indexes the net balance of each member.
func NetBalances(balances []MemberBalance) map[string]money.Money {
	out := make(map[string]money.Money, len(balances))
	for _, b := range balances {
		out[b.Member] = b.Net
	}
	return out
}
