package ledger

import (
	"cmp"
	"slices"
	"strings"

	"github.com/mmynk/fistein/internal/money"
)

// Transfer is a proposed settling payment.
type Transfer struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount money.Money
}

type position struct {
	member    string
	remaining money.Money
}

// Simplify turns net balances into point-to-point transfers.
//
// Greedy: the largest remaining debtor pays the largest remaining creditor
// min(debt, credit), and whichever side reaches zero is dropped. This is
// not guaranteed to produce the fewest transfers; finding that is NP-hard.
// Ties on magnitude are broken by ascending member ID so the output is
// deterministic.
//
// If the balances do not sum to zero, whatever cannot be matched is left
// without a transfer.
func Simplify(balances map[string]money.Money) []Transfer {
	var creditors, debtors []position
	for member, net := range balances {
		switch {
		case net.IsPositive():
			creditors = append(creditors, position{member: member, remaining: net})
		case net.IsNegative():
			debtors = append(debtors, position{member: member, remaining: net.Abs()})
		}
	}

	var transfers []Transfer
	for len(debtors) > 0 && len(creditors) > 0 {
		slices.SortFunc(creditors, byLargest)
		slices.SortFunc(debtors, byLargest)
		d, c := &debtors[0], &creditors[0]

		amount := money.Min(d.remaining, c.remaining)
		transfers = append(transfers, Transfer{From: d.member, To: c.member, Amount: amount})

		d.remaining -= amount
		c.remaining -= amount
		if d.remaining.IsZero() {
			debtors = debtors[1:]
		}
		if c.remaining.IsZero() {
			creditors = creditors[1:]
		}
	}
	return transfers
}

func byLargest(a, b position) int {
	if c := cmp.Compare(b.remaining, a.remaining); c != 0 {
		return c
	}
	return strings.Compare(a.member, b.member)
}
