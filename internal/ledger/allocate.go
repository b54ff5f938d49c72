// Package ledger is the balance engine: it allocates expenses into shares,
// folds a group's expenses into net balances, and reduces those balances
// into settling transfers.
//
// Allocate, Aggregate and Simplify are pure functions over in-memory data and
// are safe to call concurrently. Service composes them and adds the share
// settlement rules.
package ledger

import (
	"fmt"
	"maps"
	"slices"

	"github.com/mmynk/fistein/internal/money"
)

// Allocation is one participant's part of an expense.
type Allocation struct {
	Member     string
	Amount     money.Money
	Percentage *money.Percent
}

// Allocate divides amount between the split's participants. The returned
// allocations are ordered by ascending member ID and always sum to amount.
func Allocate(amount money.Money, split Split) ([]Allocation, error) {
	if !amount.IsPositive() || !amount.InRange() {
		return nil, &ValidationError{Kind: InvalidAmount, Field: "amount", Got: amount.String(), Want: "(0.00, " + money.MaxAmount.String() + "]"}
	}
	if split == nil {
		return nil, &ValidationError{Kind: InvalidPolicy, Field: "split_type"}
	}

	members, err := orderedParticipants(split.participants())
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, &PreconditionError{Reason: fmt.Sprintf("%s split needs at least one participant", split.Policy())}
	}

	switch s := split.(type) {
	case EqualSplit:
		return allocateEqual(amount, members), nil
	case ExactSplit:
		return allocateExact(amount, members, s.Amounts)
	case PercentageSplit:
		return allocatePercentage(amount, members, s.Percentages)
	default:
		panic(fmt.Sprintf("ledger: unhandled split type %T", split))
	}
}

func allocateEqual(amount money.Money, members []string) []Allocation {
	each := divideHalfUp(amount, money.FromMinor(int64(len(members))))
	out := make([]Allocation, len(members))
	for i, m := range members {
		out[i] = Allocation{Member: m, Amount: each}
	}
	reconcile(amount, out)
	return out
}

func allocateExact(amount money.Money, members []string, amounts map[string]money.Money) ([]Allocation, error) {
	if err := rejectStrangers(members, amounts); err != nil {
		return nil, err
	}

	out := make([]Allocation, len(members))
	for i, m := range members {
		a, ok := amounts[m]
		if !ok {
			return nil, &ValidationError{Kind: MissingShareData, Member: m, Field: "amount"}
		}
		if a.IsNegative() || !a.InRange() {
			return nil, &ValidationError{Kind: InvalidAmount, Member: m, Field: "amount", Got: a.String(), Want: "[0.00, " + money.MaxAmount.String() + "]"}
		}
		out[i] = Allocation{Member: m, Amount: a}
	}

	// Entries are bounded by MaxAmount and total stays <= amount until the
	// last add, so the running sum cannot overflow.
	var total money.Money
	for _, a := range out {
		if total += a.Amount; total > amount {
			break
		}
	}
	if total != amount {
		return nil, &ValidationError{Kind: ShareSumMismatch, Field: "shares", Got: total.String(), Want: amount.String()}
	}
	return out, nil
}

func allocatePercentage(amount money.Money, members []string, pcts map[string]money.Percent) ([]Allocation, error) {
	if err := rejectStrangers(members, pcts); err != nil {
		return nil, err
	}

	out := make([]Allocation, len(members))
	var total money.Percent
	for i, m := range members {
		p, ok := pcts[m]
		if !ok {
			return nil, &ValidationError{Kind: MissingShareData, Member: m, Field: "percentage"}
		}
		if p <= 0 || p > money.Hundred {
			return nil, &ValidationError{Kind: InvalidPercentage, Member: m, Field: "percentage", Got: p.String(), Want: "(0, 100]"}
		}
		out[i] = Allocation{Member: m, Amount: p.Of(amount), Percentage: &p}
		total += p
	}

	if total != money.Hundred {
		return nil, &ValidationError{Kind: PercentageSumMismatch, Field: "percentage", Got: total.String(), Want: money.Hundred.String()}
	}

	reconcile(amount, out)
	return out, nil
}

// reconcile pushes the rounding remainder back into the allocations one
// minor unit at a time: a shortfall goes to the first members in ascending
// ID order, an excess comes off the last ones that still hold something.
// An excess only arises from shares that were rounded up to at least one
// unit, so no share goes below zero.
func reconcile(amount money.Money, out []Allocation) {
	var sum money.Money
	for _, a := range out {
		sum += a.Amount
	}

	n := len(out)
	for i := 0; sum < amount; i = (i + 1) % n {
		out[i].Amount++
		sum++
	}
	for i := n - 1; sum > amount; i = (i - 1 + n) % n {
		if out[i].Amount.IsPositive() {
			out[i].Amount--
			sum--
		}
	}
}

// divideHalfUp divides a positive amount by a positive count, rounding
// half-up to the minor unit.
func divideHalfUp(amount, count money.Money) money.Money {
	q, r := amount/count, amount%count
	if 2*r >= count {
		q++
	}
	return q
}

func orderedParticipants(in []string) ([]string, error) {
	out := slices.Clone(in)
	slices.Sort(out)
	for i, m := range out {
		if m == "" {
			return nil, &ValidationError{Kind: UnknownParticipant, Field: "participant_ids", Got: `""`}
		}
		if i > 0 && out[i-1] == m {
			return nil, &ValidationError{Kind: DuplicateParticipant, Member: m, Field: "participant_ids"}
		}
	}
	return out, nil
}

func rejectStrangers[V any](members []string, data map[string]V) error {
	for _, m := range slices.Sorted(maps.Keys(data)) {
		if _, found := slices.BinarySearch(members, m); !found {
			return &ValidationError{Kind: UnknownParticipant, Member: m, Field: "shares"}
		}
	}
	return nil
}
