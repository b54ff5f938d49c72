package ledger

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/fistein/internal/money"
)

func balancesOf(pairs map[string]string) map[string]money.Money {
	out := make(map[string]money.Money, len(pairs))
	for m, v := range pairs {
		out[m] = money.MustParse(v)
	}
	return out
}

func TestSimplify(t *testing.T) {
	tests := []struct {
		name     string
		balances map[string]string
		want     []Transfer
	}{
		{
			name:     "one creditor two debtors",
			balances: map[string]string{"A": "60.00", "B": "-30.00", "C": "-30.00"},
			want: []Transfer{
				{From: "B", To: "A", Amount: money.MustParse("30.00")},
				{From: "C", To: "A", Amount: money.MustParse("30.00")},
			},
		},
		{
			name:     "largest debtor pays largest creditor first",
			balances: map[string]string{"A": "70.00", "B": "30.00", "C": "-20.00", "D": "-80.00"},
			want: []Transfer{
				{From: "D", To: "A", Amount: money.MustParse("70.00")},
				{From: "C", To: "B", Amount: money.MustParse("20.00")},
				{From: "D", To: "B", Amount: money.MustParse("10.00")},
			},
		},
		{
			name:     "largest remaining is re-evaluated after each transfer",
			balances: map[string]string{"A": "60.00", "B": "30.00", "C": "-50.00", "D": "-40.00"},
			want: []Transfer{
				{From: "C", To: "A", Amount: money.MustParse("50.00")},
				{From: "D", To: "B", Amount: money.MustParse("30.00")},
				{From: "D", To: "A", Amount: money.MustParse("10.00")},
			},
		},
		{
			name:     "all settled",
			balances: map[string]string{"A": "0.00", "B": "0.00"},
			want:     nil,
		},
		{
			name:     "empty",
			balances: map[string]string{},
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Simplify(balancesOf(tt.balances)))
		})
	}
}

func TestSimplifyTiesBreakByMemberID(t *testing.T) {
	got := Simplify(balancesOf(map[string]string{"z": "10.00", "y": "10.00", "b": "-10.00", "a": "-10.00"}))
	assert.Equal(t, []Transfer{
		{From: "a", To: "y", Amount: money.MustParse("10.00")},
		{From: "b", To: "z", Amount: money.MustParse("10.00")},
	}, got)
}

func TestSimplifyConservesBalances(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for round := range 200 {
		n := 2 + rng.IntN(12)
		balances := make(map[string]money.Money, n)
		var sum money.Money
		for i := range n - 1 {
			v := money.FromMinor(rng.Int64N(200001) - 100000)
			balances[fmt.Sprintf("m%02d", i)] = v
			sum += v
		}
		balances[fmt.Sprintf("m%02d", n-1)] = -sum

		transfers := Simplify(balances)

		moved := make(map[string]money.Money, n)
		var grand, debt money.Money
		for _, tr := range transfers {
			require.True(t, tr.Amount.IsPositive(), "round %d: non-positive transfer %+v", round, tr)
			moved[tr.From] -= tr.Amount
			moved[tr.To] += tr.Amount
			grand += tr.Amount
		}
		for m, v := range balances {
			require.Equal(t, v, moved[m], "round %d: member %s", round, m)
			if v.IsNegative() {
				debt += v.Abs()
			}
		}
		require.Equal(t, debt, grand, "round %d", round)
		require.LessOrEqual(t, len(transfers), n-1, "round %d", round)
	}
}
