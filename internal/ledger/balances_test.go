package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/fistein/internal/models"
	"github.com/mmynk/fistein/internal/money"
)

// equalExpense builds an expense split equally, with every share unsettled.
func equalExpense(t *testing.T, id, payer, amount string, participants ...string) models.Expense {
	t.Helper()
	e := models.Expense{ID: id, PaidBy: payer, Amount: money.MustParse(amount), Policy: models.SplitEqual}
	allocs, err := Allocate(e.Amount, EqualSplit{Participants: participants})
	require.NoError(t, err)
	for _, a := range allocs {
		e.Shares = append(e.Shares, models.Share{
			ID:        id + "-" + a.Member,
			ExpenseID: id,
			UserID:    a.Member,
			Amount:    a.Amount,
			Status:    models.ShareUnsettled,
		})
	}
	return e
}

func nets(balances []MemberBalance) map[string]string {
	out := make(map[string]string, len(balances))
	for _, b := range balances {
		out[b.Member] = b.Net.String()
	}
	return out
}

func total(balances []MemberBalance) money.Money {
	var sum money.Money
	for _, b := range balances {
		sum += b.Net
	}
	return sum
}

func TestAggregate(t *testing.T) {
	t.Run("one expense paid by A split three ways", func(t *testing.T) {
		expenses := []models.Expense{equalExpense(t, "e1", "A", "90.00", "A", "B", "C")}

		balances := Aggregate([]string{"A", "B", "C"}, expenses)

		assert.Equal(t, map[string]string{"A": "60.00", "B": "-30.00", "C": "-30.00"}, nets(balances))
		assert.Equal(t, "90.00", balances[0].TotalPaid.String())
		assert.Equal(t, "30.00", balances[0].TotalOwed.String())
		assert.True(t, total(balances).IsZero())
	})

	t.Run("members without activity appear with zero", func(t *testing.T) {
		balances := Aggregate([]string{"A", "B", "Z"}, []models.Expense{equalExpense(t, "e1", "A", "10.00", "A", "B")})

		assert.Equal(t, map[string]string{"A": "5.00", "B": "-5.00", "Z": "0.00"}, nets(balances))
	})

	t.Run("no expenses", func(t *testing.T) {
		balances := Aggregate([]string{"B", "A"}, nil)

		require.Len(t, balances, 2)
		assert.Equal(t, "A", balances[0].Member)
		assert.True(t, balances[0].Net.IsZero())
	})

	t.Run("people outside the member list are still counted", func(t *testing.T) {
		balances := Aggregate([]string{"A"}, []models.Expense{equalExpense(t, "e1", "A", "10.00", "A", "gone")})

		assert.Equal(t, map[string]string{"A": "5.00", "gone": "-5.00"}, nets(balances))
	})

	t.Run("settled shares leave both sides", func(t *testing.T) {
		e := equalExpense(t, "e1", "A", "90.00", "A", "B", "C")
		for i := range e.Shares {
			if e.Shares[i].UserID == "B" {
				e.Shares[i].Status = models.ShareSettled
			}
		}

		balances := Aggregate([]string{"A", "B", "C"}, []models.Expense{e})

		assert.Equal(t, map[string]string{"A": "30.00", "B": "0.00", "C": "-30.00"}, nets(balances))
		assert.Equal(t, "90.00", balances[0].TotalPaid.String())
		assert.Equal(t, "30.00", balances[0].TotalReceived.String())
		assert.True(t, total(balances).IsZero())
	})

	t.Run("fully settled expense nets to zero", func(t *testing.T) {
		e := equalExpense(t, "e1", "A", "100.00", "A", "B", "C")
		for i := range e.Shares {
			e.Shares[i].Status = models.ShareSettled
		}

		balances := Aggregate([]string{"A", "B", "C"}, []models.Expense{e})

		assert.Equal(t, map[string]string{"A": "0.00", "B": "0.00", "C": "0.00"}, nets(balances))
	})

	t.Run("several expenses always sum to zero", func(t *testing.T) {
		expenses := []models.Expense{
			equalExpense(t, "e1", "A", "100.00", "A", "B", "C"),
			equalExpense(t, "e2", "B", "33.33", "B", "C"),
			equalExpense(t, "e3", "C", "7.01", "A", "B", "C"),
		}
		expenses[1].Shares[0].Status = models.ShareSettled

		balances := Aggregate([]string{"A", "B", "C"}, expenses)
		assert.True(t, total(balances).IsZero(), "sum = %s", total(balances))
	})

	t.Run("recomputing yields the same result", func(t *testing.T) {
		expenses := []models.Expense{
			equalExpense(t, "e1", "A", "100.00", "A", "B", "C"),
			equalExpense(t, "e2", "C", "12.00", "A", "C"),
		}
		first := Aggregate([]string{"A", "B", "C"}, expenses)
		assert.Equal(t, first, Aggregate([]string{"A", "B", "C"}, expenses))
	})
}
