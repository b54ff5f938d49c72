package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmynk/fistein/internal/models"
	"github.com/mmynk/fistein/internal/money"
)

func TestExposures(t *testing.T) {
	expenses := []models.Expense{
		equalExpense(t, "e1", "A", "90.00", "A", "B", "C"),
		equalExpense(t, "e2", "B", "20.00", "A", "B"),
		equalExpense(t, "e3", "A", "10.00", "B", "C"),
	}
	// B already paid back their part of e3.
	expenses[2].Shares[0].Status = models.ShareSettled

	debts, credits := Exposures("A", expenses)
	assert.Equal(t, []Exposure{
		{Counterparty: "B", Amount: money.MustParse("10.00"), Expenses: 1},
	}, debts)
	assert.Equal(t, []Exposure{
		{Counterparty: "B", Amount: money.MustParse("30.00"), Expenses: 1},
		{Counterparty: "C", Amount: money.MustParse("35.00"), Expenses: 2},
	}, credits)

	debts, credits = Exposures("C", expenses)
	assert.Equal(t, []Exposure{
		{Counterparty: "A", Amount: money.MustParse("35.00"), Expenses: 2},
	}, debts)
	assert.Empty(t, credits)
}

func TestExposuresMatchNetForTwoMembers(t *testing.T) {
	expenses := []models.Expense{
		equalExpense(t, "e1", "A", "10.01", "A", "B"),
		equalExpense(t, "e2", "B", "3.00", "A", "B"),
	}
	balances := Aggregate([]string{"A", "B"}, expenses)
	debts, credits := Exposures("A", expenses)

	var net money.Money
	for _, c := range credits {
		net += c.Amount
	}
	for _, d := range debts {
		net -= d.Amount
	}
	assert.Equal(t, balances[0].Net, net)
}
