package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mmynk/fistein/internal/ledger"
	"github.com/mmynk/fistein/internal/models"
	"github.com/mmynk/fistein/internal/money"
	"github.com/mmynk/fistein/internal/storage"
	"github.com/mmynk/fistein/internal/storage/sqlite"
)

// gatedStore holds the first AllExpensesByGroup call after it has read,
// until gate is closed.
type gatedStore struct {
	storage.Store
	once    sync.Once
	entered chan struct{}
	gate    chan struct{}
}

func (g *gatedStore) AllExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error) {
	expenses, err := g.Store.AllExpensesByGroup(ctx, groupID)
	g.once.Do(func() {
		close(g.entered)
		<-g.gate
	})
	return expenses, err
}

func TestBalancesAfterMutationDoNotJoinEarlierRead(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	alice := models.NewUser("alice@example.com", "alice", "hash")
	bob := models.NewUser("bob@example.com", "bob", "hash")
	for _, u := range []*models.User{alice, bob} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}
	group := &models.Group{
		Name:      "Flat",
		CreatedBy: alice.ID,
		Members:   []models.GroupMember{{UserID: alice.ID, IsAdmin: true}, {UserID: bob.ID}},
	}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	expense := &models.Expense{
		GroupID:     group.ID,
		Description: "Groceries",
		Amount:      money.MustParse("10.00"),
		PaidBy:      alice.ID,
		CreatedBy:   alice.ID,
		Policy:      models.SplitEqual,
		Shares: []models.Share{
			{UserID: alice.ID, Amount: money.MustParse("5.00")},
			{UserID: bob.ID, Amount: money.MustParse("5.00")},
		},
	}
	if err := store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	gated := &gatedStore{Store: store, entered: make(chan struct{}), gate: make(chan struct{})}
	t.Cleanup(func() {
		select {
		case <-gated.gate:
		default:
			close(gated.gate)
		}
	})
	l := NewLedger(gated, ledger.NewService(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	type result struct {
		b   *groupBalances
		err error
	}
	early := make(chan result, 1)
	go func() {
		b, err := l.balances(ctx, group.ID)
		early <- result{b, err}
	}()
	<-gated.entered

	unlock := l.lockGroup(group.ID)
	if _, err := store.MarkSharesSettled(ctx, []string{expense.Shares[1].ID}, time.Now().Unix()); err != nil {
		unlock()
		t.Fatalf("MarkSharesSettled failed: %v", err)
	}
	unlock()

	late := make(chan result, 1)
	go func() {
		b, err := l.balances(ctx, group.ID)
		late <- result{b, err}
	}()

	select {
	case r := <-late:
		if r.err != nil {
			t.Fatalf("balances failed: %v", r.err)
		}
		if net := ledger.NetBalances(r.b.balances.Members)[bob.ID]; !net.IsZero() {
			t.Errorf("read after settlement should see bob settled, got net %s", net)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("read after settlement waited on a computation that started before it")
	}

	close(gated.gate)
	r := <-early
	if r.err != nil {
		t.Fatalf("balances failed: %v", r.err)
	}
	if net := ledger.NetBalances(r.b.balances.Members)[bob.ID]; net != money.MustParse("-5.00") {
		t.Errorf("earlier read should reflect its own snapshot, got net %s", net)
	}
}
