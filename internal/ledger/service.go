package ledger

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/fistein/internal/models"
)

// Snapshot is an immutable view of one group: its member IDs and its
// expenses with their shares. Callers build it from storage; the engine
// never mutates it.
type Snapshot struct {
	GroupID  string
	Members  []string
	Expenses []models.Expense
}

// Balances is the result of GetBalances.
type Balances struct {
	Members   []MemberBalance
	Transfers []Transfer
}

// Service composes the allocator, aggregator and simplifier, and owns the
// rules for settling shares. It holds no state besides its ID source and
// clock, so one instance can serve every group concurrently.
type Service struct {
	newID func() string
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithIDGenerator overrides how share IDs are generated (uuid by default).
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithClock overrides the time source used for settlement timestamps.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) { s.now = fn }
}

// NewService creates a ledger Service.
func NewService(opts ...Option) *Service {
	s := &Service{
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateExpenseShares allocates the expense amount under split and returns
// new unsettled shares for the caller to persist.
func (s *Service) CreateExpenseShares(expense *models.Expense, split Split) ([]models.Share, error) {
	allocs, err := Allocate(expense.Amount, split)
	if err != nil {
		return nil, err
	}

	shares := make([]models.Share, len(allocs))
	for i, a := range allocs {
		shares[i] = models.Share{
			ID:         s.newID(),
			ExpenseID:  expense.ID,
			UserID:     a.Member,
			Amount:     a.Amount,
			Percentage: a.Percentage,
			Status:     models.ShareUnsettled,
		}
	}
	return shares, nil
}

// Settlement lists the shares a Settle call decided to flip.
type Settlement struct {
	ShareIDs  []string
	SettledAt int64
}

// Settle checks that actor may settle every share in shareIDs and returns
// the ones that are still unsettled.
//
// Only the share's own member or the expense's payer may settle a share.
// Shares that are already settled are skipped, so settling twice is a
// no-op. The decision is all-or-nothing: any unknown share or forbidden
// share fails the whole call.
func (s *Service) Settle(snap Snapshot, shareIDs []string, actor string) (Settlement, error) {
	type located struct {
		share   models.Share
		expense *models.Expense
	}
	index := make(map[string]located)
	for i := range snap.Expenses {
		e := &snap.Expenses[i]
		for _, sh := range e.Shares {
			index[sh.ID] = located{share: sh, expense: e}
		}
	}

	var pending []string
	for _, id := range dedupe(shareIDs) {
		loc, ok := index[id]
		if !ok {
			return Settlement{}, notFound("share", id)
		}
		if actor != loc.share.UserID && actor != loc.expense.PaidBy {
			return Settlement{}, &AuthorizationError{Actor: actor, Action: "settle", Resource: "share", ID: id}
		}
		if !loc.share.Status.CanTransitionTo(models.ShareSettled) {
			return Settlement{}, &PreconditionError{Reason: "share " + id + " cannot be settled from " + string(loc.share.Status)}
		}
		if loc.share.Status.IsSettled() {
			continue
		}
		pending = append(pending, id)
	}

	return Settlement{ShareIDs: pending, SettledAt: s.now().Unix()}, nil
}

// GetBalances aggregates the snapshot into member balances and reduces
// them into transfers.
func (s *Service) GetBalances(snap Snapshot) Balances {
	members := Aggregate(snap.Members, snap.Expenses)
	return Balances{
		Members:   members,
		Transfers: Simplify(NetBalances(members)),
	}
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
