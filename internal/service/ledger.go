// Package service implements the fistein.v1 RPC services on top of the
// ledger engine and the store.
package service

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mmynk/fistein/internal/auth"
	"github.com/mmynk/fistein/internal/ledger"
	"github.com/mmynk/fistein/internal/metrics"
	"github.com/mmynk/fistein/internal/middleware"
	"github.com/mmynk/fistein/internal/models"
	"github.com/mmynk/fistein/internal/storage"
)

// Ledger is the state shared by GroupService and ExpenseService: the store,
// the engine, and the per-group coordination around them.
//
// Every mutation of a group's expenses or shares runs under that group's
// lock, so the snapshot a decision is made on is still current when the
// result is written.
type Ledger struct {
	store   storage.Store
	engine  *ledger.Service
	metrics *metrics.Metrics
	logger  *slog.Logger

	locks keyedMutex
	reads singleflight.Group

	// generations counts released group locks; it keys coalesced reads so a
	// read that starts after a mutation never joins one that started before.
	genMu       sync.Mutex
	generations map[string]uint64
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithMetrics records ledger activity on m.
func WithMetrics(m *metrics.Metrics) LedgerOption {
	return func(l *Ledger) { l.metrics = m }
}

// WithLogger overrides slog.Default.
func WithLogger(logger *slog.Logger) LedgerOption {
	return func(l *Ledger) { l.logger = logger }
}

// NewLedger creates a Ledger over store.
func NewLedger(store storage.Store, engine *ledger.Service, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store:  store,
		engine: engine,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// caller returns the authenticated user or an Unauthenticated error.
func caller(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", toConnectError(auth.ErrMissingToken)
	}
	return userID, nil
}

// memberGroup loads a group and checks that userID is an active member.
func (l *Ledger) memberGroup(ctx context.Context, groupID, userID string) (*models.Group, error) {
	if groupID == "" {
		return nil, invalidArgument("group_id required")
	}
	group, err := l.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsActiveMember(userID) {
		return nil, &ledger.AuthorizationError{Actor: userID, Action: "access", Resource: "group", ID: groupID}
	}
	return group, nil
}

// adminGroup loads a group and checks that userID is one of its admins.
func (l *Ledger) adminGroup(ctx context.Context, groupID, userID, action string) (*models.Group, error) {
	group, err := l.memberGroup(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !group.IsAdmin(userID) {
		return nil, &ledger.AuthorizationError{Actor: userID, Action: action, Resource: "group", ID: groupID}
	}
	return group, nil
}

// snapshot loads the group and all of its expenses concurrently.
func (l *Ledger) snapshot(ctx context.Context, groupID string) (*models.Group, ledger.Snapshot, error) {
	var (
		group    *models.Group
		expenses []models.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		group, err = l.store.GetGroup(gctx, groupID)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = l.store.AllExpensesByGroup(gctx, groupID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, ledger.Snapshot{}, err
	}

	return group, ledger.Snapshot{
		GroupID:  groupID,
		Members:  group.MemberIDs(),
		Expenses: expenses,
	}, nil
}

type groupBalances struct {
	group    *models.Group
	snapshot ledger.Snapshot
	balances ledger.Balances
}

// balances computes a group's balances. Concurrent calls for the same group
// share one computation, as long as no mutation of the group completed in
// between. The result is shared and must not be modified.
func (l *Ledger) balances(ctx context.Context, groupID string) (*groupBalances, error) {
	key := groupID + "@" + strconv.FormatUint(l.generation(groupID), 10)
	v, err, _ := l.reads.Do(key, func() (any, error) {
		group, snap, err := l.snapshot(context.WithoutCancel(ctx), groupID)
		if err != nil {
			return nil, err
		}
		return &groupBalances{
			group:    group,
			snapshot: snap,
			balances: l.engine.GetBalances(snap),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*groupBalances), nil
}

// lockGroup serializes mutations of one group. Call the returned func to
// release; releasing also starts a new read generation for the group.
func (l *Ledger) lockGroup(groupID string) func() {
	unlock := l.locks.lock(groupID)
	return func() {
		l.genMu.Lock()
		if l.generations == nil {
			l.generations = make(map[string]uint64)
		}
		l.generations[groupID]++
		l.genMu.Unlock()
		unlock()
	}
}

func (l *Ledger) generation(groupID string) uint64 {
	l.genMu.Lock()
	defer l.genMu.Unlock()
	return l.generations[groupID]
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		if m.refs--; m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
