// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/fistein/internal/models"
)

// ErrDuplicateEmail is returned by CreateUser when the email is taken.
var ErrDuplicateEmail = errors.New("email already registered")

// Store defines the interface for group, expense and share persistence.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// Lookups of absent rows return a *ledger.NotFoundError.
type Store interface {
	UserStore
	GroupStore
	ExpenseStore

	// Close releases any resources held by the store.
	Close() error
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail and GetUserByID return nil and no error when the user
	// does not exist.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs returns the users that exist among ids, keyed by ID.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// GroupStore persists groups and their membership.
type GroupStore interface {
	// CreateGroup persists a new group with its members.
	// The group.ID and CreatedAt fields are populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser returns the groups where userID is an active member.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// UpdateGroup overwrites name, description and the active flag.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// AddGroupMember adds userID or reactivates a removed membership.
	AddGroupMember(ctx context.Context, groupID, userID string, isAdmin bool) error

	// DeactivateGroupMember marks a membership inactive; history is kept.
	DeactivateGroupMember(ctx context.Context, groupID, userID string) error

	// DeleteGroup removes the group, its expenses and their shares.
	DeleteGroup(ctx context.Context, groupID string) error
}

// ExpenseStore persists expenses and their shares.
type ExpenseStore interface {
	// CreateExpense persists an expense and its shares atomically.
	// The expense.ID and CreatedAt fields are populated by the store when empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense returns the expense with its shares.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByGroup returns one page of a group's expenses, newest first,
	// each with its shares, plus the total number of expenses in the group.
	ListExpensesByGroup(ctx context.Context, groupID string, limit, offset int) ([]models.Expense, int, error)

	// AllExpensesByGroup returns every expense of the group with its shares.
	AllExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error)

	// UpdateExpense overwrites the expense and replaces all of its shares.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense removes the expense and its shares.
	DeleteExpense(ctx context.Context, expenseID string) error

	// MarkSharesSettled flips the given shares to SETTLED. Shares that are
	// already settled are left untouched. Returns how many rows changed.
	MarkSharesSettled(ctx context.Context, shareIDs []string, settledAt int64) (int, error)
}
