package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/fistein/internal/ledger"
	"github.com/mmynk/fistein/internal/models"
	"github.com/mmynk/fistein/internal/money"
)

const expenseColumns = "id, group_id, description, amount, paid_by, created_by, split_type, notes, expense_date, created_at"

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateExpense persists a new expense and its shares in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.ExpenseDate == 0 {
		expense.ExpenseDate = expense.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		expense.ID, expense.GroupID, expense.Description, expense.Amount.Minor(), expense.PaidBy,
		expense.CreatedBy, string(expense.Policy), expense.Notes, expense.ExpenseDate, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertShares(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertShares(ctx context.Context, tx execer, expense *models.Expense) error {
	for i := range expense.Shares {
		share := &expense.Shares[i]
		if share.ID == "" {
			share.ID = uuid.New().String()
		}
		share.ExpenseID = expense.ID
		if share.Status == "" {
			share.Status = models.ShareUnsettled
		}

		var pct, settledAt any
		if share.Percentage != nil {
			pct = int64(*share.Percentage)
		}
		if share.SettledAt != 0 {
			settledAt = share.SettledAt
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO shares (id, expense_id, user_id, amount, percentage, status, settled_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			share.ID, share.ExpenseID, share.UserID, share.Amount.Minor(), pct, string(share.Status), settledAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert share: %w", err)
		}
	}
	return nil
}

// GetExpense retrieves an expense by ID, including its shares.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", expenseID)
	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Resource: "expense", ID: expenseID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	shares, err := s.sharesWhere(ctx, "expense_id = ?", expenseID)
	if err != nil {
		return nil, err
	}
	expense.Shares = shares[expense.ID]
	return &expense, nil
}

// ListExpensesByGroup retrieves one page of a group's expenses, newest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string, limit, offset int) ([]models.Expense, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM expenses WHERE group_id = ?", groupID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	expenses, err := s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE group_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?",
		groupID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	if len(expenses) == 0 {
		return expenses, total, nil
	}

	ids := make([]any, len(expenses))
	for i, e := range expenses {
		ids[i] = e.ID
	}
	shares, err := s.sharesWhere(ctx, "expense_id IN ("+placeholders(len(ids))+")", ids...)
	if err != nil {
		return nil, 0, err
	}
	for i := range expenses {
		expenses[i].Shares = shares[expenses[i].ID]
	}
	return expenses, total, nil
}

// AllExpensesByGroup retrieves every expense of a group with its shares,
// oldest first.
func (s *SQLiteStore) AllExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error) {
	expenses, err := s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE group_id = ? ORDER BY created_at, rowid",
		groupID,
	)
	if err != nil {
		return nil, err
	}

	shares, err := s.sharesWhere(ctx, "expense_id IN (SELECT id FROM expenses WHERE group_id = ?)", groupID)
	if err != nil {
		return nil, err
	}
	for i := range expenses {
		expenses[i].Shares = shares[expenses[i].ID]
	}
	return expenses, nil
}

// UpdateExpense overwrites an expense and replaces its shares.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET description = ?, amount = ?, paid_by = ?, split_type = ?, notes = ?, expense_date = ?
		 WHERE id = ?`,
		expense.Description, expense.Amount.Minor(), expense.PaidBy, string(expense.Policy),
		expense.Notes, expense.ExpenseDate, expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &ledger.NotFoundError{Resource: "expense", ID: expense.ID}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM shares WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to delete shares: %w", err)
	}
	if err := insertShares(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense; its shares cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &ledger.NotFoundError{Resource: "expense", ID: expenseID}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (models.Expense, error) {
	var (
		e      models.Expense
		amount int64
		policy string
	)
	err := row.Scan(&e.ID, &e.GroupID, &e.Description, &amount, &e.PaidBy, &e.CreatedBy,
		&policy, &e.Notes, &e.ExpenseDate, &e.CreatedAt)
	if err != nil {
		return e, err
	}
	e.Amount = money.FromMinor(amount)
	if e.Policy, err = models.ParseSplitPolicy(policy); err != nil {
		return e, err
	}
	return e, nil
}

func (s *SQLiteStore) queryExpenses(ctx context.Context, query string, args ...any) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// sharesWhere loads shares matching the condition, grouped by expense ID and
// ordered by member.
func (s *SQLiteStore) sharesWhere(ctx context.Context, cond string, args ...any) (map[string][]models.Share, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, expense_id, user_id, amount, percentage, status, settled_at
		 FROM shares WHERE `+cond+` ORDER BY expense_id, user_id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get shares: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.Share)
	for rows.Next() {
		var (
			sh        models.Share
			amount    int64
			pct       sql.NullInt64
			status    string
			settledAt sql.NullInt64
		)
		if err := rows.Scan(&sh.ID, &sh.ExpenseID, &sh.UserID, &amount, &pct, &status, &settledAt); err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		sh.Amount = money.FromMinor(amount)
		if pct.Valid {
			p := money.Percent(pct.Int64)
			sh.Percentage = &p
		}
		if sh.Status, err = models.ParseShareStatus(status); err != nil {
			return nil, err
		}
		sh.SettledAt = settledAt.Int64
		out[sh.ExpenseID] = append(out[sh.ExpenseID], sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shares: %w", err)
	}
	return out, nil
}
