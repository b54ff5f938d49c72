package sqlite

import (
	"context"
	"fmt"

	"github.com/mmynk/fistein/internal/models"
)

// MarkSharesSettled flips shares to SETTLED in one transaction.
//
// The status guard in the WHERE clause makes the update idempotent and
// keeps the first settlement timestamp when two callers race.
func (s *SQLiteStore) MarkSharesSettled(ctx context.Context, shareIDs []string, settledAt int64) (int, error) {
	if len(shareIDs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	changed := 0
	for _, id := range shareIDs {
		res, err := tx.ExecContext(ctx,
			"UPDATE shares SET status = ?, settled_at = ? WHERE id = ? AND status = ?",
			string(models.ShareSettled), settledAt, id, string(models.ShareUnsettled),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to settle share: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read settled rows: %w", err)
		}
		changed += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return changed, nil
}
