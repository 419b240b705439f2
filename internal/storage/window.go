package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetDigestWindowStart returns the start of the next digest window: the
// point the last successful digest covered up to. A zero time means no
// digest has ever been delivered.
func (s *SQLiteStorage) GetDigestWindowStart(ctx context.Context) (time.Time, error) {
	if err := validateContext(ctx); err != nil {
		return time.Time{}, err
	}

	var start time.Time
	err := s.db.QueryRowContext(ctx, `SELECT window_start FROM digest_window WHERE id = 1`).Scan(&start)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read digest window: %w", err)
	}
	return start, nil
}

// AdvanceDigestWindow moves the window marker forward. Callers invoke
// this only after digest delivery fully succeeds, so a failed delivery
// never causes emails to be skipped from the next digest.
func (s *SQLiteStorage) AdvanceDigestWindow(ctx context.Context, to time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO digest_window (id, window_start, updated_at) VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET window_start = excluded.window_start, updated_at = CURRENT_TIMESTAMP`, to.UTC())
	if err != nil {
		return fmt.Errorf("failed to advance digest window: %w", err)
	}
	return nil
}
