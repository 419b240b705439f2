package storage

import (
	"context"
	"fmt"

	"github.com/mailsift/mailsift/internal/model"
)

// SaveEmails upserts a batch of fetched emails. Re-saving an already
// known email is a no-op, which keeps fetch idempotent under retry.
func (s *SQLiteStorage) SaveEmails(ctx context.Context, emails []model.Email) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(emails) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO emails (id, thread_id, sender, subject, body, received_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, email := range emails {
		if email.ID == "" {
			return fmt.Errorf("email with empty ID")
		}
		if _, err := stmt.ExecContext(ctx, email.ID, email.ThreadID, email.Sender, email.Subject, email.Body, email.ReceivedAt.UTC()); err != nil {
			return fmt.Errorf("failed to save email %s: %w", email.ID, err)
		}
	}

	return tx.Commit()
}

// IsProcessed reports whether the email already has a processed marker.
func (s *SQLiteStorage) IsProcessed(ctx context.Context, emailID string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM processed WHERE email_id = ?`, emailID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query processed marker: %w", err)
	}
	return count > 0, nil
}

// MarkProcessed records the processed marker for an email. Marking twice
// is harmless.
func (s *SQLiteStorage) MarkProcessed(ctx context.Context, emailID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if emailID == "" {
		return fmt.Errorf("emailID cannot be empty")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processed (email_id) VALUES (?)
		ON CONFLICT(email_id) DO NOTHING`, emailID)
	if err != nil {
		return fmt.Errorf("failed to mark email processed: %w", err)
	}
	return nil
}
