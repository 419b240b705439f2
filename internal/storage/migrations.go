package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. Failure to reach it is fatal.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS emails (
					id TEXT PRIMARY KEY,
					thread_id TEXT,
					sender TEXT NOT NULL,
					subject TEXT,
					body TEXT,
					received_at DATETIME NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_emails_received ON emails(received_at)`,

				`CREATE TABLE IF NOT EXISTS processed (
					email_id TEXT PRIMARY KEY,
					processed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (email_id) REFERENCES emails(id)
				)`,

				`CREATE TABLE IF NOT EXISTS outcomes (
					run_id TEXT NOT NULL,
					email_id TEXT NOT NULL,
					status TEXT NOT NULL,
					category TEXT,
					matched_rule TEXT,
					confidence REAL,
					error TEXT,
					recorded_at DATETIME NOT NULL,
					PRIMARY KEY (run_id, email_id),
					FOREIGN KEY (email_id) REFERENCES emails(id)
				)`,
				`CREATE INDEX idx_outcomes_recorded ON outcomes(recorded_at)`,

				`CREATE TABLE IF NOT EXISTS drafts (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					run_id TEXT NOT NULL,
					email_id TEXT NOT NULL,
					text TEXT NOT NULL,
					tone TEXT,
					language TEXT,
					generated_at DATETIME NOT NULL,
					FOREIGN KEY (email_id) REFERENCES emails(id)
				)`,
				`CREATE INDEX idx_drafts_email ON drafts(email_id)`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(q); err != nil {
					return fmt.Errorf("migration query failed: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Run summaries and digest window marker",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS runs (
					run_id TEXT PRIMARY KEY,
					started_at DATETIME NOT NULL,
					finished_at DATETIME NOT NULL,
					window_start DATETIME NOT NULL,
					window_end DATETIME NOT NULL,
					total INTEGER NOT NULL,
					classified INTEGER NOT NULL,
					draft_failed INTEGER NOT NULL,
					classification_failed INTEGER NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS digest_window (
					id INTEGER PRIMARY KEY CHECK (id = 1),
					window_start DATETIME NOT NULL,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(q); err != nil {
					return fmt.Errorf("migration query failed: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate brings the schema to the expected version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var current int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, txErr)
		}
		if upErr := m.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, upErr)
		}
		if _, recErr := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.Version); recErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, recErr)
		}
		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, commitErr)
		}

		slog.Info("Applied migration", "version", m.Version, "description", m.Description)
	}

	return nil
}
