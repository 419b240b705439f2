package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mailsift/mailsift/internal/model"
)

// SaveOutcomes persists the per-email outcomes of a run, drafts included.
func (s *SQLiteStorage) SaveOutcomes(ctx context.Context, runID string, outcomes []model.EmailOutcome) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Timestamps are bound explicitly in UTC. SQLite compares them as
	// text, so mixing offsets would break the recorded_at window filter.
	recordedAt := time.Now().UTC()

	outcomeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO outcomes (run_id, email_id, status, category, matched_rule, confidence, error, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, email_id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("failed to prepare outcome statement: %w", err)
	}
	defer func() { _ = outcomeStmt.Close() }()

	draftStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO drafts (run_id, email_id, text, tone, language, generated_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare draft statement: %w", err)
	}
	defer func() { _ = draftStmt.Close() }()

	for _, outcome := range outcomes {
		var category, matchedRule sql.NullString
		var confidence sql.NullFloat64
		if outcome.Classification != nil {
			category = sql.NullString{String: string(outcome.Classification.Category), Valid: true}
			matchedRule = sql.NullString{String: outcome.Classification.MatchedRule, Valid: true}
			if outcome.Classification.Confidence != nil {
				confidence = sql.NullFloat64{Float64: *outcome.Classification.Confidence, Valid: true}
			}
		}
		var outcomeErr sql.NullString
		if outcome.Err != nil {
			outcomeErr = sql.NullString{String: outcome.Err.Error(), Valid: true}
		}

		if _, err := outcomeStmt.ExecContext(ctx, runID, outcome.Email.ID, string(outcome.Status), category, matchedRule, confidence, outcomeErr, recordedAt); err != nil {
			return fmt.Errorf("failed to save outcome for %s: %w", outcome.Email.ID, err)
		}

		for _, draft := range outcome.Drafts {
			if _, err := draftStmt.ExecContext(ctx, runID, draft.EmailID, draft.Text, draft.Tone, draft.Language, draft.GeneratedAt.UTC()); err != nil {
				return fmt.Errorf("failed to save draft for %s: %w", draft.EmailID, err)
			}
		}
	}

	return tx.Commit()
}

// GetOutcomesSince reconstructs outcomes recorded after the given time,
// with their emails and drafts, for digest assembly.
func (s *SQLiteStorage) GetOutcomesSince(ctx context.Context, since time.Time) ([]model.EmailOutcome, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT o.run_id, o.email_id, o.status, o.category, o.matched_rule, o.confidence,
		       e.thread_id, e.sender, e.subject, e.body, e.received_at
		FROM outcomes o
		JOIN emails e ON e.id = o.email_id
		WHERE o.recorded_at > ?
		ORDER BY o.recorded_at, o.email_id`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var outcomes []model.EmailOutcome
	runIDs := make(map[string]string)
	for rows.Next() {
		var runID, status string
		var category, matchedRule, threadID sql.NullString
		var confidence sql.NullFloat64
		outcome := model.EmailOutcome{}

		err := rows.Scan(&runID, &outcome.Email.ID, &status, &category, &matchedRule, &confidence,
			&threadID, &outcome.Email.Sender, &outcome.Email.Subject, &outcome.Email.Body, &outcome.Email.ReceivedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}

		outcome.Email.ThreadID = threadID.String
		outcome.Status = model.OutcomeStatus(status)
		if category.Valid {
			result := &model.ClassificationResult{
				EmailID:     outcome.Email.ID,
				Category:    model.Category(category.String),
				MatchedRule: matchedRule.String,
			}
			if confidence.Valid {
				c := confidence.Float64
				result.Confidence = &c
			}
			outcome.Classification = result
		}

		runIDs[outcome.Email.ID] = runID
		outcomes = append(outcomes, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outcomes: %w", err)
	}

	for i := range outcomes {
		drafts, err := s.getDrafts(ctx, runIDs[outcomes[i].Email.ID], outcomes[i].Email.ID)
		if err != nil {
			return nil, err
		}
		outcomes[i].Drafts = drafts
	}

	return outcomes, nil
}

func (s *SQLiteStorage) getDrafts(ctx context.Context, runID, emailID string) ([]model.DraftCandidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT email_id, text, tone, language, generated_at
		FROM drafts
		WHERE run_id = ? AND email_id = ?
		ORDER BY id`, runID, emailID)
	if err != nil {
		return nil, fmt.Errorf("failed to query drafts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var drafts []model.DraftCandidate
	for rows.Next() {
		var d model.DraftCandidate
		if err := rows.Scan(&d.EmailID, &d.Text, &d.Tone, &d.Language, &d.GeneratedAt); err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// SaveRunSummary records the aggregate counts for one pipeline run.
func (s *SQLiteStorage) SaveRunSummary(ctx context.Context, result *model.RunResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if result == nil || result.RunID == "" {
		return fmt.Errorf("run result must have a run ID")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, started_at, finished_at, window_start, window_end, total, classified, draft_failed, classification_failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, result.StartedAt, result.FinishedAt,
		result.Window.Start, result.Window.End,
		result.Total(), result.Classified(),
		result.CountByStatus(model.StatusDraftFailed),
		result.CountByStatus(model.StatusClassificationFailed))
	if err != nil {
		return fmt.Errorf("failed to save run summary: %w", err)
	}
	return nil
}
