package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/service"
)

// Runner wires the pipeline to its collaborators for the two trigger
// kinds: monitoring (fetch + classify + draft) and digesting (aggregate +
// deliver). The scheduler and the manual commands both drive it.
type Runner struct {
	store      service.Storage
	mail       service.MailSource
	saver      service.DraftSaver
	sink       service.DigestSink
	pipeline   *Pipeline
	builder    *DigestBuilder
	retryOpts  service.RetryOptions
	fetchLimit int
	now        func() time.Time
}

// RunnerConfig holds construction options for a Runner.
type RunnerConfig struct {
	Store      service.Storage
	Mail       service.MailSource
	Saver      service.DraftSaver
	Sink       service.DigestSink
	Pipeline   *Pipeline
	Builder    *DigestBuilder
	RetryOpts  service.RetryOptions
	FetchLimit int
}

// NewRunner creates a runner.
func NewRunner(cfg RunnerConfig) *Runner {
	fetchLimit := cfg.FetchLimit
	if fetchLimit <= 0 {
		fetchLimit = 50
	}
	return &Runner{
		store:      cfg.Store,
		mail:       cfg.Mail,
		saver:      cfg.Saver,
		sink:       cfg.Sink,
		pipeline:   cfg.Pipeline,
		builder:    cfg.Builder,
		retryOpts:  cfg.RetryOpts,
		fetchLimit: fetchLimit,
		now:        time.Now,
	}
}

// Monitor performs one monitoring run: fetch new emails, process the
// batch, persist the outcomes. A fetch failure after retries aborts the
// run (batch-level failure); the scheduler logs it and waits for the next
// trigger.
func (r *Runner) Monitor(ctx context.Context) (*model.RunResult, error) {
	var fetched []model.Email
	err := common.WithRetry(ctx, func(attemptCtx context.Context) error {
		var fetchErr error
		fetched, fetchErr = r.mail.FetchNew(attemptCtx, r.fetchLimit)
		return fetchErr
	}, r.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("mail fetch failed: %w", err)
	}

	// Drop anything a previous run already handled; FetchNew is idempotent
	// under retry but a crash between processing and marking can leave
	// stragglers.
	emails := make([]model.Email, 0, len(fetched))
	for _, email := range fetched {
		done, checkErr := r.store.IsProcessed(ctx, email.ID)
		if checkErr != nil {
			return nil, fmt.Errorf("processed check failed: %w", checkErr)
		}
		if !done {
			emails = append(emails, email)
		}
	}

	if len(emails) == 0 {
		slog.Info("No new emails to process")
		return &model.RunResult{RunID: "", Outcomes: nil}, nil
	}

	if err := r.store.SaveEmails(ctx, emails); err != nil {
		return nil, fmt.Errorf("failed to persist fetched emails: %w", err)
	}

	window := runWindow(emails, r.now())
	result, runErr := r.pipeline.Run(ctx, emails, window)

	// Persist whatever the run produced, even when it was cancelled
	// partway: completed outcomes are never discarded. The saves must
	// not inherit the cancellation, or shutdown would drop outcomes for
	// emails the provider already considers handled.
	persistCtx := context.WithoutCancel(ctx)
	if err := r.store.SaveOutcomes(persistCtx, result.RunID, result.Outcomes); err != nil {
		return result, fmt.Errorf("failed to persist outcomes: %w", err)
	}
	if err := r.store.SaveRunSummary(persistCtx, result); err != nil {
		return result, fmt.Errorf("failed to persist run summary: %w", err)
	}
	if err := r.markHandled(persistCtx, result); err != nil {
		return result, err
	}

	r.saveDrafts(persistCtx, result)

	return result, runErr
}

// markHandled records the processed marker for every email that actually
// went through the pipeline, so a crash between outcome recording and the
// provider-side marker never re-processes the email into a second
// outcome row. Emails whose slot was cancelled before processing stay
// unmarked and are picked up by the next run.
func (r *Runner) markHandled(ctx context.Context, result *model.RunResult) error {
	for _, outcome := range result.Outcomes {
		if errors.Is(outcome.Err, context.Canceled) || errors.Is(outcome.Err, context.DeadlineExceeded) {
			continue
		}
		if err := r.store.MarkProcessed(ctx, outcome.Email.ID); err != nil {
			return fmt.Errorf("failed to mark %s processed: %w", outcome.Email.ID, err)
		}
	}
	return nil
}

// saveDrafts pushes generated candidates to the mail provider as drafts
// for later human review. Failures here are soft: the candidate is still
// recorded locally and appears in the digest.
func (r *Runner) saveDrafts(ctx context.Context, result *model.RunResult) {
	if r.saver == nil {
		return
	}
	for _, outcome := range result.Outcomes {
		for _, candidate := range outcome.Drafts {
			draftID, err := r.saver.SaveDraft(ctx, outcome.Email, candidate)
			if err != nil {
				slog.Warn("Failed to save draft with provider",
					"email_id", outcome.Email.ID,
					"error", err)
				continue
			}
			slog.Info("Draft saved for review",
				"email_id", outcome.Email.ID,
				"draft_id", draftID)
		}
	}
}

// BuildDigest assembles and delivers the digest for everything processed
// since the last successful one. The window marker advances only after
// delivery succeeds, so a failed delivery re-covers the same emails next
// time instead of skipping them.
func (r *Runner) BuildDigest(ctx context.Context) (*model.Digest, error) {
	since, err := r.store.GetDigestWindowStart(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read digest window: %w", err)
	}

	outcomes, err := r.store.GetOutcomesSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load outcomes: %w", err)
	}

	window := model.Window{Start: since, End: r.now()}
	digest := r.builder.Build(outcomes, window)

	// A zero-email digest is still delivered, not suppressed.
	if err := r.sink.Deliver(ctx, digest); err != nil {
		return digest, fmt.Errorf("digest delivery failed: %w", err)
	}

	if err := r.store.AdvanceDigestWindow(ctx, window.End); err != nil {
		return digest, fmt.Errorf("delivered digest but failed to advance window: %w", err)
	}

	slog.Info("Digest delivered",
		"digest_id", digest.ID,
		"total", digest.Total,
		"window_end", window.End)

	return digest, nil
}

// runWindow spans from the oldest email in the batch to the fetch time.
func runWindow(emails []model.Email, end time.Time) model.Window {
	window := model.Window{Start: end, End: end}
	for _, email := range emails {
		if email.ReceivedAt.Before(window.Start) {
			window.Start = email.ReceivedAt
		}
	}
	return window
}
