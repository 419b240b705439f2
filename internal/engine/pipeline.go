package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/service"
)

// Pipeline runs classification and conditional draft generation over one
// batch of emails. Per-email failures are isolated: each email receives
// exactly one terminal outcome and a bad email never aborts the batch.
type Pipeline struct {
	classifier    Classifier
	generator     DraftGenerator
	mailSource    service.MailSource
	draftEligible func(model.Category) bool
	onEmailDone   func()
	workers       int
}

// PipelineConfig holds construction options for a Pipeline.
type PipelineConfig struct {
	Classifier    Classifier
	Generator     DraftGenerator
	MailSource    service.MailSource
	DraftEligible func(model.Category) bool
	// OnEmailDone, when set, is called once per email after its outcome
	// is recorded. Used for progress reporting.
	OnEmailDone func()
	Workers     int
}

// NewPipeline creates a pipeline runner.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}
	eligible := cfg.DraftEligible
	if eligible == nil {
		eligible = func(model.Category) bool { return false }
	}
	return &Pipeline{
		classifier:    cfg.Classifier,
		generator:     cfg.Generator,
		mailSource:    cfg.MailSource,
		draftEligible: eligible,
		onEmailDone:   cfg.OnEmailDone,
		workers:       workers,
	}
}

// Run processes the batch. Emails are handled concurrently up to the
// worker limit; each worker writes only its own pre-allocated outcome
// slot. On cancellation, outcomes already produced are preserved and the
// remaining emails are recorded as classification_failed with the
// cancellation error, so no email ever leaves a run without an outcome.
func (p *Pipeline) Run(ctx context.Context, emails []model.Email, window model.Window) (*model.RunResult, error) {
	result := &model.RunResult{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
		Window:    window,
		Outcomes:  make([]model.EmailOutcome, len(emails)),
	}

	slog.Info("Starting pipeline run",
		"run_id", result.RunID,
		"emails", len(emails),
		"workers", p.workers)

	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	for i, email := range emails {
		wg.Add(1)
		go func(idx int, email model.Email) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				result.Outcomes[idx] = model.EmailOutcome{
					Email:  email,
					Status: model.StatusClassificationFailed,
					Err:    ctx.Err(),
				}
				p.emailDone()
				return
			}

			result.Outcomes[idx] = p.processEmail(ctx, email, window)
			p.emailDone()
		}(i, email)
	}

	wg.Wait()
	result.FinishedAt = time.Now()

	slog.Info("Pipeline run finished",
		"run_id", result.RunID,
		"classified", result.Classified(),
		"draft_failed", result.CountByStatus(model.StatusDraftFailed),
		"classification_failed", result.CountByStatus(model.StatusClassificationFailed),
		"duration", result.FinishedAt.Sub(result.StartedAt))

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// processEmail produces the single terminal outcome for one email.
func (p *Pipeline) processEmail(ctx context.Context, email model.Email, window model.Window) model.EmailOutcome {
	outcome := model.EmailOutcome{Email: email}

	classification, err := p.classifier.Classify(email)
	if err != nil {
		slog.Error("Classification failed",
			"email_id", email.ID,
			"error", err)
		outcome.Status = model.StatusClassificationFailed
		outcome.Err = err
		p.markProcessed(ctx, email.ID)
		return outcome
	}
	outcome.Classification = &classification
	outcome.Status = model.StatusClassified

	slog.Debug("Email classified",
		"email_id", email.ID,
		"category", classification.Category,
		"matched_rule", classification.MatchedRule)

	if p.generator != nil && p.draftEligible(classification.Category) {
		drafts, draftErr := p.generator.Generate(ctx, email, window.End)
		switch {
		case draftErr != nil:
			// Soft failure: the category stands, only drafting failed.
			slog.Warn("Draft generation failed",
				"email_id", email.ID,
				"category", classification.Category,
				"error", draftErr)
			outcome.Status = model.StatusDraftFailed
			outcome.Err = draftErr
		case len(drafts) > 0:
			outcome.Status = model.StatusDrafted
			outcome.Drafts = drafts
		}
	}

	p.markProcessed(ctx, email.ID)
	return outcome
}

func (p *Pipeline) emailDone() {
	if p.onEmailDone != nil {
		p.onEmailDone()
	}
}

func (p *Pipeline) markProcessed(ctx context.Context, emailID string) {
	if p.mailSource == nil {
		return
	}
	if err := p.mailSource.MarkProcessed(ctx, emailID); err != nil {
		slog.Warn("Failed to mark email processed; it may be re-fetched",
			"email_id", emailID,
			"error", err)
	}
}
