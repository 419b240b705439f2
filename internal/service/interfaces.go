// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/mailsift/mailsift/internal/model"
)

// MailSource is the mail-provider collaborator the pipeline fetches from.
// FetchNew must be idempotent under retry: re-fetching never duplicates
// emails that MarkProcessed has already recorded.
type MailSource interface {
	FetchNew(ctx context.Context, limit int) ([]model.Email, error)
	MarkProcessed(ctx context.Context, emailID string) error
}

// CompletionOptions tunes a single model-inference call.
type CompletionOptions struct {
	Temperature float64
	MaxTokens   int
}

// ModelService is the language-model collaborator. It is treated as
// unreliable: calls may time out, fail, or return malformed text.
type ModelService interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
}

// DigestSink delivers a built digest. Deliver is called at most once per
// successfully built digest.
type DigestSink interface {
	Deliver(ctx context.Context, digest *model.Digest) error
}

// DraftSaver persists a generated reply candidate with the mail provider
// (e.g. as a Gmail draft). Optional: a MailSource may implement it.
type DraftSaver interface {
	SaveDraft(ctx context.Context, email model.Email, candidate model.DraftCandidate) (string, error)
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Email operations
	SaveEmails(ctx context.Context, emails []model.Email) error
	IsProcessed(ctx context.Context, emailID string) (bool, error)
	MarkProcessed(ctx context.Context, emailID string) error

	// Result operations
	SaveOutcomes(ctx context.Context, runID string, outcomes []model.EmailOutcome) error
	GetOutcomesSince(ctx context.Context, since time.Time) ([]model.EmailOutcome, error)
	SaveRunSummary(ctx context.Context, result *model.RunResult) error

	// Digest window marker. Advanced only after a digest delivery fully
	// succeeds, so a failed delivery never skips emails.
	GetDigestWindowStart(ctx context.Context) (time.Time, error)
	AdvanceDigestWindow(ctx context.Context, to time.Time) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	AttemptTimeout time.Duration
}
