// Package engine orchestrates classification and draft generation for
// batches of emails and assembles digests from the results.
package engine

import (
	"context"
	"time"

	"github.com/mailsift/mailsift/internal/model"
)

// Classifier assigns exactly one category to an email. Implementations
// must be deterministic for the same email and rule set.
type Classifier interface {
	Classify(email model.Email) (model.ClassificationResult, error)
}

// DraftGenerator produces reply candidates for one email. A returned
// error means generation failed after retries; zero candidates with a
// nil error means the model produced nothing usable.
type DraftGenerator interface {
	Generate(ctx context.Context, email model.Email, windowEnd time.Time) ([]model.DraftCandidate, error)
}
