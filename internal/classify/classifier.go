// Package classify assigns priority categories to emails using an
// ordered rule set.
package classify

import (
	"time"

	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/rules"
)

// Classifier evaluates a compiled ruleset against single emails. It is a
// pure function of (email, ruleset, now): no network, no hidden state, so
// it never needs retry and never fails per-email.
type Classifier struct {
	ruleset *rules.Ruleset
	now     func() time.Time
}

// New creates a classifier over a compiled ruleset.
func New(ruleset *rules.Ruleset) *Classifier {
	return &Classifier{ruleset: ruleset, now: time.Now}
}

// NewAt creates a classifier that evaluates age rules against a fixed
// clock, for deterministic runs and tests.
func NewAt(ruleset *rules.Ruleset, now func() time.Time) *Classifier {
	return &Classifier{ruleset: ruleset, now: now}
}

// Classify assigns exactly one category to the email. Rules are checked
// in configured order and the first match wins; if nothing matches, the
// configured default category is assigned with matched_rule "default".
func (c *Classifier) Classify(email model.Email) model.ClassificationResult {
	now := c.now()
	for _, rule := range c.ruleset.Rules {
		if rule.Matches(email, now) {
			return model.ClassificationResult{
				EmailID:     email.ID,
				Category:    rule.Category(),
				MatchedRule: rule.Name(),
			}
		}
	}
	return model.ClassificationResult{
		EmailID:     email.ID,
		Category:    c.ruleset.Default,
		MatchedRule: "default",
	}
}
