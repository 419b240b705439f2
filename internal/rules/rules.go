// Package rules compiles the configured classification rules into an
// ordered, immutable ruleset evaluated first-match-wins.
package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/config"
	"github.com/mailsift/mailsift/internal/model"
)

// Rule matches emails against one configured heuristic. Implementations
// must be pure: no I/O, no hidden state, deterministic for a given email
// and evaluation time.
type Rule interface {
	Name() string
	Category() model.Category
	Matches(email model.Email, now time.Time) bool
}

// Ruleset is the compiled, ordered rule sequence plus the default
// category assigned when nothing matches. Read-only after compilation.
type Ruleset struct {
	Default model.Category
	Rules   []Rule
}

// Compile validates and compiles the configured rules. Malformed rule
// configuration is a fatal startup error, never a per-email one.
func Compile(cfg *config.Config) (*Ruleset, error) {
	compiled := make([]Rule, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		rule, err := compileRule(rc)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, rule)
	}
	return &Ruleset{
		Rules:   compiled,
		Default: model.Category(cfg.Categories.Default),
	}, nil
}

func compileRule(rc config.RuleConfig) (Rule, error) {
	category := model.Category(rc.Category)
	switch rc.Type {
	case "sender":
		if len(rc.Senders) == 0 {
			return nil, fmt.Errorf("%w: sender rule %q has no senders", common.ErrInvalidConfig, rc.Name)
		}
		senders := make([]string, len(rc.Senders))
		for i, s := range rc.Senders {
			senders[i] = strings.ToLower(strings.TrimSpace(s))
		}
		return &senderRule{name: rc.Name, category: category, senders: senders}, nil
	case "keyword":
		if len(rc.Keywords) == 0 {
			return nil, fmt.Errorf("%w: keyword rule %q has no keywords", common.ErrInvalidConfig, rc.Name)
		}
		keywords := make([]string, len(rc.Keywords))
		for i, k := range rc.Keywords {
			keywords[i] = strings.ToLower(k)
		}
		return &keywordRule{name: rc.Name, category: category, keywords: keywords}, nil
	case "age":
		if rc.OlderThan <= 0 {
			return nil, fmt.Errorf("%w: age rule %q needs a positive older_than", common.ErrInvalidConfig, rc.Name)
		}
		return &ageRule{name: rc.Name, category: category, olderThan: rc.OlderThan}, nil
	default:
		return nil, fmt.Errorf("%w: rule %q has unknown type %q", common.ErrInvalidConfig, rc.Name, rc.Type)
	}
}

// senderRule matches when the email sender contains any configured
// address or domain fragment.
type senderRule struct {
	name     string
	category model.Category
	senders  []string
}

func (r *senderRule) Name() string             { return r.name }
func (r *senderRule) Category() model.Category { return r.category }

func (r *senderRule) Matches(email model.Email, _ time.Time) bool {
	sender := strings.ToLower(email.Sender)
	for _, s := range r.senders {
		if strings.Contains(sender, s) {
			return true
		}
	}
	return false
}

// keywordRule matches when subject or body contains any configured
// keyword, case-insensitively.
type keywordRule struct {
	name     string
	category model.Category
	keywords []string
}

func (r *keywordRule) Name() string             { return r.name }
func (r *keywordRule) Category() model.Category { return r.category }

func (r *keywordRule) Matches(email model.Email, _ time.Time) bool {
	subject := strings.ToLower(email.Subject)
	body := strings.ToLower(email.Body)
	for _, k := range r.keywords {
		if strings.Contains(subject, k) || strings.Contains(body, k) {
			return true
		}
	}
	return false
}

// ageRule matches emails that have sat unanswered past an SLA duration.
type ageRule struct {
	name      string
	category  model.Category
	olderThan time.Duration
}

func (r *ageRule) Name() string             { return r.name }
func (r *ageRule) Category() model.Category { return r.category }

func (r *ageRule) Matches(email model.Email, now time.Time) bool {
	return now.Sub(email.ReceivedAt) > r.olderThan
}
