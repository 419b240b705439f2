// Package draft generates reply-text candidates for emails through the
// model-inference collaborator.
package draft

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/config"
	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/service"
)

// Generator produces reply candidates for a single email. Model calls go
// through the shared retry policy; retry exhaustion surfaces as an error
// the pipeline records as draft_failed, while malformed output degrades
// to zero candidates.
type Generator struct {
	modelService service.ModelService
	style        config.StyleConfig
	retryOpts    service.RetryOptions
	modelOpts    service.CompletionOptions
}

// NewGenerator creates a draft generator.
func NewGenerator(modelService service.ModelService, style config.StyleConfig, retryOpts service.RetryOptions, modelOpts service.CompletionOptions) *Generator {
	return &Generator{
		modelService: modelService,
		style:        style,
		retryOpts:    retryOpts,
		modelOpts:    modelOpts,
	}
}

// Generate asks the model for up to NumOptions reply candidates.
// GeneratedAt is stamped with the run's window end so rebuilding a digest
// from the same run stays deterministic.
func (g *Generator) Generate(ctx context.Context, email model.Email, windowEnd time.Time) ([]model.DraftCandidate, error) {
	prompt := g.buildPrompt(email)

	var raw string
	err := common.WithRetry(ctx, func(attemptCtx context.Context) error {
		var callErr error
		raw, callErr = g.modelService.Complete(attemptCtx, prompt, g.modelOpts)
		return callErr
	}, g.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("draft generation for email %s: %w", email.ID, err)
	}

	texts := parseCandidates(raw, g.style.NumOptions)
	if len(texts) == 0 {
		slog.Warn("Model returned no usable draft text",
			"email_id", email.ID,
			"raw_length", len(raw))
		return nil, nil
	}

	candidates := make([]model.DraftCandidate, 0, len(texts))
	for _, text := range texts {
		candidates = append(candidates, model.DraftCandidate{
			EmailID:     email.ID,
			Text:        text,
			Tone:        g.style.Tone,
			Language:    g.style.Language,
			GeneratedAt: windowEnd,
		})
	}
	return candidates, nil
}

func (g *Generator) buildPrompt(email model.Email) string {
	var b strings.Builder
	if g.style.NumOptions > 1 {
		fmt.Fprintf(&b, "You are an expert email assistant. Write %d candidate replies, each a complete standalone email, to the email below.\n\n", g.style.NumOptions)
	} else {
		b.WriteString("You are an expert email assistant. Write a reply to the email below.\n\n")
	}
	fmt.Fprintf(&b, "Tone: %s\nLanguage: %s\n", g.style.Tone, g.style.Language)
	if g.style.Signature != "" {
		fmt.Fprintf(&b, "Sign off as: %s\n", g.style.Signature)
	}
	b.WriteString("\nOriginal email:\n")
	fmt.Fprintf(&b, "From: %s\n", email.Sender)
	fmt.Fprintf(&b, "Subject: %s\n", email.Subject)
	fmt.Fprintf(&b, "Body:\n%s\n\n", email.Body)
	b.WriteString("Write a professional greeting, a clear body, and a sign-off.\n")
	if g.style.NumOptions > 1 {
		b.WriteString("Separate the candidates with a line containing only \"---\".\n")
	}
	b.WriteString("Do not include any thinking process or <think> tags. Output only the reply text.")
	return b.String()
}

// ReplySubject returns the subject line a saved draft should carry.
func ReplySubject(email model.Email) string {
	if strings.HasPrefix(strings.ToLower(email.Subject), "re:") {
		return email.Subject
	}
	return "Re: " + email.Subject
}
