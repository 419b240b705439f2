// Package llm implements the model-inference collaborator used for
// reply draft generation.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/mailsift/mailsift/internal/config"
	"github.com/mailsift/mailsift/internal/service"
)

// client wraps a provider with shared rate limiting. It implements
// service.ModelService.
type client struct {
	provider    provider
	rateLimiter *rateLimiter
}

// provider is one concrete inference backend.
type provider interface {
	complete(ctx context.Context, prompt string, opts service.CompletionOptions) (string, error)
}

// NewModelService creates the configured inference client.
func NewModelService(cfg config.ModelConfig) (service.ModelService, error) {
	var p provider
	var err error

	switch strings.ToLower(cfg.Provider) {
	case "ollama":
		p, err = newOllamaProvider(cfg)
	case "openai":
		p, err = newOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	return &client{
		provider:    p,
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}, nil
}

// Complete sends one prompt to the model and returns its raw text output.
func (c *client) Complete(ctx context.Context, prompt string, opts service.CompletionOptions) (string, error) {
	if err := c.rateLimiter.wait(ctx); err != nil {
		return "", err
	}
	return c.provider.complete(ctx, prompt, opts)
}
