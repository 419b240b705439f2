// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/service"
)

// Config is the full, validated application configuration. It is loaded
// once per process (or atomically on explicit reload) and treated as
// read-only within a run.
type Config struct {
	Database   DatabaseConfig  `mapstructure:"database"`
	Gmail      GmailConfig     `mapstructure:"gmail"`
	Model      ModelConfig     `mapstructure:"model"`
	Categories CategoryConfig  `mapstructure:"categories"`
	Style      StyleConfig     `mapstructure:"style"`
	Scheduler  SchedulerConfig `mapstructure:"scheduler"`
	Retry      RetryConfig     `mapstructure:"retry"`
	Digest     DigestConfig    `mapstructure:"digest"`
	Rules      []RuleConfig    `mapstructure:"rules"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// GmailConfig holds the OAuth2 settings for the Gmail collaborator.
type GmailConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	TokenFile    string `mapstructure:"token_file"`
}

// ModelConfig configures the model-inference collaborator.
type ModelConfig struct {
	Provider    string  `mapstructure:"provider"`
	Host        string  `mapstructure:"host"`
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	RateLimit   int     `mapstructure:"rate_limit"`
}

// RuleConfig declares one classification rule. Rules are evaluated in the
// order they appear; the first match wins.
type RuleConfig struct {
	Name      string        `mapstructure:"name"`
	Type      string        `mapstructure:"type"`
	Category  string        `mapstructure:"category"`
	Senders   []string      `mapstructure:"senders"`
	Keywords  []string      `mapstructure:"keywords"`
	OlderThan time.Duration `mapstructure:"older_than"`
}

// CustomCategory is a user-defined category with its own draft eligibility.
type CustomCategory struct {
	Name          string `mapstructure:"name"`
	DraftEligible bool   `mapstructure:"draft_eligible"`
}

// CategoryConfig controls the category set, default assignment, and which
// categories get reply drafts.
type CategoryConfig struct {
	Default       string           `mapstructure:"default"`
	DraftEligible []string         `mapstructure:"draft_eligible"`
	Custom        []CustomCategory `mapstructure:"custom"`
}

// StyleConfig shapes generated reply drafts.
type StyleConfig struct {
	Tone       string `mapstructure:"tone"`
	Language   string `mapstructure:"language"`
	NumOptions int    `mapstructure:"num_options"`
	Signature  string `mapstructure:"signature"`
}

// SchedulerConfig controls trigger timing and batch concurrency.
type SchedulerConfig struct {
	MonitorInterval time.Duration `mapstructure:"monitor_interval"`
	DigestTime      string        `mapstructure:"digest_time"`
	OnOverlap       string        `mapstructure:"on_overlap"`
	FetchLimit      int           `mapstructure:"fetch_limit"`
	Workers         int           `mapstructure:"workers"`
}

// RetryConfig bounds retries for calls to external collaborators.
type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialDelay   time.Duration `mapstructure:"initial_delay"`
	MaxDelay       time.Duration `mapstructure:"max_delay"`
	Multiplier     float64       `mapstructure:"multiplier"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
}

// DigestConfig selects and configures the digest delivery sink.
type DigestConfig struct {
	Sink string `mapstructure:"sink"`
	Path string `mapstructure:"path"`
	To   string `mapstructure:"to"`
}

// Load unmarshals the already-read viper configuration into a validated
// Config. Validation failures are fatal configuration errors.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Categories.Default == "" {
		c.Categories.Default = string(model.CategoryLowPriority)
	}
	if len(c.Categories.DraftEligible) == 0 {
		c.Categories.DraftEligible = []string{
			string(model.CategoryUrgent),
			string(model.CategoryImportant),
		}
	}
	if c.Style.Tone == "" {
		c.Style.Tone = "professional"
	}
	if c.Style.Language == "" {
		c.Style.Language = "English"
	}
	if c.Style.NumOptions <= 0 {
		c.Style.NumOptions = 1
	}
	if c.Scheduler.MonitorInterval <= 0 {
		c.Scheduler.MonitorInterval = 5 * time.Minute
	}
	if c.Scheduler.DigestTime == "" {
		c.Scheduler.DigestTime = "08:00"
	}
	if c.Scheduler.OnOverlap == "" {
		c.Scheduler.OnOverlap = "skip"
	}
	if c.Scheduler.FetchLimit <= 0 {
		c.Scheduler.FetchLimit = 50
	}
	if c.Scheduler.Workers <= 0 {
		c.Scheduler.Workers = 5
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.InitialDelay <= 0 {
		c.Retry.InitialDelay = time.Second
	}
	if c.Retry.MaxDelay <= 0 {
		c.Retry.MaxDelay = 30 * time.Second
	}
	if c.Retry.Multiplier <= 0 {
		c.Retry.Multiplier = 2.0
	}
	if c.Model.Provider == "" {
		c.Model.Provider = "ollama"
	}
	if c.Digest.Sink == "" {
		c.Digest.Sink = "file"
	}
}

// Validate checks cross-field consistency. Any error here wraps
// ErrInvalidConfig and must abort startup, never a run.
func (c *Config) Validate() error {
	known := make(map[string]bool)
	for _, cat := range model.BuiltinCategories() {
		known[string(cat)] = true
	}
	for _, custom := range c.Categories.Custom {
		if custom.Name == "" {
			return fmt.Errorf("%w: custom category with empty name", common.ErrInvalidConfig)
		}
		if model.Category(custom.Name).IsBuiltin() {
			return fmt.Errorf("%w: custom category %q shadows a built-in category", common.ErrInvalidConfig, custom.Name)
		}
		if known[custom.Name] {
			return fmt.Errorf("%w: duplicate custom category %q", common.ErrInvalidConfig, custom.Name)
		}
		known[custom.Name] = true
	}

	if !known[c.Categories.Default] {
		return fmt.Errorf("%w: default category %q is not defined", common.ErrInvalidConfig, c.Categories.Default)
	}
	for _, name := range c.Categories.DraftEligible {
		if !known[name] {
			return fmt.Errorf("%w: draft-eligible category %q is not defined", common.ErrInvalidConfig, name)
		}
	}

	for i, rule := range c.Rules {
		if rule.Name == "" {
			return fmt.Errorf("%w: rule %d has no name", common.ErrInvalidConfig, i)
		}
		if rule.Category == string(model.CategoryUnclassified) {
			return fmt.Errorf("%w: rule %q may not target the reserved Unclassified category", common.ErrInvalidConfig, rule.Name)
		}
		if !known[rule.Category] {
			return fmt.Errorf("%w: rule %q targets undefined category %q", common.ErrInvalidConfig, rule.Name, rule.Category)
		}
	}

	if _, err := time.Parse("15:04", c.Scheduler.DigestTime); err != nil {
		return fmt.Errorf("%w: digest_time %q is not HH:MM", common.ErrInvalidConfig, c.Scheduler.DigestTime)
	}
	if c.Scheduler.OnOverlap != "skip" && c.Scheduler.OnOverlap != "queue" {
		return fmt.Errorf("%w: on_overlap must be \"skip\" or \"queue\", got %q", common.ErrInvalidConfig, c.Scheduler.OnOverlap)
	}
	if c.Digest.Sink != "file" && c.Digest.Sink != "gmail" {
		return fmt.Errorf("%w: digest sink must be \"file\" or \"gmail\", got %q", common.ErrInvalidConfig, c.Digest.Sink)
	}
	if c.Digest.Sink == "gmail" && c.Digest.To == "" {
		return fmt.Errorf("%w: digest sink \"gmail\" requires digest.to", common.ErrInvalidConfig)
	}

	return nil
}

// CategoryOrder returns the full digest ordering: built-ins first, then
// custom categories in configured order, Unclassified last.
func (c *Config) CategoryOrder() []model.Category {
	order := model.BuiltinCategories()
	for _, custom := range c.Categories.Custom {
		order = append(order, model.Category(custom.Name))
	}
	return append(order, model.CategoryUnclassified)
}

// DraftEligible reports whether drafts should be generated for a category.
func (c *Config) DraftEligible(cat model.Category) bool {
	for _, name := range c.Categories.DraftEligible {
		if model.Category(name) == cat {
			return true
		}
	}
	for _, custom := range c.Categories.Custom {
		if model.Category(custom.Name) == cat {
			return custom.DraftEligible
		}
	}
	return false
}

// RetryOptions converts the retry config for common.WithRetry.
func (c *Config) RetryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:    c.Retry.MaxAttempts,
		InitialDelay:   c.Retry.InitialDelay,
		MaxDelay:       c.Retry.MaxDelay,
		Multiplier:     c.Retry.Multiplier,
		AttemptTimeout: c.Retry.AttemptTimeout,
	}
}
