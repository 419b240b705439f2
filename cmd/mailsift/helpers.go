package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mailsift/mailsift/internal/classify"
	"github.com/mailsift/mailsift/internal/config"
	"github.com/mailsift/mailsift/internal/draft"
	"github.com/mailsift/mailsift/internal/engine"
	"github.com/mailsift/mailsift/internal/gmail"
	"github.com/mailsift/mailsift/internal/llm"
	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/rules"
	"github.com/mailsift/mailsift/internal/service"
	"github.com/mailsift/mailsift/internal/sink"
	"github.com/mailsift/mailsift/internal/storage"
)

// app bundles everything a command needs after wiring.
type app struct {
	cfg    *config.Config
	store  *storage.SQLiteStorage
	runner *engine.Runner
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStorage(cfg *config.Config) (*storage.SQLiteStorage, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = "~/.local/share/mailsift/mailsift.db"
	}
	dbPath = config.ExpandPath(dbPath)

	db, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// buildApp wires collaborators for one command invocation. onEmailDone
// is optional progress reporting for manual runs.
func buildApp(ctx context.Context, onEmailDone func()) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	ruleset, err := rules.Compile(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	classifier := classify.New(ruleset)

	modelService, err := llm.NewModelService(cfg.Model)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	generator := draft.NewGenerator(modelService, cfg.Style, cfg.RetryOptions(), service.CompletionOptions{
		Temperature: cfg.Model.Temperature,
		MaxTokens:   cfg.Model.MaxTokens,
	})

	mailSource, err := gmail.NewSource(ctx, cfg.Gmail)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	digestSink, err := buildSink(cfg, mailSource)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	builder, err := engine.NewDigestBuilder(cfg.CategoryOrder())
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	pipeline := engine.NewPipeline(engine.PipelineConfig{
		Classifier:    &classifierAdapter{classifier},
		Generator:     generator,
		MailSource:    mailSource,
		DraftEligible: cfg.DraftEligible,
		OnEmailDone:   onEmailDone,
		Workers:       cfg.Scheduler.Workers,
	})

	runner := engine.NewRunner(engine.RunnerConfig{
		Store:      db,
		Mail:       mailSource,
		Saver:      mailSource,
		Sink:       digestSink,
		Pipeline:   pipeline,
		Builder:    builder,
		RetryOpts:  cfg.RetryOptions(),
		FetchLimit: cfg.Scheduler.FetchLimit,
	})

	return &app{cfg: cfg, store: db, runner: runner}, nil
}

func buildSink(cfg *config.Config, mailSource *gmail.Source) (service.DigestSink, error) {
	switch cfg.Digest.Sink {
	case "gmail":
		return sink.NewMailSink(mailSource, cfg.Digest.To), nil
	case "file":
		path := cfg.Digest.Path
		if path == "" {
			path = "~/.local/share/mailsift/digests"
		}
		return sink.NewFileSink(config.ExpandPath(path)), nil
	default:
		return nil, fmt.Errorf("unknown digest sink %q", cfg.Digest.Sink)
	}
}

// classifierAdapter lifts the pure rule classifier into the engine's
// fallible interface.
type classifierAdapter struct {
	classifier *classify.Classifier
}

func (a *classifierAdapter) Classify(email model.Email) (model.ClassificationResult, error) {
	return a.classifier.Classify(email), nil
}
