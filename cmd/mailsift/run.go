package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mailsift/mailsift/internal/schedule"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the triage daemon",
		Long: `Run continuous inbox monitoring and daily digest delivery.

The monitor trigger fetches and processes new email on a fixed interval;
the digest trigger compiles and delivers a summary at the configured
time of day. Send SIGHUP to reload configuration; stop with Ctrl-C.`,
		RunE: runDaemon,
	}
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	return serveLoop(ctx, hup, func(cycleCtx context.Context) error {
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("failed to reload config: %w", err)
			}
		}
		return runCycle(cycleCtx)
	})
}

// runCycle builds the application from the currently loaded configuration
// and drives the scheduler until its context ends.
func runCycle(ctx context.Context) error {
	a, err := buildApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.close()

	monitor := func(ctx context.Context) error {
		_, err := a.runner.Monitor(ctx)
		return err
	}
	digest := func(ctx context.Context) error {
		_, err := a.runner.BuildDigest(ctx)
		return err
	}

	scheduler := schedule.New(a.cfg.Scheduler, monitor, digest)

	// Run one monitor pass immediately so a fresh start doesn't sit idle
	// until the first tick.
	if err := scheduler.Trigger(ctx, schedule.KindMonitor); err != nil {
		slog.Error("Initial monitor run failed; continuing on schedule", "error", err)
	}

	return scheduler.Run(ctx)
}

// serveLoop runs cycles until ctx ends. A reload signal tears the current
// cycle down (the scheduler waits for in-flight runs first) and starts
// the next one from freshly loaded configuration; nothing else about the
// swap is observable from inside a run.
func serveLoop(ctx context.Context, reload <-chan os.Signal, cycle func(context.Context) error) error {
	for {
		cycleCtx, stop := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- cycle(cycleCtx) }()

		select {
		case <-reload:
			slog.Info("Reload signal received, restarting with fresh configuration")
			stop()
			<-done
		case err := <-done:
			stop()
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		case <-ctx.Done():
			stop()
			<-done
			return nil
		}
	}
}
