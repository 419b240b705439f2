package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mailsift/mailsift/internal/cli"
)

func processCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Fetch and triage new email once",
		Long: `Run one monitoring pass by hand: fetch unread email, classify each
message, and generate reply drafts for draft-eligible categories.

Equivalent to one scheduled monitor trigger.`,
		RunE: runProcess,
	}
}

func runProcess(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("triaging"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	a, err := buildApp(ctx, func() { _ = bar.Add(1) })
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.runner.Monitor(ctx)
	_ = bar.Finish()
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if result.Total() == 0 {
		cmd.Println(cli.SubtleStyle.Render("Inbox is quiet — nothing new to triage."))
		return nil
	}

	cmd.Println(cli.FormatRunSummary(result))
	return nil
}
