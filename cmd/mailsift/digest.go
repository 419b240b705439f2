package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mailsift/mailsift/internal/cli"
)

func digestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Build and deliver a digest now",
		Long: `Compile everything processed since the last digest into a summary,
grouped by category, and deliver it through the configured sink.

Equivalent to one scheduled digest trigger.`,
		RunE: runDigest,
	}

	cmd.Flags().Bool("preview", false, "print the digest to the terminal as well")
	_ = viper.BindPFlag("digest.preview", cmd.Flags().Lookup("preview"))

	return cmd
}

func runDigest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := buildApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.close()

	digest, err := a.runner.BuildDigest(ctx)
	if err != nil {
		return fmt.Errorf("digest failed: %w", err)
	}

	if viper.GetBool("digest.preview") {
		cmd.Println(cli.FormatDigest(digest))
	} else {
		cmd.Println(cli.SuccessStyle.Render(fmt.Sprintf("Digest %s delivered (%d emails).", digest.ID, digest.Total)))
	}
	return nil
}
