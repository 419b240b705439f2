package main

import (
	"github.com/spf13/cobra"

	"github.com/mailsift/mailsift/internal/cli"
	"github.com/mailsift/mailsift/internal/gmail"
)

func authCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Gmail",
		Long: `Run the interactive OAuth2 flow against Google and cache the token
for later runs. Required once before the first process or run.`,
		RunE: runAuth,
	}
}

func runAuth(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if _, err := gmail.AuthenticateInteractive(cmd.Context(), cfg.Gmail); err != nil {
		return err
	}

	cmd.Println(cli.SuccessStyle.Render("Authenticated. You're ready: try `mailsift process`."))
	return nil
}
