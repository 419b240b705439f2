package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mailsift/mailsift/internal/cli"
	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/rules"
)

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Show configured categories and rules",
		RunE:  runCategories,
	}
}

func runCategories(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ruleset, err := rules.Compile(cfg)
	if err != nil {
		return err
	}

	cmd.Println(cli.TitleStyle.Render("Categories (digest order)"))
	for _, cat := range cfg.CategoryOrder() {
		marker := ""
		if cfg.DraftEligible(cat) {
			marker = cli.SubtleStyle.Render("  drafts enabled")
		}
		if cat == model.Category(cfg.Categories.Default) {
			marker += cli.SubtleStyle.Render("  (default)")
		}
		cmd.Printf("  %s%s\n", cli.CategoryStyle(cat).Render(string(cat)), marker)
	}

	cmd.Println()
	cmd.Println(cli.TitleStyle.Render("Rules (first match wins)"))
	if len(ruleset.Rules) == 0 {
		cmd.Println(cli.SubtleStyle.Render("  none configured — everything gets the default category"))
		return nil
	}
	for i, rule := range ruleset.Rules {
		cmd.Printf("  %2d. %s %s\n", i+1,
			cli.BoldStyle.Render(rule.Name()),
			cli.SubtleStyle.Render(fmt.Sprintf("→ %s", rule.Category())))
	}
	return nil
}
