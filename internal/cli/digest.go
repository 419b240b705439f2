package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/mailsift/mailsift/internal/model"
)

// FormatDigest renders a digest for terminal preview with category
// coloring. Delivery sinks use the plain renderer; this output is for
// humans at the prompt.
func FormatDigest(digest *model.Digest) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("Inbox digest — %s", digest.GeneratedAt.Format("2006-01-02"))))
	b.WriteString("\n")
	b.WriteString(SubtleStyle.Render(fmt.Sprintf("Window %s to %s · %d emails",
		digest.Window.Start.Format("Jan 02 15:04"),
		digest.Window.End.Format("Jan 02 15:04"),
		digest.Total)))
	b.WriteString("\n")

	if digest.Total == 0 {
		b.WriteString(SubtleStyle.Render("No new emails in this window."))
		b.WriteString("\n")
		return b.String()
	}

	for _, entry := range digest.Entries {
		b.WriteString("\n")
		b.WriteString(CategoryStyle(entry.Category).Render(fmt.Sprintf("%s (%d)", entry.Category, len(entry.Items))))
		b.WriteString("\n")
		for _, item := range entry.Items {
			fmt.Fprintf(&b, "  %s  %s — %s\n",
				SubtleStyle.Render(item.Email.ReceivedAt.Format("15:04")),
				BoldStyle.Render(item.Email.Sender),
				item.Email.Subject)
			if len(item.Drafts) > 0 {
				b.WriteString(SubtleStyle.Render(fmt.Sprintf("        %d draft(s) ready for review", len(item.Drafts))))
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

// FormatRunSummary renders the statistics of one manual pipeline run.
func FormatRunSummary(result *model.RunResult) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Run summary"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Emails processed:      %d\n", result.Total())
	fmt.Fprintf(&b, "  Classified:            %d\n", result.Classified())
	fmt.Fprintf(&b, "  Drafted:               %d\n", result.CountByStatus(model.StatusDrafted))
	fmt.Fprintf(&b, "  Draft failures:        %d\n", result.CountByStatus(model.StatusDraftFailed))
	fmt.Fprintf(&b, "  Classification failed: %d\n", result.CountByStatus(model.StatusClassificationFailed))
	fmt.Fprintf(&b, "  Duration:              %s\n", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
	return b.String()
}
