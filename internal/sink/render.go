// Package sink implements digest delivery collaborators.
package sink

import (
	"fmt"
	"strings"

	"github.com/mailsift/mailsift/internal/model"
)

// Render produces the plain-text form of a digest. It reads only the
// digest's own fields, so rendering is deterministic for a given digest.
func Render(digest *model.Digest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Inbox digest %s\n", digest.ID)
	fmt.Fprintf(&b, "Window: %s to %s\n",
		digest.Window.Start.Format("2006-01-02 15:04"),
		digest.Window.End.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Total emails: %d\n", digest.Total)

	if digest.Total == 0 {
		b.WriteString("\nNo new emails in this window.\n")
		return b.String()
	}

	for _, entry := range digest.Entries {
		fmt.Fprintf(&b, "\n== %s (%d) ==\n", entry.Category, len(entry.Items))
		for _, item := range entry.Items {
			fmt.Fprintf(&b, "- [%s] %s — %s\n",
				item.Email.ReceivedAt.Format("Jan 02 15:04"),
				item.Email.Sender,
				item.Email.Subject)
			if item.Classification != nil && item.Classification.MatchedRule != "" {
				fmt.Fprintf(&b, "  rule: %s\n", item.Classification.MatchedRule)
			}
			for i, draft := range item.Drafts {
				fmt.Fprintf(&b, "  draft %d:\n%s\n", i+1, indent(draft.Text, "    "))
			}
		}
	}

	return b.String()
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
