package draft

import (
	"regexp"
	"strings"
)

var thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)

// parseCandidates splits raw model output into at most maxOptions reply
// texts. It tolerates common model artifacts: reasoning blocks, markdown
// code fences, and "Option N:" headers instead of the requested "---"
// separator. Unusable output yields an empty slice, never an error.
func parseCandidates(raw string, maxOptions int) []string {
	cleaned := cleanOutput(raw)
	if cleaned == "" {
		return nil
	}
	if maxOptions <= 1 {
		return []string{cleaned}
	}

	parts := splitOptions(cleaned)

	candidates := make([]string, 0, maxOptions)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		candidates = append(candidates, part)
		if len(candidates) == maxOptions {
			break
		}
	}
	return candidates
}

func splitOptions(content string) []string {
	// Preferred separator: a line of three or more dashes.
	separatorRe := regexp.MustCompile(`(?m)^\s*-{3,}\s*$`)
	if parts := separatorRe.Split(content, -1); len(parts) > 1 {
		return parts
	}

	// Fallback: "Option 1:", "Reply 2:", "1." style headers.
	headerRe := regexp.MustCompile(`(?mi)^(?:option|reply|draft)?\s*\d+[.:)]\s*$|^(?:option|reply|draft)\s+\d+[.:)]`)
	if locs := headerRe.FindAllStringIndex(content, -1); len(locs) > 1 {
		parts := make([]string, 0, len(locs))
		for i, loc := range locs {
			end := len(content)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			part := content[loc[1]:end]
			parts = append(parts, part)
		}
		return parts
	}

	return []string{content}
}

// cleanOutput strips model artifacts that must not appear in a reply:
// deepseek-style <think> reasoning blocks and markdown code fences.
func cleanOutput(raw string) string {
	content := thinkBlockRe.ReplaceAllString(raw, "")
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) > 1 {
			lines = lines[1:]
		}
		for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
			lines = lines[:len(lines)-1]
		}
		content = strings.TrimSpace(strings.Join(lines, "\n"))
	}

	return content
}
