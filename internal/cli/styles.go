// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mailsift/mailsift/internal/model"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#7C9EF5")
	// UrgentColor marks urgent-category output.
	UrgentColor = lipgloss.Color("#FF6B6B")
	// ImportantColor marks important-category output.
	ImportantColor = lipgloss.Color("#FFE66D")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	categoryStyles = map[model.Category]lipgloss.Style{
		model.CategoryUrgent:       lipgloss.NewStyle().Bold(true).Foreground(UrgentColor),
		model.CategoryImportant:    lipgloss.NewStyle().Foreground(ImportantColor),
		model.CategoryLowPriority:  lipgloss.NewStyle().Foreground(SubtleColor),
		model.CategoryUnclassified: lipgloss.NewStyle().Faint(true),
	}
)

// CategoryStyle returns the style for a category, defaulting to the
// primary color for custom categories.
func CategoryStyle(cat model.Category) lipgloss.Style {
	if style, ok := categoryStyles[cat]; ok {
		return style
	}
	return lipgloss.NewStyle().Foreground(PrimaryColor)
}
