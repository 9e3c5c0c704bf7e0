package theme

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/fintutor/internal/mastery"
)

// Color palette
var (
	Primary   = lipgloss.Color("#2563EB") // Ledger Blue
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Tutor = lipgloss.NewStyle().
		Foreground(Secondary)
)

// Feedback
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
)

// StrengthStyle returns the style used for a mastery tier.
func StrengthStyle(s mastery.Strength) lipgloss.Style {
	switch s {
	case mastery.Strong:
		return lipgloss.NewStyle().Foreground(Success).Bold(true)
	case mastery.Okay:
		return lipgloss.NewStyle().Foreground(Accent)
	case mastery.Struggling:
		return lipgloss.NewStyle().Foreground(Error)
	default:
		return lipgloss.NewStyle().Foreground(TextDim)
	}
}
