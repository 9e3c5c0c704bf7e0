package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/fintutor/internal/ui/theme"
)

// ProgressBar displays a horizontal ratio bar.
type ProgressBar struct {
	Percent     float64
	ShowPercent bool
	Width       int
	Fill        lipgloss.Style
}

// NewProgressBar creates a new progress bar filled with the secondary color.
func NewProgressBar(percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Percent:     percent,
		ShowPercent: showPercent,
		Width:       width,
		Fill:        lipgloss.NewStyle().Foreground(theme.Secondary),
	}
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	barWidth := p.Width
	if p.ShowPercent {
		barWidth -= 6 // "  100%"
	}
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * p.Percent)
	filled = max(0, min(filled, barWidth))
	empty := barWidth - filled

	result := p.Fill.Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("░", empty))

	if p.ShowPercent {
		result += lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render(fmt.Sprintf("  %3d%%", int(p.Percent*100)))
	}
	return result
}
