package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/fintutor/internal/concepts"
	"github.com/abhisek/fintutor/internal/mastery"
	"github.com/abhisek/fintutor/internal/ui/theme"
)

const (
	nameWidth     = 22
	countWidth    = 7
	strengthWidth = 12
	barWidth      = 20
)

// MasteryTable renders a user's concept scores grouped by strand.
type MasteryTable struct {
	Progress *mastery.Progress
	// Practiced hides concepts without attempts when set.
	Practiced bool
}

// View renders the table.
func (t MasteryTable) View() string {
	if t.Progress == nil {
		return theme.Hint.Render("No progress yet.")
	}

	var b strings.Builder
	for _, strand := range concepts.AllStrands() {
		var rows []string
		for _, c := range concepts.ByStrand(strand) {
			score := t.Progress.Score(c.ID)
			if t.Practiced && score.Total == 0 {
				continue
			}
			rows = append(rows, t.row(c.Name, score))
		}
		if len(rows) == 0 {
			continue
		}
		b.WriteString(theme.Title.Render(concepts.StrandDisplayName(strand)))
		b.WriteString("\n")
		for _, r := range rows {
			b.WriteString(r)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	extra := t.uncataloged()
	if len(extra) > 0 {
		b.WriteString(theme.Title.Render("Other"))
		b.WriteString("\n")
		for _, score := range extra {
			b.WriteString(t.row(score.Concept, score))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (t MasteryTable) row(name string, score mastery.ConceptScore) string {
	style := theme.StrengthStyle(score.Strength)
	bar := NewProgressBar(score.Ratio(), true, barWidth)
	bar.Fill = style

	return lipgloss.JoinHorizontal(lipgloss.Top,
		theme.Body.Width(nameWidth).Render(truncate(name, nameWidth-1)),
		theme.Subtitle.Width(countWidth).Render(fmt.Sprintf("%d/%d", score.Correct, score.Total)),
		style.Width(strengthWidth).Render(score.Strength.Label()),
		bar.View(),
	)
}

// uncataloged returns practiced concepts that are not part of the catalog.
func (t MasteryTable) uncataloged() []mastery.ConceptScore {
	var out []mastery.ConceptScore
	for _, score := range t.Progress.Scores() {
		if !concepts.Exists(score.Concept) && score.Total > 0 {
			out = append(out, score)
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
