package theme

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/abhisek/stresslens/internal/rules"
	"github.com/abhisek/stresslens/internal/stress"
)

// Prediction renders a classifier result with a vote bar per class.
func Prediction(res stress.Result) string {
	lines := []string{
		Title.Render("Stress prediction"),
		Label.Render("Level") + Level(res.Class).Render(res.Class.String()),
		Label.Render("Confidence") + Body.Render(fmt.Sprintf("%.0f%%", res.Confidence*100)),
		"",
	}
	for i, p := range res.Probabilities {
		c := stress.Class(i)
		lines = append(lines, Label.Render(c.String())+bar(p, 20, Level(c)))
	}
	return Card.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Finding renders a rule engine finding.
func Finding(f rules.Finding) string {
	lines := []string{Title.Render("Observations")}
	for _, s := range f.Summary {
		lines = append(lines, Body.Render("• "+s))
	}
	if f.Warning != nil {
		lines = append(lines, "", Warning.Render("! "+*f.Warning))
	}
	lines = append(lines, "", Title.Render("Try this"))
	for i, r := range f.Recommendations {
		lines = append(lines, Body.Render(fmt.Sprintf("%d. %s", i+1, r)))
	}
	lines = append(lines, "", Hint.Render(f.Disclaimer))
	return Card.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Text renders generated text under a heading.
func Text(heading, body string) string {
	return Card.Render(lipgloss.JoinVertical(lipgloss.Left,
		Title.Render(heading),
		Body.Render(body),
	))
}

func bar(frac float64, width int, style lipgloss.Style) string {
	filled := int(frac*float64(width) + 0.5)
	filled = max(0, min(width, filled))
	return style.Render(strings.Repeat("█", filled)) +
		Hint.Render(strings.Repeat("░", width-filled)) +
		Hint.Render(fmt.Sprintf(" %.0f%%", frac*100))
}

// Table renders rows under a bold header row.
func Table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Border)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return Title.Padding(0, 1)
			}
			return Body.Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}
