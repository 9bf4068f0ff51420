// Package theme holds the terminal styles used by the CLI.
package theme

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/stresslens/internal/stress"
)

// Color palette. Calm blues and greens, with warm tones reserved for
// elevated stress.
var (
	Primary   = lipgloss.Color("#38BDF8") // Sky
	Calm      = lipgloss.Color("#22C55E") // Green
	Caution   = lipgloss.Color("#F59E0B") // Amber
	Alert     = lipgloss.Color("#F43F5E") // Rose
	TextColor = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Label = lipgloss.NewStyle().
		Foreground(TextDim).
		Width(18)

	Body = lipgloss.NewStyle().
		Foreground(TextColor)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Warning = lipgloss.NewStyle().
		Foreground(Alert).
		Bold(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 2)
)

// Stress levels
var (
	LevelLow = lipgloss.NewStyle().
			Foreground(Calm).
			Bold(true)

	LevelModerate = lipgloss.NewStyle().
			Foreground(Caution).
			Bold(true)

	LevelHigh = lipgloss.NewStyle().
			Foreground(Alert).
			Bold(true)
)

// Level returns the style for a stress class.
func Level(c stress.Class) lipgloss.Style {
	switch c {
	case stress.Moderate:
		return LevelModerate
	case stress.High:
		return LevelHigh
	}
	return LevelLow
}
