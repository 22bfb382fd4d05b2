package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour set of the live view. T cycles through Themes.
type Theme struct {
	Name   string
	Accent lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Good   lipgloss.Color
	Warn   lipgloss.Color
	Bad    lipgloss.Color
}

var Themes = []Theme{
	{
		Name:   "space",
		Accent: lipgloss.Color("86"),
		Text:   lipgloss.Color("252"),
		Muted:  lipgloss.Color("242"),
		Good:   lipgloss.Color("#00ff88"),
		Warn:   lipgloss.Color("#ffaa00"),
		Bad:    lipgloss.Color("#ff4444"),
	},
	{
		Name:   "retro",
		Accent: lipgloss.Color("#00ff00"),
		Text:   lipgloss.Color("#00cc00"),
		Muted:  lipgloss.Color("#005500"),
		Good:   lipgloss.Color("#88ff88"),
		Warn:   lipgloss.Color("#ffff00"),
		Bad:    lipgloss.Color("#ff0000"),
	},
	{
		Name:   "minimal",
		Accent: lipgloss.Color("#ffffff"),
		Text:   lipgloss.Color("#cccccc"),
		Muted:  lipgloss.Color("#888888"),
		Good:   lipgloss.Color("#ffffff"),
		Warn:   lipgloss.Color("#ffaa00"),
		Bad:    lipgloss.Color("#ff0000"),
	},
}

type styles struct {
	canvas lipgloss.Style
	panel  lipgloss.Style
	header lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	graph  lipgloss.Style
	help   lipgloss.Style
	good   lipgloss.Style
	warn   lipgloss.Style
	bad    lipgloss.Style
	cursor lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		canvas: lipgloss.NewStyle().Padding(1, 2),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(44),
		header: lipgloss.NewStyle().Foreground(t.Accent).Bold(true).MarginBottom(1),
		label:  lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:  lipgloss.NewStyle().Foreground(t.Text),
		graph:  lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0),
		help:   lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		good:   lipgloss.NewStyle().Foreground(t.Good).Bold(true),
		warn:   lipgloss.NewStyle().Foreground(t.Warn).Bold(true),
		bad:    lipgloss.NewStyle().Foreground(t.Bad).Bold(true),
		cursor: lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
	}
}

func themeIndex(name string) int {
	for i, t := range Themes {
		if t.Name == name {
			return i
		}
	}
	return 0
}

// driftStyle grades a relative energy drift.
func (s styles) drift(d float64) lipgloss.Style {
	switch {
	case math.IsNaN(d) || d > 1e-2:
		return s.bad
	case d > 1e-4:
		return s.warn
	default:
		return s.good
	}
}

// ProgressBar renders a fixed-width bar for a fraction in [0, 1].
func ProgressBar(frac float64, width int) string {
	filled := int(math.Round(frac * float64(width)))
	filled = max(0, min(filled, width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// FormatSimTime prints simulated seconds in the largest sensible unit.
func FormatSimTime(sec float64) string {
	a := math.Abs(sec)
	switch {
	case a >= 365.25*86400:
		return fmt.Sprintf("%.2f yr", sec/(365.25*86400))
	case a >= 86400:
		return fmt.Sprintf("%.2f d", sec/86400)
	case a >= 3600:
		return fmt.Sprintf("%.2f h", sec/3600)
	default:
		return fmt.Sprintf("%.3g s", sec)
	}
}
