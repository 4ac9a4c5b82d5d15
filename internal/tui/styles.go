package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/dreams/internal/ui"
)

// styles are derived from the active ui theme when the model is built.
type styles struct {
	title    lipgloss.Style
	accent   lipgloss.Style
	muted    lipgloss.Style
	err      lipgloss.Style
	selected lipgloss.Style
	pending  lipgloss.Style
	help     lipgloss.Style

	modalBox   lipgloss.Style
	modalTitle lipgloss.Style
	button     lipgloss.Style
	buttonOn   lipgloss.Style
	danger     lipgloss.Style
	inputBar   lipgloss.Style
}

func newStyles(t ui.Theme) styles {
	title := ui.Color(t.HexTitle)
	accent := ui.Color(t.HexAccent)
	danger := ui.Color(t.HexDanger)
	surface := ui.Color(t.HexSurface)
	text := ui.Color(t.HexText)
	muted := ui.Color(t.HexMuted)

	btn := lipgloss.NewStyle().Padding(0, 1).Foreground(text).Background(surface)

	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(title),
		accent:   lipgloss.NewStyle().Foreground(accent),
		muted:    lipgloss.NewStyle().Faint(true),
		err:      lipgloss.NewStyle().Foreground(danger).Bold(true),
		selected: lipgloss.NewStyle().Bold(true).Reverse(true),
		pending:  lipgloss.NewStyle().Faint(true).Italic(true),
		help:     lipgloss.NewStyle().Faint(true),

		modalBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2),
		modalTitle: lipgloss.NewStyle().Bold(true).Foreground(title).MarginBottom(1),
		button:     btn,
		buttonOn:   btn.Bold(true).Reverse(true),
		danger:     lipgloss.NewStyle().Foreground(danger).Bold(true),
		inputBar: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
	}
}
