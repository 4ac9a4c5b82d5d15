package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/Makepad-fr/dreams/internal/ui"
)

const (
	modalMaxWidth = 72
	modalMinWidth = 24
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	base := m.header() + "\n" + m.list.View()
	if m.mode == modeAdd {
		base += "\n" + m.renderInputBar("Add a new dream")
	}
	base = m.panel(base)

	switch m.mode {
	case modeView:
		return m.overlay(base, m.renderViewModal())
	case modeUpdate:
		return m.overlay(base, m.renderUpdateModal())
	case modeDelete:
		return m.overlay(base, m.renderDeleteModal())
	}
	return base
}

func (m Model) header() string {
	title := m.st.title.Render("✦ Dream Diary ✦")
	count := m.st.muted.Render(fmt.Sprintf("%d %s", len(m.items), plural(len(m.items), "dream", "dreams")))
	parts := []string{title, count}
	if m.inflight > 0 {
		parts = append(parts, m.st.accent.Render("syncing…"))
	}
	if m.watching {
		parts = append(parts, m.st.muted.Render("live"))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderInputBar(title string) string {
	if m.inputErr != "" {
		title += "  " + m.st.err.Render(m.inputErr)
	}
	return m.st.inputBar.Width(max(m.width-6, 10)).Render(title + "\n" + m.input.View())
}

func (m Model) renderViewModal() string {
	bodyW := m.modalBodyWidth()
	body := renderMarkdown(m.staged.Name, bodyW)
	if maxLines := m.height - 10; maxLines > 3 {
		body = clampLines(body, maxLines)
	}
	help := m.st.help.Render("esc/enter: close")
	return m.renderModalBox("Dream", body+"\n\n"+help)
}

func (m Model) renderUpdateModal() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	if m.inputErr != "" {
		b.WriteString("\n" + m.st.err.Render(m.inputErr))
	}
	b.WriteString("\n\n" + m.st.help.Render("enter: save   esc: cancel"))
	return m.renderModalBox("Edit dream", b.String())
}

func (m Model) renderDeleteModal() string {
	bodyW := m.modalBodyWidth()
	name := strings.SplitN(m.staged.Name, "\n", 2)[0]
	body := "Delete " + m.st.danger.Render(ui.Truncate(name, max(bodyW-10, 8))) + " ?"

	confirm := m.st.button.Render("Delete")
	cancel := m.st.button.Render("Cancel")
	if m.focus == focusConfirm {
		confirm = m.st.buttonOn.Render("Delete")
	} else {
		cancel = m.st.buttonOn.Render("Cancel")
	}
	controls := lipgloss.JoinHorizontal(lipgloss.Top, confirm, " ", cancel)
	help := m.st.help.Render("tab: focus   enter: select   y/n   esc: cancel")

	return m.renderModalBox("Delete dream", strings.Join([]string{body, "", controls, "", help}, "\n"))
}

func (m Model) renderModalBox(title, content string) string {
	bodyW := m.modalBodyWidth()
	inner := m.st.modalTitle.Render(title) + "\n" + lipgloss.NewStyle().Width(bodyW).Render(content)
	return m.st.modalBox.Render(inner)
}

func (m Model) modalBodyWidth() int {
	w := m.width - 10
	if w > modalMaxWidth {
		w = modalMaxWidth
	}
	if w < modalMinWidth {
		w = modalMinWidth
	}
	return w
}

// overlay centres box over a dimmed copy of base.
func (m Model) overlay(base, box string) string {
	bg := strings.Split(dimBackground(base), "\n")
	for len(bg) < m.height {
		bg = append(bg, "")
	}
	fg := strings.Split(box, "\n")
	boxW := lipgloss.Width(box)
	x := max((m.width-boxW)/2, 0)
	y := max((len(bg)-len(fg))/2, 0)

	for i, line := range fg {
		row := y + i
		if row >= len(bg) {
			break
		}
		under := bg[row]
		if w := ansi.StringWidth(under); w < x+boxW {
			under += strings.Repeat(" ", x+boxW-w)
		}
		bg[row] = ansi.Cut(under, 0, x) + line + ansi.Cut(under, x+boxW, ansi.StringWidth(under))
	}
	return strings.Join(bg, "\n")
}

// dimBackground strips styling from s and renders it faint, so a modal on
// top stands out.
func dimBackground(s string) string {
	faint := lipgloss.NewStyle().Faint(true)
	lines := strings.Split(ansi.Strip(s), "\n")
	for i, ln := range lines {
		lines[i] = faint.Render(ln)
	}
	return strings.Join(lines, "\n")
}

func (m Model) panel(inner string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.Color(ui.Current().HexMuted)).
		Padding(0, 1).
		Render(inner)
}

// clampLines keeps the first n lines of s and marks the cut.
func clampLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	lines = lines[:n]
	last := lines[n-1]
	lines[n-1] = ansi.Truncate(last, max(ansi.StringWidth(last)-1, 0), "") + "…"
	return strings.Join(lines, "\n")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
