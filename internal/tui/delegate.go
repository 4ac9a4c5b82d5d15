package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/dreams/internal/model"
	"github.com/Makepad-fr/dreams/internal/ui"
)

const pendingPrefix = "pending-"

// listItem adapts model.Item to bubbles/list.Item
type listItem struct {
	item model.Item
}

func (i listItem) pending() bool { return isPending(i.item.ID) }

// Implement list.Item interface
func (i listItem) Title() string       { return i.item.Name }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.item.Name }

func isPending(id string) bool { return strings.HasPrefix(id, pendingPrefix) }

func toListItems(items []model.Item) []list.Item {
	out := make([]list.Item, 0, len(items))
	for _, it := range items {
		out = append(out, listItem{item: it})
	}
	return out
}

// Custom delegate to control how items render (single line)
type itemDelegate struct {
	st styles
}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}

	// Entries can be multi-line; the list shows the first line only.
	text := strings.SplitN(it.item.Name, "\n", 2)[0]
	if width := m.Width() - 4; width > 0 {
		text = ui.Truncate(text, width)
	}

	bullet := d.st.accent.Render(ui.Current().Bullet)
	if it.pending() {
		text = d.st.pending.Render(text)
	}

	prefix := "  "
	if index == m.Index() {
		prefix = d.st.selected.Render("> ")
	}
	fmt.Fprint(w, prefix+bullet+" "+text)
}
