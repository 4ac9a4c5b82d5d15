package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/dreams/internal/model"
)

// Results of remote calls. Errors are already logged by the diary client;
// the model only uses them to decide whether to roll back.

type itemsLoadedMsg struct {
	items []model.Item
	err   error
}

type createdMsg struct {
	pendingID string
	item      model.Item
	err       error
}

type updatedMsg struct {
	id      string
	oldName string
	newName string
	err     error
}

type deletedMsg struct {
	item  model.Item
	index int
	err   error
}

type watchStartedMsg struct {
	ch  <-chan []model.Item
	ok  bool
	err error
}

type snapshotMsg struct {
	items []model.Item
}

type watchClosedMsg struct{}

func (m Model) loadCmd() tea.Cmd {
	d, ctx := m.diary, m.ctx
	return func() tea.Msg {
		items, err := d.ListAll(ctx)
		return itemsLoadedMsg{items: items, err: err}
	}
}

func (m Model) createCmd(pendingID, name string) tea.Cmd {
	d, ctx := m.diary, m.ctx
	return func() tea.Msg {
		it, err := d.Create(ctx, name)
		return createdMsg{pendingID: pendingID, item: it, err: err}
	}
}

func (m Model) updateCmd(id, oldName, newName string) tea.Cmd {
	d, ctx := m.diary, m.ctx
	return func() tea.Msg {
		err := d.Update(ctx, id, newName)
		return updatedMsg{id: id, oldName: oldName, newName: newName, err: err}
	}
}

func (m Model) deleteCmd(it model.Item, index int) tea.Cmd {
	d, ctx := m.diary, m.ctx
	return func() tea.Msg {
		err := d.Delete(ctx, it.ID)
		return deletedMsg{item: it, index: index, err: err}
	}
}

func (m Model) watchCmd() tea.Cmd {
	d, ctx := m.diary, m.ctx
	return func() tea.Msg {
		ch, ok, err := d.Watch(ctx)
		return watchStartedMsg{ch: ch, ok: ok, err: err}
	}
}

func waitSnapshot(ch <-chan []model.Item) tea.Cmd {
	return func() tea.Msg {
		items, ok := <-ch
		if !ok {
			return watchClosedMsg{}
		}
		return snapshotMsg{items: items}
	}
}
