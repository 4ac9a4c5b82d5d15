// Package tui is the interactive dream list: a Bubble Tea model that owns
// the local list, the new-entry input and the view, edit and delete modals.
//
// Mutations are applied to the local list straight away and rolled back
// per item when the remote call fails. When the backend has a changefeed,
// its snapshots replace the confirmed part of the list.
package tui

import (
	"context"
	"os"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/Makepad-fr/dreams/internal/model"
	"github.com/Makepad-fr/dreams/internal/ui"
)

// Diary is the Store Client surface the view needs.
type Diary interface {
	ListAll(ctx context.Context) ([]model.Item, error)
	Create(ctx context.Context, name string) (model.Item, error)
	Update(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	Watch(ctx context.Context) (<-chan []model.Item, bool, error)
}

type mode int

const (
	modeList mode = iota
	modeAdd
	modeDelete
	modeUpdate
	modeView
)

func (m mode) String() string {
	switch m {
	case modeAdd:
		return "add"
	case modeDelete:
		return "delete"
	case modeUpdate:
		return "update"
	case modeView:
		return "view"
	default:
		return "list"
	}
}

type confirmFocus int

const (
	focusConfirm confirmFocus = iota
	focusCancel
)

const inputCharLimit = 1000

type Model struct {
	ctx   context.Context
	diary Diary
	keys  keyMap
	st    styles

	list  list.Model
	items []model.Item

	mode     mode
	staged   *model.Item // item the open modal acts on
	input    textinput.Model
	inputErr string // validation hint for add/update
	focus    confirmFocus

	inflight int
	watching bool
	watchCh  <-chan []model.Item

	width, height int
	quitting      bool
}

// New builds the model. ctx bounds every remote call and the changefeed.
func New(ctx context.Context, d Diary) Model {
	st := newStyles(ui.Current())
	keys := defaultKeys()

	l := list.New(nil, itemDelegate{st: st}, 0, 0)
	l.Title = "✦ Dream Diary ✦"
	l.SetShowTitle(false)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()
	l.Styles.HelpStyle = st.help
	l.Styles.PaginationStyle = st.help
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("dream", "dreams")
	l.AdditionalShortHelpKeys = keys.listHelp
	l.AdditionalFullHelpKeys = keys.listHelp

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = inputCharLimit

	m := Model{
		ctx:   ctx,
		diary: d,
		keys:  keys,
		st:    st,
		list:  l,
		input: ti,
		// Init's first load counts as an in-flight call.
		inflight: 1,
	}
	m.width, m.height = initialSize()
	m.resize()
	return m
}

// Items returns the local list.
func (m Model) Items() []model.Item { return m.items }

// Staged returns the item the open modal acts on, if any.
func (m Model) Staged() (model.Item, bool) {
	if m.staged == nil {
		return model.Item{}, false
	}
	return *m.staged, true
}

// Init fetches the collection and subscribes to the changefeed.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.watchCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case itemsLoadedMsg:
		m.inflight--
		if msg.err != nil {
			// Keep the stale list; the client already logged the failure.
			return m, nil
		}
		return m, m.setItems(withPending(msg.items, m.items))

	case watchStartedMsg:
		if msg.err != nil || !msg.ok {
			return m, nil
		}
		m.watching = true
		m.watchCh = msg.ch
		return m, waitSnapshot(msg.ch)

	case snapshotMsg:
		cmd := m.setItems(withPending(msg.items, m.items))
		return m, tea.Batch(cmd, waitSnapshot(m.watchCh))

	case watchClosedMsg:
		m.watching = false
		m.watchCh = nil
		return m, nil

	case createdMsg:
		m.inflight--
		return m, m.applyCreated(msg)

	case updatedMsg:
		m.inflight--
		return m, m.applyUpdated(msg)

	case deletedMsg:
		m.inflight--
		return m, m.applyDeleted(msg)

	case tea.KeyMsg:
		switch m.mode {
		case modeAdd:
			return m.updateAdd(msg)
		case modeUpdate:
			return m.updateEdit(msg)
		case modeDelete:
			return m.updateDelete(msg)
		case modeView:
			return m.updateView(msg)
		}
		return m.updateList(msg)
	}

	// Cursor blink and other input ticks while the text input has focus.
	var inputCmd tea.Cmd
	if m.mode == modeAdd || m.mode == modeUpdate {
		m.input, inputCmd = m.input.Update(msg)
	}
	var listCmd tea.Cmd
	m.list, listCmd = m.list.Update(msg)
	return m, batch(inputCmd, listCmd)
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While the filter prompt is open every key belongs to it.
	if m.list.SettingFilter() {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.inputErr = ""
		m.input.SetValue("")
		m.input.Placeholder = "New dream..."
		m.resize()
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Refresh):
		m.inflight++
		return m, m.loadCmd()

	case key.Matches(msg, m.keys.View):
		if it, ok := m.selected(); ok {
			m.openModal(modeView, it)
		}
		return m, nil

	case key.Matches(msg, m.keys.Edit):
		it, ok := m.selected()
		if !ok || isPending(it.ID) {
			return m, nil
		}
		m.openModal(modeUpdate, it)
		m.input.SetValue(it.Name)
		m.input.CursorEnd()
		m.input.Placeholder = "New name..."
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Delete):
		it, ok := m.selected()
		if !ok || isPending(it.ID) {
			return m, nil
		}
		m.openModal(modeDelete, it)
		m.focus = focusConfirm
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// add mode
func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeModal()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		name, err := model.NormalizeName(m.input.Value())
		if err != nil {
			m.inputErr = "A dream cannot be empty"
			return m, nil
		}
		pending := model.Item{ID: pendingPrefix + uuid.NewString(), Name: name}
		setCmd := m.setItems(append(cloneItems(m.items), pending))
		m.closeModal()
		m.inflight++
		return m, batch(m.createCmd(pending.ID, name), setCmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// update modal
func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeModal()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		name, err := model.NormalizeName(m.input.Value())
		if err != nil {
			m.inputErr = "A dream cannot be empty"
			return m, nil
		}
		staged := *m.staged
		m.closeModal()
		i := model.IndexOf(m.items, staged.ID)
		if i < 0 {
			// Removed by a snapshot while the modal was open.
			return m, nil
		}
		oldName := m.items[i].Name
		next := cloneItems(m.items)
		next[i].Name = name
		setCmd := m.setItems(next)
		m.inflight++
		return m, batch(m.updateCmd(staged.ID, oldName, name), setCmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// delete modal
func (m Model) updateDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.No):
		m.closeModal()
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusConfirm {
			m.focus = focusCancel
		} else {
			m.focus = focusConfirm
		}
		return m, nil

	case key.Matches(msg, m.keys.Yes),
		key.Matches(msg, m.keys.Confirm) && m.focus == focusConfirm:
		staged := *m.staged
		m.closeModal()
		i := model.IndexOf(m.items, staged.ID)
		if i < 0 {
			return m, nil
		}
		removed := m.items[i]
		next := append(cloneItems(m.items[:i]), m.items[i+1:]...)
		setCmd := m.setItems(next)
		m.inflight++
		return m, batch(m.deleteCmd(removed, i), setCmd)

	case key.Matches(msg, m.keys.Confirm):
		// enter on the cancel button
		m.closeModal()
		return m, nil
	}
	return m, nil
}

// view modal
func (m Model) updateView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Confirm), key.Matches(msg, m.keys.Quit):
		m.closeModal()
	}
	return m, nil
}

func (m *Model) openModal(md mode, it model.Item) {
	staged := it
	m.mode = md
	m.staged = &staged
	m.inputErr = ""
}

func (m *Model) closeModal() {
	m.mode = modeList
	m.staged = nil
	m.inputErr = ""
	m.focus = focusConfirm
	m.input.SetValue("")
	m.input.Blur()
	m.resize()
}

func (m Model) selected() (model.Item, bool) {
	li, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Item{}, false
	}
	return li.item, true
}

func (m *Model) applyCreated(msg createdMsg) tea.Cmd {
	next := cloneItems(m.items)
	i := model.IndexOf(next, msg.pendingID)
	switch {
	case msg.err != nil:
		if i < 0 {
			return nil
		}
		next = append(next[:i], next[i+1:]...)
	case i >= 0 && model.IndexOf(next, msg.item.ID) >= 0:
		// A snapshot delivered the stored item first.
		next = append(next[:i], next[i+1:]...)
	case i >= 0:
		next[i] = msg.item
	case model.IndexOf(next, msg.item.ID) < 0:
		next = append(next, msg.item)
	default:
		return nil
	}
	return m.setItems(next)
}

func (m *Model) applyUpdated(msg updatedMsg) tea.Cmd {
	if msg.err == nil {
		return nil
	}
	i := model.IndexOf(m.items, msg.id)
	if i < 0 || m.items[i].Name != msg.newName {
		return nil
	}
	next := cloneItems(m.items)
	next[i].Name = msg.oldName
	return m.setItems(next)
}

func (m *Model) applyDeleted(msg deletedMsg) tea.Cmd {
	if msg.err == nil || model.IndexOf(m.items, msg.item.ID) >= 0 {
		return nil
	}
	idx := min(msg.index, len(m.items))
	next := make([]model.Item, 0, len(m.items)+1)
	next = append(next, m.items[:idx]...)
	next = append(next, msg.item)
	next = append(next, m.items[idx:]...)
	return m.setItems(next)
}

func (m *Model) setItems(items []model.Item) tea.Cmd {
	m.items = items
	return m.list.SetItems(toListItems(items))
}

func (m *Model) resize() {
	listHeight := m.height - 4
	if m.mode == modeAdd {
		listHeight -= 4
	}
	m.list.SetSize(max(m.width-2, 0), max(listHeight, 0))
	m.input.Width = max(m.width-10, 10)
}

// withPending keeps unconfirmed local creates on top of a fresh listing.
func withPending(fresh, local []model.Item) []model.Item {
	out := cloneItems(fresh)
	for _, it := range local {
		if isPending(it.ID) {
			out = append(out, it)
		}
	}
	return out
}

func cloneItems(items []model.Item) []model.Item {
	out := make([]model.Item, len(items))
	copy(out, items)
	return out
}

func batch(cmds ...tea.Cmd) tea.Cmd {
	var keep []tea.Cmd
	for _, c := range cmds {
		if c != nil {
			keep = append(keep, c)
		}
	}
	switch len(keep) {
	case 0:
		return nil
	case 1:
		return keep[0]
	}
	return tea.Batch(keep...)
}

func initialSize() (int, int) {
	w, h := 80, 24
	if tw, th, err := term.GetSize(int(os.Stdout.Fd())); err == nil && tw > 0 && th > 0 {
		w, h = tw, th
	}
	return w, h
}
