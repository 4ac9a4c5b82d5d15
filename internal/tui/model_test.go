package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/dreams/internal/model"
)

var errBoom = errors.New("boom")

type fakeDiary struct {
	mu        sync.Mutex
	items     []model.Item
	next      int
	creates   int
	updates   int
	deletes   int
	createErr error
	updateErr error
	deleteErr error
	feed      chan []model.Item
}

func (f *fakeDiary) ListAll(context.Context) ([]model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneItems(f.items), nil
}

func (f *fakeDiary) Create(_ context.Context, name string) (model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return model.Item{}, f.createErr
	}
	f.next++
	it := model.Item{ID: fmt.Sprintf("id-%d", f.next), Name: name}
	f.items = append(f.items, it)
	return it, nil
}

func (f *fakeDiary) Update(_ context.Context, id, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	if i := model.IndexOf(f.items, id); i >= 0 {
		f.items[i].Name = name
	}
	return nil
}

func (f *fakeDiary) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if i := model.IndexOf(f.items, id); i >= 0 {
		f.items = append(f.items[:i], f.items[i+1:]...)
	}
	return nil
}

func (f *fakeDiary) Watch(context.Context) (<-chan []model.Item, bool, error) {
	if f.feed == nil {
		return nil, false, nil
	}
	return f.feed, true, nil
}

func seeded(names ...string) *fakeDiary {
	f := &fakeDiary{}
	for _, n := range names {
		f.next++
		f.items = append(f.items, model.Item{ID: fmt.Sprintf("id-%d", f.next), Name: n})
	}
	return f
}

// start builds a model and applies its initial load.
func start(t *testing.T, d Diary) Model {
	t.Helper()
	m := New(context.Background(), d)
	return drain(t, m, m.Init())
}

// drain runs cmd and every command it produces, feeding this package's
// messages back into the model. Commands that do not answer quickly
// (cursor blink, an idle changefeed) are abandoned.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg, ok := execCmd(c)
		if !ok {
			continue
		}
		switch msg := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case itemsLoadedMsg, createdMsg, updatedMsg, deletedMsg, watchStartedMsg, snapshotMsg, watchClosedMsg:
			next, c2 := m.Update(msg)
			m = next.(Model)
			queue = append(queue, c2)
		}
	}
	return m
}

func execCmd(c tea.Cmd) (tea.Msg, bool) {
	out := make(chan tea.Msg, 1)
	go func() { out <- c() }()
	select {
	case msg := <-out:
		return msg, true
	case <-time.After(100 * time.Millisecond):
		return nil, false
	}
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyPress(k))
		m = next.(Model)
	}
	return m, cmd
}

func names(items []model.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func TestInitLoadsCollection(t *testing.T) {
	m := start(t, seeded("flying", "falling"))
	assert.Equal(t, []string{"flying", "falling"}, names(m.Items()))
	assert.Equal(t, 0, m.inflight)
	assert.Equal(t, modeList, m.mode)
}

func TestAddShowsPendingThenConfirmed(t *testing.T) {
	d := seeded()
	m := start(t, d)

	m, _ = press(m, "a")
	require.Equal(t, modeAdd, m.mode)
	m, _ = press(m, "  ocean at night  ")
	m, cmd := press(m, "enter")

	require.Len(t, m.Items(), 1)
	assert.True(t, isPending(m.Items()[0].ID))
	assert.Equal(t, "ocean at night", m.Items()[0].Name)
	assert.Equal(t, modeList, m.mode)
	assert.Contains(t, ansi.Strip(m.View()), "syncing")

	m = drain(t, m, cmd)
	assert.Equal(t, 1, d.creates)
	assert.Equal(t, []model.Item{{ID: "id-1", Name: "ocean at night"}}, m.Items())
	assert.Equal(t, 0, m.inflight)
}

func TestAddBlankIsRejectedLocally(t *testing.T) {
	d := seeded("flying")
	m := start(t, d)

	m, _ = press(m, "a", "   ")
	m, cmd := press(m, "enter")

	assert.Nil(t, cmd)
	assert.Equal(t, modeAdd, m.mode)
	assert.NotEmpty(t, m.inputErr)
	assert.Equal(t, 0, d.creates)
	assert.Len(t, m.Items(), 1)
}

func TestAddEscCancels(t *testing.T) {
	d := seeded()
	m := start(t, d)

	m, _ = press(m, "a", "lost", "esc")
	assert.Equal(t, modeList, m.mode)
	assert.Empty(t, m.input.Value())
	assert.Equal(t, 0, d.creates)
}

func TestCreateFailureRemovesPending(t *testing.T) {
	d := seeded("flying")
	d.createErr = errBoom
	m := start(t, d)

	m, _ = press(m, "a", "teeth falling out")
	m, cmd := press(m, "enter")
	require.Len(t, m.Items(), 2)

	m = drain(t, m, cmd)
	assert.Equal(t, []string{"flying"}, names(m.Items()))
	assert.NotContains(t, m.View(), "boom")
}

func TestEditUpdatesInPlace(t *testing.T) {
	d := seeded("flying", "falling")
	m := start(t, d)

	m, _ = press(m, "e")
	require.Equal(t, modeUpdate, m.mode)
	staged, ok := m.Staged()
	require.True(t, ok)
	assert.Equal(t, "id-1", staged.ID)
	assert.Equal(t, "flying", m.input.Value())

	m.input.SetValue("  soaring ")
	m, cmd := press(m, "enter")
	assert.Equal(t, modeList, m.mode)
	_, ok = m.Staged()
	assert.False(t, ok)
	assert.Equal(t, []model.Item{{ID: "id-1", Name: "soaring"}, {ID: "id-2", Name: "falling"}}, m.Items())

	m = drain(t, m, cmd)
	assert.Equal(t, 1, d.updates)
	assert.Equal(t, "soaring", d.items[0].Name)
	assert.Equal(t, "soaring", m.Items()[0].Name)
}

func TestEditBlankKeepsModalOpen(t *testing.T) {
	d := seeded("flying")
	m := start(t, d)

	m, _ = press(m, "e")
	m.input.SetValue("  ")
	m, cmd := press(m, "enter")
	assert.Nil(t, cmd)
	assert.Equal(t, modeUpdate, m.mode)
	assert.NotEmpty(t, m.inputErr)
	assert.Equal(t, 0, d.updates)
}

func TestEditFailureRestoresName(t *testing.T) {
	d := seeded("flying")
	d.updateErr = errBoom
	m := start(t, d)

	m, _ = press(m, "e")
	m.input.SetValue("soaring")
	m, cmd := press(m, "enter")
	require.Equal(t, "soaring", m.Items()[0].Name)

	m = drain(t, m, cmd)
	assert.Equal(t, "flying", m.Items()[0].Name)
}

func TestUpdateFailureKeepsNewerLocalEdit(t *testing.T) {
	m := start(t, seeded("flying"))
	next, _ := m.Update(updatedMsg{id: "id-1", oldName: "gliding", newName: "soaring", err: errBoom})
	m = next.(Model)
	assert.Equal(t, "flying", m.Items()[0].Name)
}

func TestDeleteConfirmWithY(t *testing.T) {
	d := seeded("flying", "falling")
	m := start(t, d)

	m, _ = press(m, "down", "d")
	require.Equal(t, modeDelete, m.mode)
	m, cmd := press(m, "y")
	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, []string{"flying"}, names(m.Items()))

	m = drain(t, m, cmd)
	assert.Equal(t, 1, d.deletes)
	assert.Equal(t, []string{"flying"}, names(d.items))
}

func TestDeleteConfirmWithEnter(t *testing.T) {
	d := seeded("flying")
	m := start(t, d)

	m, _ = press(m, "d")
	m, cmd := press(m, "enter")
	m = drain(t, m, cmd)
	assert.Empty(t, m.Items())
	assert.Equal(t, 1, d.deletes)
}

func TestDeleteCancel(t *testing.T) {
	for _, keys := range [][]string{{"n"}, {"esc"}, {"tab", "enter"}} {
		t.Run(strings.Join(keys, "+"), func(t *testing.T) {
			d := seeded("flying")
			m := start(t, d)

			m, _ = press(m, "d")
			m, cmd := press(m, keys...)
			assert.Nil(t, cmd)
			assert.Equal(t, modeList, m.mode)
			assert.Len(t, m.Items(), 1)
			assert.Equal(t, 0, d.deletes)
		})
	}
}

func TestDeleteFailureReinsertsAtIndex(t *testing.T) {
	d := seeded("a", "b", "c")
	d.deleteErr = errBoom
	m := start(t, d)

	m, _ = press(m, "down", "d")
	m, cmd := press(m, "y")
	require.Equal(t, []string{"a", "c"}, names(m.Items()))
	m = drain(t, m, cmd)
	if diff := cmp.Diff([]string{"a", "b", "c"}, names(m.Items())); diff != "" {
		t.Fatalf("items after rollback (-want +got):\n%s", diff)
	}
}

func TestPendingItemsCannotBeEditedOrDeleted(t *testing.T) {
	m := start(t, seeded())
	m, _ = press(m, "a", "half remembered")
	m, _ = press(m, "enter") // create is never run

	m, cmd := press(m, "e")
	assert.Nil(t, cmd)
	assert.Equal(t, modeList, m.mode)

	m, _ = press(m, "d")
	assert.Equal(t, modeList, m.mode)

	m, _ = press(m, "v")
	assert.Equal(t, modeView, m.mode)
}

func TestViewModalRendersEntry(t *testing.T) {
	m := start(t, seeded("**flying** over rooftops"))

	m, _ = press(m, "enter")
	require.Equal(t, modeView, m.mode)
	out := ansi.Strip(m.renderViewModal())
	assert.Contains(t, out, "flying")
	assert.Contains(t, out, "rooftops")
	assert.NotContains(t, out, "**")
	// The raw list row stays visible behind the modal.
	assert.Contains(t, ansi.Strip(m.View()), "**flying** over rooftops")

	m, _ = press(m, "esc")
	assert.Equal(t, modeList, m.mode)
	_, ok := m.Staged()
	assert.False(t, ok)
}

func TestModalStagesSelectedAndCancelLeavesList(t *testing.T) {
	tests := []struct {
		key  string
		mode mode
		typ  string
	}{
		{key: "v", mode: modeView},
		{key: "e", mode: modeUpdate, typ: " and more"},
		{key: "d", mode: modeDelete},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			d := seeded("a", "b", "c")
			m := start(t, d)
			before := cloneItems(m.Items())

			m, _ = press(m, "down", tt.key)
			require.Equal(t, tt.mode, m.mode)
			staged, ok := m.Staged()
			require.True(t, ok)
			assert.Equal(t, model.Item{ID: "id-2", Name: "b"}, staged)

			if tt.typ != "" {
				require.Equal(t, "b", m.input.Value())
				m, _ = press(m, tt.typ)
				require.Equal(t, "b"+tt.typ, m.input.Value())
			}
			m, cmd := press(m, "esc")
			assert.Nil(t, cmd)
			assert.Equal(t, modeList, m.mode)
			_, ok = m.Staged()
			assert.False(t, ok)
			assert.Equal(t, before, m.Items())
			assert.Equal(t, 0, d.creates+d.updates+d.deletes)
		})
	}
}

func TestModalKeepsListVisible(t *testing.T) {
	m := start(t, seeded("flying", "falling"))

	m, _ = press(m, "down", "d")
	require.Equal(t, modeDelete, m.mode)
	out := ansi.Strip(m.View())
	assert.Contains(t, out, "Delete dream")
	assert.Contains(t, out, "2 dreams")
}

func TestInputReceivesCursorBlink(t *testing.T) {
	m := start(t, seeded("a"))

	m, cmd := press(m, "a")
	require.NotNil(t, cmd)
	blink := cmd() // fires after the blink interval

	before := m.input.Cursor.Blink
	next, cmd := m.Update(blink)
	m = next.(Model)
	assert.NotNil(t, cmd, "the input schedules the next blink")
	assert.NotEqual(t, before, m.input.Cursor.Blink)
}

func TestHeaderShowsCount(t *testing.T) {
	m := start(t, seeded("a", "b"))
	assert.Contains(t, ansi.Strip(m.View()), "2 dreams")
}

func TestRefreshReloads(t *testing.T) {
	d := seeded("a")
	m := start(t, d)

	d.items = append(d.items, model.Item{ID: "x", Name: "from elsewhere"})
	m, cmd := press(m, "r")
	m = drain(t, m, cmd)
	assert.Equal(t, []string{"a", "from elsewhere"}, names(m.Items()))
}

func TestSnapshotKeepsPending(t *testing.T) {
	m := start(t, seeded("a"))
	m, _ = press(m, "a", "local only")
	m, _ = press(m, "enter")

	next, _ := m.Update(snapshotMsg{items: []model.Item{{ID: "id-1", Name: "a"}, {ID: "id-9", Name: "remote"}}})
	m = next.(Model)
	assert.Equal(t, []string{"a", "remote", "local only"}, names(m.Items()))
}

func TestCreatedAfterSnapshotDropsPending(t *testing.T) {
	m := start(t, seeded())
	m, _ = press(m, "a", "dream")
	m, _ = press(m, "enter")
	pendingID := m.Items()[0].ID

	stored := model.Item{ID: "id-7", Name: "dream"}
	next, _ := m.Update(snapshotMsg{items: []model.Item{stored}})
	m = next.(Model)
	next, _ = m.Update(createdMsg{pendingID: pendingID, item: stored})
	m = next.(Model)
	assert.Equal(t, []model.Item{stored}, m.Items())
}

func TestChangefeedDeliversSnapshots(t *testing.T) {
	d := seeded("a")
	d.feed = make(chan []model.Item, 1)
	m := New(context.Background(), d)

	d.feed <- []model.Item{{ID: "id-1", Name: "a"}, {ID: "id-2", Name: "b"}}
	m = drain(t, m, m.Init())
	assert.True(t, m.watching)
	assert.Equal(t, []string{"a", "b"}, names(m.Items()))

	close(d.feed)
	m = drain(t, m, waitSnapshot(d.feed))
	assert.False(t, m.watching)
}

func TestFilterCapturesKeys(t *testing.T) {
	d := seeded("flying", "falling")
	m := start(t, d)

	m, _ = press(m, "/")
	require.True(t, m.list.SettingFilter())
	m, _ = press(m, "a")
	assert.Equal(t, modeList, m.mode)
}

func TestQuit(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		m := start(t, seeded())
		m, cmd := press(m, k)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.Empty(t, m.View())
	}
}
