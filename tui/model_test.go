package tui

import (
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-rolledit/editor"
	"go-rolledit/midi"
	"go-rolledit/project"
	"go-rolledit/score"
	"go-rolledit/spatial"
)

// 8 columns per second, one row per pitch
var cellLayout = spatial.Layout{NoteHeight: 1, TimeScale: 8, PitchBase: 0, VisibleRange: 128, Bucket: 8}

func newModel(t *testing.T, opts Options) Model {
	t.Helper()
	doc := score.NewDocument("test")
	tr := doc.AddTrack("Piano")
	tr.Insert(&score.Note{Time: 1, Duration: 0.5, Midi: 60, Name: "C4", Velocity: 100}, -1)
	doc.AddTrack("Bass")

	eo := editor.DefaultOptions()
	eo.Layout = cellLayout
	eo.Tolerance = 0
	return NewModel(editor.New(doc, eo), opts)
}

// screen returns the terminal position of a cell
func screen(m Model, col, pitch int) (int, int) {
	return gutterWidth + col - m.left, gridTop + m.top - pitch
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func press(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func motion(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft}
}

func release(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestMouseDragRecordsOneEntry(t *testing.T) {
	m := newModel(t, Options{})
	hist := m.Editor.History()

	// grab the note one column into its body
	x, y := screen(m, 9, 60)
	m = update(m, press(x, y))
	_, dragging := m.Editor.Dragging()
	require.True(t, dragging)

	for col := 10; col <= 17; col++ {
		x, y = screen(m, col, 61)
		m = update(m, motion(x, y))
	}
	assert.Empty(t, hist.Entries(), "drag frames are not recorded")

	m = update(m, release(x, y))
	require.Len(t, hist.Entries(), 1)

	n, ok := m.Editor.Document().Note(0, 0)
	require.True(t, ok)
	assert.Equal(t, 2.0, n.Time)
	assert.Equal(t, 61, n.Midi)
	assert.Equal(t, "C#4", n.Name)
	assert.Equal(t, 61, m.curPitch)
	assert.Equal(t, 16, m.curCol)

	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlZ})
	n, _ = m.Editor.Document().Note(0, 0)
	assert.Equal(t, 1.0, n.Time)
	assert.Equal(t, 60, n.Midi)
}

func TestEscCancelsDrag(t *testing.T) {
	m := newModel(t, Options{})
	x, y := screen(m, 8, 60)
	m = update(m, press(x, y))
	x, y = screen(m, 20, 64)
	m = update(m, motion(x, y))
	m = update(m, tea.KeyMsg{Type: tea.KeyEsc})

	n, _ := m.Editor.Document().Note(0, 0)
	assert.Equal(t, 1.0, n.Time)
	assert.Equal(t, 60, n.Midi)
	assert.Empty(t, m.Editor.History().Entries())
}

func TestKeyboardEdits(t *testing.T) {
	m := newModel(t, Options{})
	doc := m.Editor.Document()
	hist := m.Editor.History()

	// cursor starts on the first note
	assert.Equal(t, 8, m.curCol)
	assert.Equal(t, 60, m.curPitch)

	m = update(m, runes("]"))
	n, _ := doc.Note(0, 0)
	assert.Equal(t, 0.625, n.Duration)

	m = update(m, runes(">"))
	assert.Equal(t, 1.125, n.Time)
	assert.Equal(t, 9, m.curCol, "cursor follows the note")

	m = update(m, runes("x"))
	assert.Empty(t, doc.Tracks[0].Notes)

	m = update(m, tea.KeyMsg{Type: tea.KeyTab})
	m = update(m, runes("a"))
	require.Len(t, doc.Tracks[1].Notes, 1)
	assert.Equal(t, 1.125, doc.Tracks[1].Notes[0].Time)
	assert.Equal(t, 0.25, doc.Tracks[1].Notes[0].Duration)

	m = update(m, runes("2"))
	assert.False(t, doc.Tracks[1].Visible)

	assert.Len(t, hist.Entries(), 5)
}

func TestGroupKeyBatchesEdits(t *testing.T) {
	m := newModel(t, Options{})
	hist := m.Editor.History()

	m = update(m, runes("g"))
	m = update(m, runes("x"))
	m = update(m, runes("k"))
	m = update(m, runes("a"))

	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlZ})
	assert.Equal(t, 1, hist.BatchDepth(), "undo is refused inside a group")

	m = update(m, runes("g"))
	require.Len(t, hist.Entries(), 1)
	assert.Len(t, hist.Entries()[0].Changes, 2)

	update(m, tea.KeyMsg{Type: tea.KeyCtrlZ})
	n, ok := m.Editor.Document().Note(0, 0)
	require.True(t, ok)
	assert.Equal(t, 60, n.Midi)
	assert.Len(t, m.Editor.Document().Tracks[0].Notes, 1)
}

func TestExportKey(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.mid")
	m := newModel(t, Options{ExportPath: out})
	m = update(m, runes("w"))
	assert.Equal(t, "exported "+out, m.status)

	doc, err := midi.Load(out)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.NoteCount())
}

func TestViewRendersGrid(t *testing.T) {
	m := newModel(t, Options{})
	m = update(m, tea.WindowSizeMsg{Width: 90, Height: 20})
	v := m.View()
	assert.Contains(t, v, "go-rolledit")
	assert.Contains(t, v, "■")
	assert.Contains(t, v, "original")
	assert.Contains(t, v, "Piano")

	m = update(m, runes("?"))
	assert.Contains(t, m.View(), "History")

	m = update(m, runes("q"))
	assert.Equal(t, "", m.View())
}

func TestAutosaveAfterQuietPeriod(t *testing.T) {
	store, err := project.NewStore(t.TempDir())
	require.NoError(t, err)
	m := newModel(t, Options{Store: store, Project: "song", Autosave: true, AutosaveDelay: 100 * time.Millisecond})
	require.NotNil(t, m.Init())

	m = update(m, runes("x"))
	m = update(m, runes("a"))

	select {
	case msg := <-m.saver.out:
		require.NoError(t, msg.Err)
		m = update(m, msg)
		assert.Contains(t, m.status, "saved")
	case <-time.After(2 * time.Second):
		t.Fatal("no autosave")
	}

	saves, err := store.ListSaves("song")
	require.NoError(t, err)
	assert.Len(t, saves, 1, "edits inside the delay coalesce")

	snap, err := store.Load("song", "")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Document.NoteCount())
}
