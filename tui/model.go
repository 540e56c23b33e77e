package tui

import (
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"go-rolledit/debug"
	"go-rolledit/editor"
	"go-rolledit/history"
	"go-rolledit/midi"
	"go-rolledit/project"
	"go-rolledit/score"
	"go-rolledit/theme"
)

const (
	gutterWidth = 5  // note name + key strip
	gridTop     = 2  // header + blank line
	panelWidth  = 28 // history panel
	footerLines = 3
)

// Options configure the terminal surface
type Options struct {
	Theme         *theme.Theme
	Keys          KeyMap
	ExportPath    string         // target of the export key; empty disables it
	Store         *project.Store // snapshot store; nil disables snapshots and autosave
	Project       string
	Autosave      bool
	AutosaveDelay time.Duration
	NoteLength    float64 // length of added notes in seconds
}

// Model is the bubbletea piano roll. The editor's layout must be a cell
// layout: one row per pitch, TimeScale columns per second.
type Model struct {
	Editor *editor.Editor
	Theme  *theme.Theme

	keys     KeyMap
	opts     Options
	saver    *autosaver
	unsub    func()
	width    int
	height   int
	left     int // first visible column
	top      int // pitch of the first visible row
	curCol   int
	curPitch int
	track    int // track new notes go to
	length   float64
	grouping bool
	showHelp bool
	status   string
	quitting bool
}

func NewModel(ed *editor.Editor, opts Options) Model {
	if opts.Theme == nil {
		opts.Theme = theme.New(nil)
	}
	if opts.Keys.Quit.Keys() == nil {
		opts.Keys = DefaultKeyMap()
	}
	if opts.NoteLength <= 0 {
		opts.NoteLength = 0.25
	}

	m := Model{
		Editor:   ed,
		Theme:    opts.Theme,
		keys:     opts.Keys,
		opts:     opts,
		width:    100,
		height:   30,
		top:      72,
		curPitch: 60,
		length:   opts.NoteLength,
	}

	// start on the first note
	if notes := ed.Document().Notes(); len(notes) > 0 {
		first := notes[0]
		for _, n := range notes {
			if n.Time < first.Time {
				first = n
			}
		}
		m.curPitch = first.Midi
		m.curCol = int(ed.Layout().TimeToX(first.Time))
		m.top = min(score.MaxPitch, first.Midi+m.rows()/2)
	}
	m.scrollToCursor()

	if opts.Store != nil && opts.Autosave {
		saver := newAutosaver(opts.Store, opts.Project, opts.AutosaveDelay)
		hist := ed.History()
		m.saver = saver
		m.unsub = hist.OnChange(func(history.Status) {
			saver.schedule(hist.Snapshot())
		})
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.saver == nil {
		return nil
	}
	return ListenForSaves(m.saver.out)
}

func (m Model) rows() int {
	return max(1, m.height-gridTop-footerLines)
}

func (m Model) cols() int {
	return max(1, m.width-gutterWidth-panelWidth-1)
}

// cellToLayout maps a grid cell to the centre of that cell in layout space
func (m Model) cellToLayout(col, row int) (x, y float64) {
	l := m.Editor.Layout()
	return float64(m.left+col) + 0.5, float64(l.TopPitch()-m.top+row) + 0.5
}

// screenToLayout maps a terminal position; ok is false outside the grid
func (m Model) screenToLayout(sx, sy int) (x, y float64, ok bool) {
	col, row := sx-gutterWidth, sy-gridTop
	x, y = m.cellToLayout(col, row)
	ok = col >= 0 && row >= 0 && col < m.cols() && row < m.rows()
	return x, y, ok
}

func (m Model) cursorXY() (x, y float64) {
	l := m.Editor.Layout()
	return float64(m.curCol) + 0.5, l.PitchToY(m.curPitch) + 0.5
}

// step is the time of one column
func (m Model) step() float64 {
	return m.Editor.Layout().XToTime(1)
}

func (m *Model) scrollToCursor() {
	rows, cols := m.rows(), m.cols()
	if m.curCol < m.left {
		m.left = m.curCol
	}
	if m.curCol >= m.left+cols {
		m.left = m.curCol - cols + 1
	}
	if m.curPitch > m.top {
		m.top = m.curPitch
	}
	if m.curPitch <= m.top-rows {
		m.top = m.curPitch + rows - 1
	}
	m.top = min(score.MaxPitch, max(m.top, rows-1))
}

func (m Model) noteAtCursor() (track, index int, n *score.Note, ok bool) {
	x, y := m.cursorXY()
	n, ok = m.Editor.NoteAt(x, y)
	if !ok {
		return -1, -1, nil, false
	}
	track, index, ok = m.Editor.Locate(n)
	return track, index, n, ok
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.scrollToCursor()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case SavedMsg:
		if msg.Err != nil {
			m.status = "autosave failed: " + msg.Err.Error()
		} else {
			m.status = "saved " + msg.Info.Filename
		}
		return m, ListenForSaves(m.saver.out)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	hist := m.Editor.History()

	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		m.Editor.CancelDrag()
		if m.unsub != nil {
			m.unsub()
		}
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Cancel) {
		m.Editor.CancelDrag()
		return m, nil
	}
	if m.Editor.HandleKey(msg.String()) {
		if hist.BatchDepth() > 0 {
			m.status = "close the group (g) before undo/redo"
		} else {
			m.status = ""
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Left):
		m.curCol = max(0, m.curCol-1)
	case key.Matches(msg, m.keys.Right):
		m.curCol++
	case key.Matches(msg, m.keys.Up):
		m.curPitch = min(score.MaxPitch, m.curPitch+1)
	case key.Matches(msg, m.keys.Down):
		m.curPitch = max(score.MinPitch, m.curPitch-1)

	case key.Matches(msg, m.keys.Add):
		x, y := m.cursorXY()
		if !m.Editor.AddAt(m.track, x-0.5, y, m.length) {
			m.status = "cannot add a note here"
		}

	case key.Matches(msg, m.keys.Delete):
		x, y := m.cursorXY()
		m.Editor.DeleteAt(x, y)

	case key.Matches(msg, m.keys.Shorter), key.Matches(msg, m.keys.Longer):
		delta := m.step()
		if key.Matches(msg, m.keys.Shorter) {
			delta = -delta
		}
		m.resize(delta)

	case key.Matches(msg, m.keys.Earlier), key.Matches(msg, m.keys.Later):
		delta := m.step()
		if key.Matches(msg, m.keys.Earlier) {
			delta = -delta
		}
		m.retime(delta)

	case key.Matches(msg, m.keys.Track):
		i := int(msg.String()[0] - '1')
		if t, ok := m.Editor.Document().Track(i); ok {
			hist.ToggleTrackVisibility(i, !t.Visible)
		}

	case key.Matches(msg, m.keys.NextTrack):
		if n := len(m.Editor.Document().Tracks); n > 0 {
			m.track = (m.track + 1) % n
		}

	case key.Matches(msg, m.keys.Group):
		if m.grouping {
			hist.EndBatch()
			m.status = "group recorded"
		} else {
			hist.BeginBatch("Group edit")
			m.status = "grouping edits"
		}
		m.grouping = !m.grouping

	case key.Matches(msg, m.keys.Reset):
		m.Editor.Reset()
		m.grouping = false
		m.status = "reset to loaded document"

	case key.Matches(msg, m.keys.Export):
		m.export()

	case key.Matches(msg, m.keys.Snapshot):
		m.snapshot()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	}

	m.scrollToCursor()
	return m, nil
}

// resize changes the note under the cursor, or the length of new notes on
// empty space
func (m *Model) resize(delta float64) {
	track, i, n, ok := m.noteAtCursor()
	if !ok {
		m.length = max(m.step(), m.length+delta)
		m.status = fmt.Sprintf("new notes %.3fs", m.length)
		return
	}
	d := max(m.step(), n.Duration+delta)
	m.Editor.History().ModifyNote(track, i, history.NotePatch{Duration: &d})
}

func (m *Model) retime(delta float64) {
	track, i, n, ok := m.noteAtCursor()
	if !ok {
		return
	}
	t := max(0, n.Time+delta)
	if m.Editor.History().ModifyNoteTime(track, i, t) {
		m.curCol = int(math.Floor(m.Editor.Layout().TimeToX(t)))
	}
}

func (m *Model) export() {
	if m.opts.ExportPath == "" {
		m.status = "no export path"
		return
	}
	err := midi.Export(m.opts.ExportPath, m.Editor.History().Snapshot(), midi.ExportOptions{SkipHidden: true})
	if err != nil {
		m.status = "export failed: " + err.Error()
		return
	}
	m.status = "exported " + m.opts.ExportPath
}

func (m *Model) snapshot() {
	if m.opts.Store == nil {
		m.status = "no snapshot store"
		return
	}
	info, err := m.opts.Store.Save(m.opts.Project, "", m.Editor.History().Snapshot())
	if err != nil {
		m.status = "snapshot failed: " + err.Error()
		return
	}
	m.Editor.History().SetSavePoint()
	m.status = "snapshot " + info.Filename
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	x, y, inGrid := m.screenToLayout(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.top = min(score.MaxPitch, m.top+1)
		case tea.MouseButtonWheelDown:
			m.top = max(m.rows()-1, m.top-1)
		case tea.MouseButtonLeft:
			if !inGrid {
				return
			}
			m.moveCursor(x, y)
			m.Editor.BeginDrag(x, y)
		case tea.MouseButtonRight:
			if inGrid {
				m.Editor.DeleteAt(x, y)
			}
		}

	case tea.MouseActionMotion:
		if _, ok := m.Editor.Dragging(); ok {
			m.Editor.DragTo(x, y)
		}

	case tea.MouseActionRelease:
		if n, ok := m.Editor.Dragging(); ok {
			if m.Editor.EndDrag() {
				m.curPitch = n.Midi
				m.curCol = int(math.Floor(m.Editor.Layout().TimeToX(n.Time)))
				debug.Log("tui", "dropped %s at col %d", n.Name, m.curCol)
			}
		}
	}
}

func (m *Model) moveCursor(x, y float64) {
	l := m.Editor.Layout()
	m.curCol = max(0, int(math.Floor(x)))
	m.curPitch = score.Clamp(l.PitchAt(y), score.MinPitch, score.MaxPitch)
}

// Run starts the full-screen program and blocks until it quits
func Run(ed *editor.Editor, opts Options) error {
	p := tea.NewProgram(NewModel(ed, opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
