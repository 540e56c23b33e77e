package editor

import (
	"github.com/charmbracelet/bubbles/key"

	"go-rolledit/debug"
	"go-rolledit/history"
	"go-rolledit/score"
	"go-rolledit/spatial"
)

// Options configure geometry, hit tolerance, history bounds and shortcuts
type Options struct {
	Layout    spatial.Layout
	Tolerance float64
	History   history.Options
	Keys      KeyMap
}

func DefaultOptions() Options {
	return Options{
		Layout:    spatial.DefaultLayout(),
		Tolerance: 3,
		History:   history.DefaultOptions(),
		Keys:      DefaultKeyMap(),
	}
}

// drag is an in-progress gesture. before is the note as it was when the
// pointer went down; cancelling restores it.
type drag struct {
	track  int
	note   *score.Note
	before score.Note
	grab   float64 // pointer time minus note start at grab
	moves  int
}

// Editor ties pointer and keyboard input to the history manager and the
// spatial index. Per-frame drag updates bypass history; one change is
// recorded when the drag ends.
type Editor struct {
	history   *history.Manager
	index     *spatial.Index
	layout    spatial.Layout
	tolerance float64
	keys      KeyMap
	drag      *drag
}

// New creates an editor over a private copy of doc
func New(doc *score.Document, opts Options) *Editor {
	if opts.Layout == (spatial.Layout{}) {
		opts.Layout = spatial.DefaultLayout()
	}
	if opts.Keys.Undo.Keys() == nil {
		opts.Keys = DefaultKeyMap()
	}
	index := spatial.NewIndex(opts.Layout)
	return &Editor{
		history:   history.New(doc, index, opts.History),
		index:     index,
		layout:    opts.Layout,
		tolerance: opts.Tolerance,
		keys:      opts.Keys,
	}
}

func (e *Editor) History() *history.Manager { return e.history }

func (e *Editor) Index() *spatial.Index { return e.index }

func (e *Editor) Layout() spatial.Layout { return e.layout }

func (e *Editor) Keys() KeyMap { return e.keys }

// Document returns the live document; read it, never write it
func (e *Editor) Document() *score.Document { return e.history.Document() }

// SetLayout changes the geometry and rebuilds the index to match
func (e *Editor) SetLayout(l spatial.Layout) {
	e.CancelDrag()
	e.layout = l
	e.index.SetGeometry(l)
}

// Load replaces the document and clears history
func (e *Editor) Load(doc *score.Document) {
	e.CancelDrag()
	e.history.Load(doc)
}

// Reset returns to the loaded document
func (e *Editor) Reset() {
	e.CancelDrag()
	e.history.Reset()
}

func (e *Editor) trackVisible(n *score.Note) bool {
	t, ok := e.Document().Track(n.Track)
	return ok && t.Visible
}

// NoteAt returns the note of a visible track under (x, y)
func (e *Editor) NoteAt(x, y float64) (*score.Note, bool) {
	n := e.index.QueryFunc(x, y, e.tolerance, e.trackVisible)
	return n, n != nil
}

// Locate returns the track and position of a live note
func (e *Editor) Locate(n *score.Note) (track, index int, ok bool) {
	t, ok := e.Document().Track(n.Track)
	if !ok {
		return -1, -1, false
	}
	i := t.IndexOf(n)
	return n.Track, i, i >= 0
}

// Visible returns the notes of visible tracks inside view
func (e *Editor) Visible(view spatial.Rect) []*score.Note {
	all := e.index.Visible(view)
	out := all[:0]
	for _, n := range all {
		if e.trackVisible(n) {
			out = append(out, n)
		}
	}
	return out
}

// BeginDrag grabs the note under the pointer. Returns false on empty space.
func (e *Editor) BeginDrag(x, y float64) bool {
	e.CancelDrag()
	n, ok := e.NoteAt(x, y)
	if !ok {
		return false
	}
	e.drag = &drag{
		track:  n.Track,
		note:   n,
		before: *n,
		grab:   e.layout.XToTime(x) - n.Time,
	}
	debug.Log("editor", "drag start %s @%.3fs track %d", n.Name, n.Time, n.Track)
	return true
}

// Dragging returns the note being dragged
func (e *Editor) Dragging() (*score.Note, bool) {
	if e.drag == nil {
		return nil, false
	}
	return e.drag.note, true
}

// DragTo moves the grabbed note so the grab point follows the pointer. The
// pitch snaps to the row under the pointer and time never goes negative.
func (e *Editor) DragTo(x, y float64) bool {
	d := e.drag
	if d == nil {
		return false
	}
	v := *d.note
	v.Time = max(0, e.layout.XToTime(x)-d.grab)
	v.Midi = score.Clamp(e.layout.PitchAt(y), score.MinPitch, score.MaxPitch)
	if v.Time == d.note.Time && v.Midi == d.note.Midi {
		return false
	}
	if !e.history.Preview(d.track, d.note, v) {
		return false
	}
	d.moves++
	debug.LogEvery(30, "editor", "drag %s -> %.3fs", d.note.Name, d.note.Time)
	return true
}

// EndDrag records the finished gesture as one change. A drag that ends
// where it started records nothing.
func (e *Editor) EndDrag() bool {
	d := e.drag
	if d == nil {
		return false
	}
	e.drag = nil
	if *d.note == d.before {
		return false
	}
	ok := e.history.RecordNoteDrag(d.track, d.before, *d.note)
	debug.Log("editor", "drag end %s @%.3fs after %d moves (recorded=%t)", d.note.Name, d.note.Time, d.moves, ok)
	return ok
}

// CancelDrag puts the grabbed note back where it started
func (e *Editor) CancelDrag() {
	d := e.drag
	if d == nil {
		return
	}
	e.drag = nil
	if *d.note != d.before {
		e.history.Preview(d.track, d.note, d.before)
	}
	debug.Log("editor", "drag cancelled")
}

// AddAt adds a note on track at the pointer position
func (e *Editor) AddAt(track int, x, y, duration float64) bool {
	if duration <= 0 {
		duration = 0.25
	}
	time := max(0, e.layout.XToTime(x))
	pitch := score.Clamp(e.layout.PitchAt(y), score.MinPitch, score.MaxPitch)
	return e.history.AddNote(track, score.NewNote(time, duration, pitch), -1)
}

// DeleteAt removes the visible note under the pointer
func (e *Editor) DeleteAt(x, y float64) bool {
	n, ok := e.NoteAt(x, y)
	if !ok {
		return false
	}
	track, i, ok := e.Locate(n)
	if !ok {
		return false
	}
	return e.history.DeleteNote(track, i)
}

// HandleKey runs the history shortcut bound to k and reports whether the
// key was consumed. Shortcuts cancel any drag in progress.
func (e *Editor) HandleKey(k string) bool {
	name := keyName(NormalizeKey(k))
	switch {
	case key.Matches(name, e.keys.Undo):
		e.CancelDrag()
		e.history.Undo()
	case key.Matches(name, e.keys.Redo):
		e.CancelDrag()
		e.history.Redo()
	case key.Matches(name, e.keys.SavePoint):
		e.history.SetSavePoint()
	case key.Matches(name, e.keys.RestoreSavePoint):
		e.CancelDrag()
		e.history.RestoreSavePoint()
	default:
		return false
	}
	return true
}
