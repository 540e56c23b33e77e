package history

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"go-rolledit/debug"
	"go-rolledit/score"
)

// EntryType distinguishes one-change entries from closed batches
type EntryType string

const (
	Single EntryType = "single"
	Batch  EntryType = "batch"
)

// Entry is one undo/redo step
type Entry struct {
	ID        string    `json:"id"`
	Type      EntryType `json:"type"`
	Kind      Kind      `json:"kind"`
	Label     string    `json:"label"`
	Changes   []Change  `json:"changes"`
	Timestamp time.Time `json:"timestamp"`
	Merged    int       `json:"merged,omitempty"` // entries folded into this one
}

// NoteIndex is kept in step with every note the manager adds, moves or removes
type NoteIndex interface {
	Build(notes []*score.Note)
	Insert(n *score.Note)
	Remove(n *score.Note)
}

type nopIndex struct{}

func (nopIndex) Build([]*score.Note) {}
func (nopIndex) Insert(*score.Note)  {}
func (nopIndex) Remove(*score.Note)  {}

// Options tune stack bounds and merging
type Options struct {
	MaxHistorySize int
	MergeThreshold time.Duration
	MaxSavePoints  int
	Now            func() time.Time // clock, replaced in tests
}

// DefaultOptions: 100 steps, 500ms merge window, 3 save points
func DefaultOptions() Options {
	return Options{
		MaxHistorySize: 100,
		MergeThreshold: 500 * time.Millisecond,
		MaxSavePoints:  3,
		Now:            time.Now,
	}
}

// frame is one open batch
type frame struct {
	label   string
	changes []Change
}

// Manager owns the working document and is the only thing that mutates it.
// It is not safe for concurrent use; all calls are expected on one goroutine.
type Manager struct {
	opts     Options
	doc      *score.Document
	original *score.Document
	index    NoteIndex

	entries    []*Entry
	pointer    int
	savePoints []int
	batches    []*frame

	changed    listeners[Status]
	undone     listeners[*score.Document]
	redone     listeners[*score.Document]
	batchStart listeners[string]
	batchEnd   listeners[string]
}

// New deep-copies doc so the caller's value is never aliased, and builds
// index (may be nil) from the copy.
func New(doc *score.Document, index NoteIndex, opts Options) *Manager {
	def := DefaultOptions()
	if opts.MaxHistorySize <= 0 {
		opts.MaxHistorySize = def.MaxHistorySize
	}
	if opts.MergeThreshold < 0 {
		opts.MergeThreshold = def.MergeThreshold
	}
	if opts.MaxSavePoints <= 0 {
		opts.MaxSavePoints = def.MaxSavePoints
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	if index == nil {
		index = nopIndex{}
	}
	if doc == nil {
		doc = score.NewDocument("untitled")
	}

	m := &Manager{
		opts:    opts,
		doc:     &score.Document{},
		index:   index,
		pointer: -1,
	}
	m.load(doc)
	return m
}

func (m *Manager) load(doc *score.Document) {
	m.original = doc.Clone()
	m.original.Normalize()

	working := m.original.Clone()
	m.doc.Name = working.Name
	m.doc.Tempo = working.Tempo
	m.doc.Tracks = working.Tracks

	m.entries = nil
	m.pointer = -1
	m.savePoints = nil
	m.batches = nil
	m.index.Build(m.doc.Notes())
}

// Document returns the live working document. Callers must treat it as
// read-only; the pointer stays valid across Reset and Load.
func (m *Manager) Document() *score.Document {
	return m.doc
}

// Snapshot returns a deep copy of the working document
func (m *Manager) Snapshot() *score.Document {
	return m.doc.Clone()
}

// Options returns the options in effect
func (m *Manager) Options() Options {
	return m.opts
}

// Load replaces the document and starts a fresh history
func (m *Manager) Load(doc *score.Document) {
	m.load(doc)
	debug.Log("history", "loaded %q: %d tracks, %d notes", m.doc.Name, len(m.doc.Tracks), m.doc.NoteCount())
	m.notifyChange()
}

// Reset restores the document captured at construction (or last Load) and
// empties the stack, batches and save points.
func (m *Manager) Reset() {
	m.load(m.original)
	debug.Log("history", "reset")
	m.notifyChange()
}

// NotePatch lists the fields ModifyNote replaces; nil fields are kept
type NotePatch struct {
	Time     *float64
	Duration *float64
	Midi     *int
	Name     *string
	Velocity *uint8
}

func (p NotePatch) apply(n score.Note) score.Note {
	if p.Time != nil {
		n.Time = *p.Time
	}
	if p.Duration != nil {
		n.Duration = *p.Duration
	}
	if p.Midi != nil && *p.Midi != n.Midi {
		n = n.WithPitch(*p.Midi)
	}
	if p.Name != nil {
		n.Name = *p.Name
	}
	if p.Velocity != nil {
		n.Velocity = *p.Velocity
	}
	return n
}

// ModifyNote replaces the patched fields of the addressed note
func (m *Manager) ModifyNote(track, noteIndex int, patch NotePatch) bool {
	n, ok := m.doc.Note(track, noteIndex)
	if !ok {
		debug.Log("history", "modifyNote: no note %d on track %d", noteIndex, track)
		return false
	}
	before := *n
	after := patch.apply(before)
	if err := after.Validate(); err != nil {
		debug.Log("history", "modifyNote: %v", err)
		return false
	}

	m.write(track, n, after)
	m.record(Change{Kind: KindModify, Track: track, Index: noteIndex, Before: before, After: *n})
	return true
}

// AddNote inserts note at position (negative appends) and re-sorts the track
func (m *Manager) AddNote(track int, note score.Note, position int) bool {
	t, ok := m.doc.Track(track)
	if !ok {
		debug.Log("history", "addNote: no track %d", track)
		return false
	}
	if note.Name == "" {
		note.Name = score.NoteName(note.Midi)
	}
	if err := note.Validate(); err != nil {
		debug.Log("history", "addNote: %v", err)
		return false
	}

	n := note
	n.Track = track
	t.Insert(&n, position)
	m.index.Insert(&n)
	m.record(Change{Kind: KindAdd, Track: track, Index: t.IndexOf(&n), After: n})
	return true
}

// DeleteNote removes the addressed note
func (m *Manager) DeleteNote(track, noteIndex int) bool {
	if _, ok := m.doc.Note(track, noteIndex); !ok {
		debug.Log("history", "deleteNote: no note %d on track %d", noteIndex, track)
		return false
	}
	removed := m.removeAt(m.doc.Tracks[track], noteIndex)
	m.record(Change{Kind: KindDelete, Track: track, Index: noteIndex, Before: removed})
	return true
}

// ModifyNoteTime moves the addressed note to a new start time
func (m *Manager) ModifyNoteTime(track, noteIndex int, newTime float64) bool {
	n, ok := m.doc.Note(track, noteIndex)
	if !ok || newTime < 0 {
		debug.Log("history", "modifyNoteTime: rejected note %d on track %d time %g", noteIndex, track, newTime)
		return false
	}
	before := *n
	after := before
	after.Time = newTime

	m.write(track, n, after)
	m.record(Change{Kind: KindModifyTime, Track: track, Index: noteIndex, Before: before, After: after})
	return true
}

// RecordNoteDrag records a finished drag from before to after. If the note
// already sits at after (moved live with Preview) only the change is
// recorded; otherwise the note at before is moved first. Returns false when
// before and after are equal or neither note can be found.
func (m *Manager) RecordNoteDrag(track int, before, after score.Note) bool {
	t, ok := m.doc.Track(track)
	if !ok {
		debug.Log("history", "recordNoteDrag: no track %d", track)
		return false
	}
	before.Track, after.Track = track, track
	if after.Name == "" || (after.Midi != before.Midi && after.Name == before.Name) {
		after.Name = score.NoteName(after.Midi)
	}
	if before == after {
		return false
	}
	if err := after.Validate(); err != nil {
		debug.Log("history", "recordNoteDrag: %v", err)
		return false
	}

	// match by whole value: another note may share after's (time, midi)
	i := t.FindNote(after)
	if i < 0 {
		i = t.FindNote(before)
		if i < 0 {
			i = t.Find(before.Time, before.Midi)
		}
		if i < 0 {
			debug.Log("history", "recordNoteDrag: note %s @%g not on track %d", before.Name, before.Time, track)
			return false
		}
		n := t.Notes[i]
		m.write(track, n, after)
		i = t.IndexOf(n)
	}

	m.record(Change{Kind: KindDragNote, Track: track, Index: i, Before: before, After: after})
	return true
}

// ToggleTrackVisibility sets the track's visibility flag. Setting the value
// it already has records nothing and returns false.
func (m *Manager) ToggleTrackVisibility(track int, visible bool) bool {
	t, ok := m.doc.Track(track)
	if !ok {
		debug.Log("history", "toggleTrackVisibility: no track %d", track)
		return false
	}
	if t.Visible == visible {
		return false
	}
	was := t.Visible
	t.Visible = visible
	m.record(Change{Kind: KindToggleVisibility, Track: track, Index: -1, WasVisible: was, Visible: visible})
	return true
}

// Preview moves n to value without recording history, keeping the index in
// step. Drag gestures call it once per frame and record a single change at
// the end. It fires no events.
func (m *Manager) Preview(track int, n *score.Note, value score.Note) bool {
	t, ok := m.doc.Track(track)
	if !ok || t.IndexOf(n) < 0 {
		return false
	}
	if value.Midi != n.Midi {
		value.Name = score.NoteName(value.Midi)
	}
	m.write(track, n, value)
	return true
}

// record sends c to the open batch, or wraps it in a single entry
func (m *Manager) record(c Change) {
	c.Timestamp = m.opts.Now()
	if len(m.batches) > 0 {
		top := m.batches[len(m.batches)-1]
		top.changes = append(top.changes, c)
		debug.Log("history", "batch %q += %s", top.label, c)
		m.notifyChange()
		return
	}

	m.addEntry(&Entry{
		ID:        uuid.NewString(),
		Type:      Single,
		Kind:      c.Kind,
		Label:     c.String(),
		Changes:   []Change{c},
		Timestamp: c.Timestamp,
	})
}

// addEntry truncates the redo future, then merges e into the entry at the
// pointer or pushes it, evicting from the front past MaxHistorySize.
func (m *Manager) addEntry(e *Entry) {
	if m.pointer < len(m.entries)-1 {
		for i := m.pointer + 1; i < len(m.entries); i++ {
			m.entries[i] = nil
		}
		m.entries = m.entries[:m.pointer+1]
		m.dropSavePointsAbove(m.pointer)
	}

	if last := m.mergeTarget(e); last != nil {
		last.Changes = append(last.Changes, e.Changes...)
		last.Timestamp = e.Timestamp
		last.Merged++
		debug.Log("history", "merged %s into step %d (%d changes)", e.Kind, m.pointer, len(last.Changes))
		m.notifyChange()
		return
	}

	m.entries = append(m.entries, e)
	m.pointer = len(m.entries) - 1

	for len(m.entries) > m.opts.MaxHistorySize {
		m.entries[0] = nil
		m.entries = m.entries[1:]
		m.pointer--
		m.shiftSavePoints()
	}
	debug.Log("history", "push %s %q -> step %d/%d", e.Type, e.Label, m.pointer, len(m.entries))
	m.notifyChange()
}

func (m *Manager) mergeTarget(e *Entry) *Entry {
	if e.Type != Single || !e.Kind.Mergeable() || m.pointer < 0 {
		return nil
	}
	last := m.entries[m.pointer]
	if last.Type != Single || last.Kind != e.Kind || m.isSavePoint(m.pointer) {
		return nil
	}
	if e.Timestamp.Sub(last.Timestamp) >= m.opts.MergeThreshold {
		return nil
	}
	return last
}

// BeginBatch opens a grouping context. Batches nest; inner batches fold
// into the outer one.
func (m *Manager) BeginBatch(label string) {
	m.batches = append(m.batches, &frame{label: label})
	debug.Log("history", "begin batch %q (depth %d)", label, len(m.batches))
	m.batchStart.emit(label)
}

// EndBatch closes the innermost batch. Only the outermost close creates an
// entry, and only if changes were recorded. Returns true when an entry was
// added.
func (m *Manager) EndBatch() bool {
	if len(m.batches) == 0 {
		return false
	}
	top := m.batches[len(m.batches)-1]
	m.batches[len(m.batches)-1] = nil
	m.batches = m.batches[:len(m.batches)-1]
	defer m.batchEnd.emit(top.label)

	if len(m.batches) > 0 {
		parent := m.batches[len(m.batches)-1]
		parent.changes = append(parent.changes, top.changes...)
		return false
	}
	if len(top.changes) == 0 {
		debug.Log("history", "end batch %q: empty", top.label)
		return false
	}

	m.addEntry(&Entry{
		ID:        uuid.NewString(),
		Type:      Batch,
		Kind:      KindBatch,
		Label:     top.label,
		Changes:   top.changes,
		Timestamp: m.opts.Now(),
	})
	return true
}

// BatchDepth returns the number of open batches
func (m *Manager) BatchDepth() int {
	return len(m.batches)
}

// Undo reverts the entry at the pointer
func (m *Manager) Undo() bool {
	if !m.stepBack() {
		return false
	}
	m.undone.emit(m.doc.Clone())
	m.notifyChange()
	return true
}

// Redo reapplies the entry after the pointer
func (m *Manager) Redo() bool {
	if !m.stepForward() {
		return false
	}
	m.redone.emit(m.doc.Clone())
	m.notifyChange()
	return true
}

func (m *Manager) stepBack() bool {
	if len(m.batches) > 0 {
		debug.Log("history", "undo refused: batch open")
		return false
	}
	if m.pointer < 0 {
		return false
	}
	if err := m.replay(m.entries[m.pointer].Changes, false); err != nil {
		debug.Log("history", "undo step %d failed: %v", m.pointer, err)
		return false
	}
	m.pointer--
	return true
}

func (m *Manager) stepForward() bool {
	if len(m.batches) > 0 {
		debug.Log("history", "redo refused: batch open")
		return false
	}
	if m.pointer >= len(m.entries)-1 {
		return false
	}
	if err := m.replay(m.entries[m.pointer+1].Changes, true); err != nil {
		debug.Log("history", "redo step %d failed: %v", m.pointer+1, err)
		return false
	}
	m.pointer++
	return true
}

// GoTo undoes or redoes until the pointer equals step (-1 is the original
// document). On failure the pointer stays at the last step reached.
func (m *Manager) GoTo(step int) bool {
	if step < -1 || step >= len(m.entries) || len(m.batches) > 0 {
		return false
	}
	start := m.pointer
	ok := true
	for ok && m.pointer > step {
		ok = m.stepBack()
	}
	for ok && m.pointer < step {
		ok = m.stepForward()
	}

	switch {
	case m.pointer < start:
		m.undone.emit(m.doc.Clone())
	case m.pointer > start:
		m.redone.emit(m.doc.Clone())
	}
	if m.pointer != start {
		m.notifyChange()
	}
	return ok
}

// SetSavePoint marks the current step. Returns false at the original state.
func (m *Manager) SetSavePoint() bool {
	if m.pointer < 0 {
		return false
	}
	if !m.isSavePoint(m.pointer) {
		m.savePoints = append(m.savePoints, m.pointer)
		sort.Ints(m.savePoints)
		for len(m.savePoints) > m.opts.MaxSavePoints {
			m.savePoints = m.savePoints[1:]
		}
	}
	debug.Log("history", "save point at %d %v", m.pointer, m.savePoints)
	m.notifyChange()
	return true
}

// RestoreSavePoint moves to the newest save point
func (m *Manager) RestoreSavePoint() bool {
	if len(m.savePoints) == 0 {
		return false
	}
	return m.GoTo(m.savePoints[len(m.savePoints)-1])
}

// SavePoints returns the marked steps, oldest first
func (m *Manager) SavePoints() []int {
	return append([]int(nil), m.savePoints...)
}

func (m *Manager) isSavePoint(step int) bool {
	for _, s := range m.savePoints {
		if s == step {
			return true
		}
	}
	return false
}

func (m *Manager) dropSavePointsAbove(step int) {
	kept := m.savePoints[:0]
	for _, s := range m.savePoints {
		if s <= step {
			kept = append(kept, s)
		}
	}
	m.savePoints = kept
}

// shiftSavePoints follows an eviction from the front of the stack
func (m *Manager) shiftSavePoints() {
	kept := m.savePoints[:0]
	for _, s := range m.savePoints {
		if s > 0 {
			kept = append(kept, s-1)
		}
	}
	m.savePoints = kept
}

// Entries returns the history stack, oldest first. Entries must not be modified.
func (m *Manager) Entries() []*Entry {
	return append([]*Entry(nil), m.entries...)
}

// Pointer returns the index of the last applied entry, -1 at the original state
func (m *Manager) Pointer() int {
	return m.pointer
}

func (m *Manager) CanUndo() bool {
	return m.pointer >= 0 && len(m.batches) == 0
}

func (m *Manager) CanRedo() bool {
	return m.pointer < len(m.entries)-1 && len(m.batches) == 0
}
