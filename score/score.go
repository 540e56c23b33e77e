package score

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// MIDI pitch range
const (
	MinPitch = 0
	MaxPitch = 127
)

// DefaultTempo is used when a document carries no tempo of its own
const DefaultTempo = 120.0

// ErrInvalidNote is returned by Validate for notes that break the model rules.
var ErrInvalidNote = errors.New("invalid note")

// Note is a single musical event. Time and Duration are in seconds.
type Note struct {
	Time     float64 `json:"time" yaml:"time"`
	Duration float64 `json:"duration" yaml:"duration"`
	Midi     int     `json:"midi" yaml:"midi"`
	Name     string  `json:"name" yaml:"name"`
	Velocity uint8   `json:"velocity,omitempty" yaml:"velocity,omitempty"`
	Track    int     `json:"track" yaml:"track"` // back-reference, kept in sync by the owning document
}

// Track is a time-ordered list of notes plus a visibility flag
type Track struct {
	Name    string  `json:"name" yaml:"name"`
	Channel uint8   `json:"channel" yaml:"channel"`
	Visible bool    `json:"visible" yaml:"visible"`
	Notes   []*Note `json:"notes" yaml:"notes"`
}

// Document is the full multi-track note sequence being edited
type Document struct {
	Name   string   `json:"name" yaml:"name"`
	Tempo  float64  `json:"tempo" yaml:"tempo"`
	Tracks []*Track `json:"tracks" yaml:"tracks"`
}

// Key identifies a note by the fields used to look it up across edits.
type Key struct {
	Track int
	Time  float64
	Midi  int
}

// NewNote creates a note with its pitch name filled in
func NewNote(time, duration float64, midi int) Note {
	return Note{
		Time:     time,
		Duration: duration,
		Midi:     midi,
		Name:     NoteName(midi),
		Velocity: 100,
	}
}

// End returns the time the note stops sounding
func (n Note) End() float64 {
	return n.Time + n.Duration
}

// Key returns the lookup key of the note on the given track
func (n Note) Key(track int) Key {
	return Key{Track: track, Time: n.Time, Midi: n.Midi}
}

// SameKey reports whether two notes share start time and pitch
func (n Note) SameKey(o Note) bool {
	return n.Time == o.Time && n.Midi == o.Midi
}

// Same reports whether two notes hold the same value, ignoring the track
// back-reference
func (n Note) Same(o Note) bool {
	o.Track = n.Track
	return n == o
}

// Validate checks time, duration and pitch bounds.
func (n Note) Validate() error {
	switch {
	case n.Time < 0:
		return fmt.Errorf("%w: negative time %g", ErrInvalidNote, n.Time)
	case n.Duration <= 0:
		return fmt.Errorf("%w: duration %g must be positive", ErrInvalidNote, n.Duration)
	case n.Midi < MinPitch || n.Midi > MaxPitch:
		return fmt.Errorf("%w: pitch %d out of range", ErrInvalidNote, n.Midi)
	}
	return nil
}

// WithPitch returns a copy of the note moved to midi, with the name re-spelled
func (n Note) WithPitch(midi int) Note {
	n.Midi = midi
	n.Name = NoteName(midi)
	return n
}

// NewTrack creates an empty visible track
func NewTrack(name string, channel uint8) *Track {
	return &Track{
		Name:    name,
		Channel: channel,
		Visible: true,
		Notes:   []*Note{},
	}
}

// Sort orders notes by start time. Notes with equal times keep their relative order.
func (t *Track) Sort() {
	sort.SliceStable(t.Notes, func(i, j int) bool {
		return t.Notes[i].Time < t.Notes[j].Time
	})
}

// Find returns the index of the first note starting at time with pitch midi, or -1
func (t *Track) Find(time float64, midi int) int {
	for i, n := range t.Notes {
		if n.Time == time && n.Midi == midi {
			return i
		}
	}
	return -1
}

// FindNote returns the index of the first note whose value equals v, or -1
func (t *Track) FindNote(v Note) int {
	for i, n := range t.Notes {
		if n.Same(v) {
			return i
		}
	}
	return -1
}

// IndexOf returns the position of n in the track, or -1
func (t *Track) IndexOf(n *Note) int {
	for i, m := range t.Notes {
		if m == n {
			return i
		}
	}
	return -1
}

// Insert places n at position (clamped to the track) and re-sorts by time.
func (t *Track) Insert(n *Note, position int) {
	if position < 0 || position > len(t.Notes) {
		position = len(t.Notes)
	}
	t.Notes = append(t.Notes, nil)
	copy(t.Notes[position+1:], t.Notes[position:])
	t.Notes[position] = n
	t.Sort()
}

// RemoveAt drops the note at i and returns it
func (t *Track) RemoveAt(i int) *Note {
	n := t.Notes[i]
	t.Notes = append(t.Notes[:i], t.Notes[i+1:]...)
	return n
}

// NewDocument creates an empty document
func NewDocument(name string) *Document {
	return &Document{
		Name:   name,
		Tempo:  DefaultTempo,
		Tracks: []*Track{},
	}
}

// AddTrack appends a new empty track and returns it
func (d *Document) AddTrack(name string) *Track {
	if name == "" {
		name = fmt.Sprintf("Track %d", len(d.Tracks)+1)
	}
	t := NewTrack(name, uint8(len(d.Tracks)%16))
	d.Tracks = append(d.Tracks, t)
	return t
}

// Track returns the track at i
func (d *Document) Track(i int) (*Track, bool) {
	if i < 0 || i >= len(d.Tracks) || d.Tracks[i] == nil {
		return nil, false
	}
	return d.Tracks[i], true
}

// Note returns the note at position i of track
func (d *Document) Note(track, i int) (*Note, bool) {
	t, ok := d.Track(track)
	if !ok || i < 0 || i >= len(t.Notes) {
		return nil, false
	}
	return t.Notes[i], true
}

// Notes returns every note of every track in track order
func (d *Document) Notes() []*Note {
	var all []*Note
	for _, t := range d.Tracks {
		all = append(all, t.Notes...)
	}
	return all
}

// NoteCount returns the total number of notes
func (d *Document) NoteCount() int {
	count := 0
	for _, t := range d.Tracks {
		count += len(t.Notes)
	}
	return count
}

// Duration returns the end time of the last sounding note
func (d *Document) Duration() float64 {
	end := 0.0
	for _, t := range d.Tracks {
		for _, n := range t.Notes {
			end = max(end, n.End())
		}
	}
	return end
}

// Normalize drops null tracks and notes, fixes back-references and names,
// and sorts every track. Loaders call it once after building a document.
func (d *Document) Normalize() {
	if d.Tempo <= 0 {
		d.Tempo = DefaultTempo
	}
	tracks := d.Tracks[:0]
	for _, t := range d.Tracks {
		if t != nil {
			tracks = append(tracks, t)
		}
	}
	d.Tracks = tracks

	for ti, t := range d.Tracks {
		notes := make([]*Note, 0, len(t.Notes))
		for _, n := range t.Notes {
			if n == nil {
				continue
			}
			n.Track = ti
			if n.Name == "" {
				n.Name = NoteName(n.Midi)
			}
			notes = append(notes, n)
		}
		t.Notes = notes
		t.Sort()
	}
}

// Clone returns a deep copy that shares no notes with d. Null tracks and
// notes are left out.
func (d *Document) Clone() *Document {
	c := &Document{
		Name:   d.Name,
		Tempo:  d.Tempo,
		Tracks: make([]*Track, 0, len(d.Tracks)),
	}
	for _, t := range d.Tracks {
		if t == nil {
			continue
		}
		nt := &Track{
			Name:    t.Name,
			Channel: t.Channel,
			Visible: t.Visible,
			Notes:   make([]*Note, 0, len(t.Notes)),
		}
		for _, n := range t.Notes {
			if n == nil {
				continue
			}
			copied := *n
			nt.Notes = append(nt.Notes, &copied)
		}
		c.Tracks = append(c.Tracks, nt)
	}
	return c
}

// UnmarshalJSON decodes a track, treating a missing "visible" as visible
func (t *Track) UnmarshalJSON(data []byte) error {
	type plain Track
	p := plain{Visible: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = Track(p)
	return nil
}
