package midi

import (
	"sort"

	"go-rolledit/score"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
)

// Event is one note-on or note-off on a track, Time in seconds
type Event struct {
	Type     uint8 // NoteOn, NoteOff
	Channel  uint8
	Note     uint8
	Velocity uint8
	Track    int
	Time     float64
}

// Events flattens a document into note-on/off pairs, sorted by time with
// note-offs ahead of note-ons at the same instant.
func Events(doc *score.Document, skipHidden bool) []Event {
	var events []Event
	for ti, t := range doc.Tracks {
		if skipHidden && !t.Visible {
			continue
		}
		for _, n := range t.Notes {
			vel := n.Velocity
			if vel == 0 {
				vel = 100
			}
			key := uint8(score.Clamp(n.Midi, score.MinPitch, score.MaxPitch))
			events = append(events,
				Event{Type: NoteOn, Channel: t.Channel, Note: key, Velocity: vel, Track: ti, Time: n.Time},
				Event{Type: NoteOff, Channel: t.Channel, Note: key, Track: ti, Time: n.End()},
			)
		}
	}
	SortEvents(events)
	return events
}

// SortEvents orders by track, then time, note-offs first on ties
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Track != b.Track {
			return a.Track < b.Track
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.Type == NoteOff && b.Type != NoteOff
	})
}

type voice struct {
	channel, note uint8
}

// Pair matches note-ons with the next note-off of the same channel and key.
// Notes still held at the end are closed at end. Zero-length notes are
// dropped. events must be sorted with SortEvents.
func Pair(events []Event, end float64) map[int][]*score.Note {
	tracks := make(map[int][]*score.Note)
	pending := make(map[int]map[voice][]Event)

	closeNote := func(on Event, at float64) {
		if at <= on.Time {
			return
		}
		n := score.NewNote(on.Time, at-on.Time, int(on.Note))
		n.Velocity = on.Velocity
		n.Track = on.Track
		tracks[on.Track] = append(tracks[on.Track], &n)
	}

	for _, ev := range events {
		held, ok := pending[ev.Track]
		if !ok {
			held = make(map[voice][]Event)
			pending[ev.Track] = held
		}
		v := voice{channel: ev.Channel, note: ev.Note}

		switch ev.Type {
		case NoteOn:
			held[v] = append(held[v], ev)
		case NoteOff:
			queue := held[v]
			if len(queue) == 0 {
				continue
			}
			closeNote(queue[0], ev.Time)
			held[v] = queue[1:]
		}
	}

	for _, held := range pending {
		for _, queue := range held {
			for _, on := range queue {
				closeNote(on, end)
			}
		}
	}
	return tracks
}
