package midi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-rolledit/debug"
	"go-rolledit/score"
)

// Ticks per quarter note written by Export
const PPQ = 960

// Load reads a Standard MIDI File into a document named after the file
func Load(path string) (*score.Document, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading midi file: %w", err)
	}
	doc, err := Read(bytes.NewReader(dat))
	if err != nil {
		return nil, err
	}
	doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return doc, nil
}

// Read parses a Standard MIDI File. Every track with at least one note
// becomes a score track; tempo and conductor tracks are skipped.
func Read(r io.Reader) (doc *score.Document, err error) {
	// smf can panic on malformed input
	defer func() {
		if rec := recover(); rec != nil {
			doc = nil
			err = fmt.Errorf("parsing midi file: %v", rec)
		}
	}()

	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("parsing midi file: %w", err)
	}

	doc = score.NewDocument("")
	if tempos := s.TempoChanges(); len(tempos) > 0 && tempos[0].BPM > 0 {
		doc.Tempo = tempos[0].BPM
	}

	var events []Event
	names := make(map[int]string)
	channels := make(map[int]uint8)
	end := 0.0

	for ti, track := range s.Tracks {
		var absTicks int64
		for _, ev := range track {
			absTicks += int64(ev.Delta)
			at := float64(s.TimeAt(absTicks)) / 1e6
			end = max(end, at)

			var channel, key, velocity uint8
			var text string
			switch {
			case ev.Message.GetNoteOn(&channel, &key, &velocity):
				typ := NoteOn
				if velocity == 0 {
					typ = NoteOff
				}
				events = append(events, Event{Type: typ, Channel: channel, Note: key, Velocity: velocity, Track: ti, Time: at})
				if _, ok := channels[ti]; !ok {
					channels[ti] = channel
				}
			case ev.Message.GetNoteOff(&channel, &key, &velocity):
				events = append(events, Event{Type: NoteOff, Channel: channel, Note: key, Track: ti, Time: at})
			case ev.Message.GetMetaTrackName(&text):
				names[ti] = text
			}
		}
	}

	SortEvents(events)
	paired := Pair(events, end)

	for ti := range s.Tracks {
		notes, ok := paired[ti]
		if !ok {
			continue
		}
		t := doc.AddTrack(names[ti])
		t.Channel = channels[ti]
		t.Notes = notes
	}
	doc.Normalize()

	debug.Log("midi", "read %d tracks, %d notes, tempo %.1f", len(doc.Tracks), doc.NoteCount(), doc.Tempo)
	return doc, nil
}

// ExportOptions control what Export writes
type ExportOptions struct {
	SkipHidden bool
}

// Export writes doc to path as a type 1 Standard MIDI File
func Export(path string, doc *score.Document, opts ExportOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating midi file: %w", err)
	}
	if err := Write(f, doc, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write encodes doc at PPQ ticks per quarter: a tempo track followed by one
// track per score track.
func Write(w io.Writer, doc *score.Document, opts ExportOptions) error {
	if doc == nil {
		return errors.New("no document to export")
	}
	bpm := doc.Tempo
	if bpm <= 0 {
		bpm = score.DefaultTempo
	}

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(PPQ)

	var tempo smf.Track
	tempo.Add(0, smf.MetaMeter(4, 4))
	tempo.Add(0, smf.MetaTempo(bpm))
	tempo.Close(0)
	if err := sm.Add(tempo); err != nil {
		return fmt.Errorf("adding tempo track: %w", err)
	}

	events := Events(doc, opts.SkipHidden)
	start := 0
	for ti, t := range doc.Tracks {
		if opts.SkipHidden && !t.Visible {
			continue
		}

		var track smf.Track
		track.Add(0, smf.MetaTrackSequenceName(t.Name))

		var last uint32
		for start < len(events) && events[start].Track == ti {
			ev := events[start]
			start++
			tick := secondsToTicks(ev.Time, bpm)
			delta := tick - min(tick, last)
			last = max(last, tick)

			switch ev.Type {
			case NoteOn:
				track.Add(delta, gomidi.NoteOn(ev.Channel, ev.Note, ev.Velocity))
			case NoteOff:
				track.Add(delta, gomidi.NoteOff(ev.Channel, ev.Note))
			}
		}
		track.Close(0)
		if err := sm.Add(track); err != nil {
			return fmt.Errorf("adding track %d: %w", ti, err)
		}
	}

	if _, err := sm.WriteTo(w); err != nil {
		return fmt.Errorf("writing midi file: %w", err)
	}
	debug.Log("midi", "wrote %d tracks at %.1f bpm", len(sm.Tracks)-1, bpm)
	return nil
}

func secondsToTicks(sec, bpm float64) uint32 {
	return uint32(math.Round(sec * bpm / 60 * PPQ))
}
