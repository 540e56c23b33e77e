package midi

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-rolledit/score"
)

func sampleDoc() *score.Document {
	doc := score.NewDocument("sample")
	doc.Tempo = 90
	melody := doc.AddTrack("melody")
	bass := doc.AddTrack("bass")
	for _, n := range []score.Note{
		score.NewNote(0, 0.5, 60),
		score.NewNote(0.5, 0.5, 64),
		score.NewNote(1, 1, 67),
	} {
		n := n
		melody.Insert(&n, -1)
	}
	low := score.NewNote(0, 2, 36)
	low.Velocity = 80
	bass.Insert(&low, -1)
	doc.Normalize()
	return doc
}

type plain struct {
	time, dur float64
	midi      int
}

func flatten(t *score.Track) []plain {
	out := make([]plain, len(t.Notes))
	for i, n := range t.Notes {
		out[i] = plain{time: n.Time, dur: n.Duration, midi: n.Midi}
	}
	return out
}

func TestWriteReadRoundTrip(t *testing.T) {
	doc := sampleDoc()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc, ExportOptions{}))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, got.Tempo, 0.01)
	require.Len(t, got.Tracks, 2)

	assert.Equal(t, "melody", got.Tracks[0].Name)
	assert.Equal(t, "bass", got.Tracks[1].Name)
	assert.Equal(t, uint8(1), got.Tracks[1].Channel)
	for i := range doc.Tracks {
		want := flatten(doc.Tracks[i])
		have := flatten(got.Tracks[i])
		require.Len(t, have, len(want))
		for j := range want {
			assert.InDelta(t, want[j].time, have[j].time, 1e-3)
			assert.InDelta(t, want[j].dur, have[j].dur, 1e-3)
			assert.Equal(t, want[j].midi, have[j].midi)
		}
	}
	assert.Equal(t, uint8(80), got.Tracks[1].Notes[0].Velocity)
	assert.Equal(t, "C2", got.Tracks[1].Notes[0].Name)
	assert.Equal(t, 1, got.Tracks[1].Notes[0].Track)
}

func TestExportLoadFile(t *testing.T) {
	doc := sampleDoc()
	doc.Tracks[1].Visible = false
	path := filepath.Join(t.TempDir(), "out", "song.mid")

	require.NoError(t, Export(path, doc, ExportOptions{SkipHidden: true}))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "song", got.Name)
	require.Len(t, got.Tracks, 1)
	assert.Len(t, got.Tracks[0].Notes, 3)
}

func TestReadGarbage(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("not a midi file")))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.mid"))
	assert.Error(t, err)
}

func TestPair(t *testing.T) {
	events := []Event{
		{Type: NoteOn, Note: 60, Velocity: 90, Time: 0},
		{Type: NoteOn, Note: 60, Velocity: 70, Time: 0.5},
		{Type: NoteOff, Note: 60, Time: 1},
		{Type: NoteOff, Note: 60, Time: 1.5},
		{Type: NoteOff, Note: 62, Time: 1.5}, // stray off
		{Type: NoteOn, Note: 64, Time: 2},    // held to the end
		{Type: NoteOn, Note: 65, Time: 3},    // starts at the end, dropped
		{Type: NoteOn, Channel: 1, Note: 60, Track: 1, Time: 0},
		{Type: NoteOff, Channel: 1, Note: 60, Track: 1, Time: 0.25},
	}
	SortEvents(events)
	tracks := Pair(events, 3)

	require.Len(t, tracks[0], 3)
	first, second, held := tracks[0][0], tracks[0][1], tracks[0][2]
	assert.Equal(t, 1.0, first.Duration)
	assert.Equal(t, uint8(90), first.Velocity)
	assert.Equal(t, 0.5, second.Time)
	assert.Equal(t, 1.0, second.Duration)
	assert.Equal(t, 64, held.Midi)
	assert.Equal(t, 1.0, held.Duration)

	require.Len(t, tracks[1], 1)
	assert.Equal(t, 1, tracks[1][0].Track)
}

func TestEventsOrder(t *testing.T) {
	doc := score.NewDocument("")
	tr := doc.AddTrack("")
	a := score.NewNote(0, 1, 60)
	b := score.NewNote(1, 1, 60)
	tr.Insert(&a, -1)
	tr.Insert(&b, -1)

	events := Events(doc, false)
	require.Len(t, events, 4)
	assert.Equal(t, NoteOff, events[1].Type, "off before on at the same instant")
	assert.Equal(t, NoteOn, events[2].Type)
	assert.Equal(t, 1.0, events[2].Time)
}
