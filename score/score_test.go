package score

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteName(t *testing.T) {
	tests := []struct {
		midi int
		name string
	}{
		{21, "A0"},
		{60, "C4"},
		{61, "C#4"},
		{0, "C-1"},
		{127, "G9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, NoteName(tt.midi))

			parsed, err := ParseNoteName(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.midi, parsed)
		})
	}
}

func TestParseNoteNameFlatsAndErrors(t *testing.T) {
	midi, err := ParseNoteName("Eb4")
	require.NoError(t, err)
	assert.Equal(t, 63, midi)

	midi, err = ParseNoteName("a#3")
	require.NoError(t, err)
	assert.Equal(t, 58, midi)

	for _, bad := range []string{"", "C", "H4", "C#", "Cx", "G10"} {
		_, err := ParseNoteName(bad)
		assert.Error(t, err, bad)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, NewNote(0, 1, 60).Validate())
	assert.ErrorIs(t, NewNote(-1, 1, 60).Validate(), ErrInvalidNote)
	assert.ErrorIs(t, NewNote(0, 0, 60).Validate(), ErrInvalidNote)
	assert.ErrorIs(t, NewNote(0, 1, 128).Validate(), ErrInvalidNote)
}

func TestTrackInsertKeepsTimeOrder(t *testing.T) {
	tr := NewTrack("piano", 0)
	late := NewNote(2, 1, 64)
	early := NewNote(0, 1, 60)
	mid := NewNote(1, 1, 62)

	tr.Insert(&late, -1)
	tr.Insert(&early, -1)
	tr.Insert(&mid, 0)

	require.Len(t, tr.Notes, 3)
	assert.Equal(t, []float64{0, 1, 2}, []float64{tr.Notes[0].Time, tr.Notes[1].Time, tr.Notes[2].Time})
	assert.Equal(t, 2, tr.IndexOf(&late))
	assert.Equal(t, 1, tr.Find(1, 62))
	assert.Equal(t, -1, tr.Find(1, 61))

	removed := tr.RemoveAt(1)
	assert.Same(t, &mid, removed)
	assert.Len(t, tr.Notes, 2)
}

func TestCloneSharesNoNotes(t *testing.T) {
	doc := NewDocument("song")
	tr := doc.AddTrack("")
	n := NewNote(0, 1, 60)
	tr.Insert(&n, -1)

	c := doc.Clone()
	c.Tracks[0].Notes[0].Midi = 72
	c.Tracks[0].Visible = false

	assert.Equal(t, 60, doc.Tracks[0].Notes[0].Midi)
	assert.True(t, doc.Tracks[0].Visible)
	assert.Equal(t, "Track 1", c.Tracks[0].Name)
}

func TestNormalize(t *testing.T) {
	doc := &Document{Tracks: []*Track{
		{Visible: true},
		{Visible: true, Notes: []*Note{{Time: 3, Duration: 1, Midi: 69}, {Time: 1, Duration: 1, Midi: 60}}},
	}}
	doc.Normalize()

	assert.Equal(t, DefaultTempo, doc.Tempo)
	assert.NotNil(t, doc.Tracks[0].Notes)
	assert.Equal(t, 1.0, doc.Tracks[1].Notes[0].Time)
	assert.Equal(t, "A4", doc.Tracks[1].Notes[1].Name)
	assert.Equal(t, 1, doc.Tracks[1].Notes[1].Track)
	assert.Equal(t, 2, doc.NoteCount())
	assert.Equal(t, 4.0, doc.Duration())
}

func TestNormalizeDropsNullEntries(t *testing.T) {
	doc := &Document{Tracks: []*Track{
		nil,
		{Visible: true, Notes: []*Note{nil, {Time: 1, Duration: 1, Midi: 60}, nil}},
	}}

	c := doc.Clone()
	require.Len(t, c.Tracks, 1)
	assert.Len(t, c.Tracks[0].Notes, 1)

	doc.Normalize()
	require.Len(t, doc.Tracks, 1)
	require.Len(t, doc.Tracks[0].Notes, 1)
	assert.Equal(t, 0, doc.Tracks[0].Notes[0].Track)
	assert.Equal(t, "C4", doc.Tracks[0].Notes[0].Name)
}

func TestTrackVisibleByDefault(t *testing.T) {
	var doc Document
	data := `{"name":"x","tracks":[{"name":"a"},{"name":"b","visible":false},null]}`
	require.NoError(t, json.Unmarshal([]byte(data), &doc))
	doc.Normalize()

	require.Len(t, doc.Tracks, 2)
	assert.True(t, doc.Tracks[0].Visible, "missing flag means visible")
	assert.False(t, doc.Tracks[1].Visible)
	assert.NotNil(t, doc.Tracks[0].Notes)
}

func TestFindNoteMatchesWholeValue(t *testing.T) {
	tr := NewTrack("t", 0)
	short := NewNote(1, 0.5, 60)
	long := NewNote(1, 2, 60)
	tr.Insert(&short, -1)
	tr.Insert(&long, -1)

	assert.Equal(t, 0, tr.Find(1, 60))
	assert.Equal(t, 1, tr.FindNote(long))
	long.Track = 7
	assert.Equal(t, 1, tr.FindNote(long), "track back-reference ignored")
	assert.Equal(t, -1, tr.FindNote(NewNote(1, 1, 60)))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-4, 0, 127))
	assert.Equal(t, 127, Clamp(200, 0, 127))
	assert.Equal(t, 0.5, Clamp(0.5, 0.0, 1.0))
}
