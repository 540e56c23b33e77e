package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-rolledit/score"
)

// flat layout: 10px rows, 100px per second, pitch 127 on row 0
func testLayout() Layout {
	return Layout{NoteHeight: 10, TimeScale: 100, PitchBase: 0, VisibleRange: 128, Bucket: 100}
}

func note(track int, time, dur float64, midi int) *score.Note {
	n := score.NewNote(time, dur, midi)
	n.Track = track
	return &n
}

func centre(l Layout, n *score.Note) (float64, float64) {
	r := l.NoteRect(n)
	return r.X + r.W/2, r.Y + r.H/2
}

func TestLayoutMapping(t *testing.T) {
	l := DefaultLayout()
	assert.Equal(t, 108, l.TopPitch())
	assert.Equal(t, 864.0, l.PitchToY(60))
	assert.Equal(t, 60, l.PitchAt(864))
	assert.Equal(t, 60, l.PitchAt(881.9))
	assert.Equal(t, 59, l.PitchAt(882))
	assert.Equal(t, 300.0, l.TimeToX(2))
	assert.Equal(t, 2.0, l.XToTime(300))

	r := l.NoteRect(note(0, 0, 1, 60))
	assert.Equal(t, Rect{X: 0, Y: 864, W: 150, H: 17}, r)
}

func TestQueryFindsEveryNote(t *testing.T) {
	l := testLayout()
	notes := []*score.Note{
		note(0, 0, 1, 60),
		note(0, 0.5, 2.5, 62),
		note(1, 4, 0.25, 60),
		note(1, 7.9, 0.2, 127),
	}
	ix := NewIndex(l)
	ix.Build(notes)
	require.Equal(t, 4, ix.Len())

	for _, n := range notes {
		x, y := centre(l, n)
		assert.Same(t, n, ix.Query(x, y, 0), n.Name)
	}
	assert.Nil(t, ix.Query(250, l.PitchToY(60)+5, 0))
	assert.Nil(t, ix.Query(50, l.PitchToY(30)+5, 3))
}

func TestQueryToleranceReachesNeighbourBucket(t *testing.T) {
	l := testLayout()
	n := note(0, 2, 0.5, 64) // x 200..250, bucket 2 only
	ix := NewIndex(l)
	ix.Insert(n)

	y := l.PitchToY(64) + 4
	assert.Same(t, n, ix.Query(198, y, 3), "bucket 1 must scan bucket 2")
	assert.Nil(t, ix.Query(198, y, 1))
	assert.Same(t, n, ix.Query(252, y, 3))
}

func TestRemovePrunesCells(t *testing.T) {
	l := testLayout()
	n := note(0, 0.5, 3, 60) // spans buckets 0..3
	ix := NewIndex(l)
	ix.Insert(n)
	assert.Equal(t, 4, ix.Cells())

	x, y := centre(l, n)
	ix.Remove(n)
	assert.Nil(t, ix.Query(x, y, 3))
	assert.Equal(t, 0, ix.Cells())
	assert.Equal(t, 0, ix.Len())
	assert.Empty(t, ix.pitches)

	// removing twice is harmless
	ix.Remove(n)
}

func TestRemoveUsesInsertedPosition(t *testing.T) {
	l := testLayout()
	n := note(0, 0, 1, 60)
	ix := NewIndex(l)
	ix.Insert(n)

	// mutate before removal, as a caller that forgot to bracket would
	n.Midi = 72
	n.Time = 5
	ix.Remove(n)
	assert.Empty(t, ix.pitches)

	ix.Insert(n)
	x, y := centre(l, n)
	assert.Same(t, n, ix.Query(x, y, 0))
}

func TestInsertTwiceMovesNote(t *testing.T) {
	l := testLayout()
	n := note(0, 0, 1, 60)
	ix := NewIndex(l)
	ix.Insert(n)
	oldX, oldY := centre(l, n)

	n.Time = 3
	ix.Insert(n)
	assert.Nil(t, ix.Query(oldX, oldY, 0))
	x, y := centre(l, n)
	assert.Same(t, n, ix.Query(x, y, 0))
	assert.Equal(t, 1, ix.Len())
}

func TestQueryPrefersTopTrack(t *testing.T) {
	l := testLayout()
	low := note(0, 0, 2, 60)
	high := note(1, 0.5, 1, 60)
	ix := NewIndex(l)
	ix.Build([]*score.Note{low, high})

	y := l.PitchToY(60) + 5
	assert.Same(t, high, ix.Query(100, y, 0))
	assert.Same(t, low, ix.QueryFunc(100, y, 0, func(n *score.Note) bool { return n.Track == 0 }))
	assert.Same(t, low, ix.Query(20, y, 0))
}

func TestVisible(t *testing.T) {
	l := testLayout()
	a := note(0, 0, 5, 60)
	b := note(1, 1, 1, 62)
	c := note(0, 20, 1, 60)
	d := note(0, 1, 1, 20)
	ix := NewIndex(l)
	ix.Build([]*score.Note{a, b, c, d})

	view := Rect{X: 0, Y: l.PitchToY(70), W: 500, H: 150}
	got := ix.Visible(view)
	assert.Equal(t, []*score.Note{a, b}, got)
}

func TestSetGeometryRebuilds(t *testing.T) {
	n := note(0, 1, 1, 60)
	ix := NewIndex(testLayout())
	ix.Insert(n)

	wide := testLayout()
	wide.TimeScale = 400
	ix.SetGeometry(wide)

	x, y := centre(wide, n)
	assert.Same(t, n, ix.Query(x, y, 0))
	assert.Equal(t, 1, ix.Len())
}
