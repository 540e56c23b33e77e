package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-rolledit/score"
)

func TestEvents(t *testing.T) {
	f := newFixture(t, newDoc(score.NewNote(0, 1, 60)))
	m := f.m

	var statuses []Status
	var undone, redone []*score.Document
	var labels []string

	stopChange := m.OnChange(func(s Status) { statuses = append(statuses, s) })
	m.OnUndo(func(d *score.Document) { undone = append(undone, d) })
	m.OnRedo(func(d *score.Document) { redone = append(redone, d) })
	m.OnBatchStart(func(l string) { labels = append(labels, "start:"+l) })
	m.OnBatchEnd(func(l string) { labels = append(labels, "end:"+l) })

	m.BeginBatch("group")
	require.True(t, m.DeleteNote(0, 0))
	require.True(t, m.EndBatch())
	assert.Equal(t, []string{"start:group", "end:group"}, labels)

	require.NotEmpty(t, statuses)
	last := statuses[len(statuses)-1]
	assert.True(t, last.CanUndo)
	assert.Equal(t, 1, last.TotalSteps)

	require.True(t, m.Undo())
	require.Len(t, undone, 1)
	assert.Equal(t, 1, undone[0].NoteCount())

	// the event payload is a copy
	undone[0].Tracks[0].Notes[0].Midi = 10
	assert.Equal(t, 60, m.Document().Tracks[0].Notes[0].Midi)

	require.True(t, m.Redo())
	require.Len(t, redone, 1)
	assert.Equal(t, 0, redone[0].NoteCount())

	count := len(statuses)
	stopChange()
	require.True(t, m.Undo())
	assert.Len(t, statuses, count, "unsubscribed listener not called")
}

func TestPanickingListenerIsIsolated(t *testing.T) {
	f := newFixture(t, newDoc())
	m := f.m

	called := false
	m.OnChange(func(Status) { panic("boom") })
	m.OnChange(func(Status) { called = true })

	assert.NotPanics(t, func() {
		require.True(t, m.AddNote(0, score.NewNote(0, 1, 60), -1))
	})
	assert.True(t, called)
}

func TestStatusProjection(t *testing.T) {
	f := newFixture(t, newDoc(score.NewNote(0, 1, 60)))
	m := f.m

	st := m.Status()
	assert.False(t, st.HasUnsavedChanges)
	assert.Equal(t, -1, st.CurrentStep)
	assert.Equal(t, -1, st.CurrentSavePoint)

	require.True(t, m.ModifyNoteTime(0, 0, 2))
	st = m.Status()
	assert.True(t, st.HasUnsavedChanges)
	require.Len(t, st.History, 1)
	assert.Equal(t, KindModifyTime, st.History[0].Kind)
	assert.Equal(t, Single, st.History[0].Type)
	assert.NotEmpty(t, st.History[0].ID)
	assert.True(t, st.History[0].IsCurrent)
	assert.Contains(t, st.History[0].Label, "C4")
}
