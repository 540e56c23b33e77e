package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-rolledit/history"
	"go-rolledit/theme"
)

func TestSectionSkipsDisabled(t *testing.T) {
	undo := key.NewBinding(key.WithKeys("ctrl+z"), key.WithHelp("ctrl+z", "undo"))
	off := key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "nothing"), key.WithDisabled())

	sec := Section("History", undo, off)
	require.Len(t, sec.Keys, 1)
	assert.Equal(t, KeyBinding{Key: "ctrl+z", Desc: "undo"}, sec.Keys[0])

	out := RenderKeyHelp([]KeySection{sec})
	assert.Equal(t, "History\n  ctrl+z       undo", out)
}

func TestRenderHistory(t *testing.T) {
	st := history.Status{
		CanUndo:           true,
		CanRedo:           true,
		CurrentStep:       0,
		TotalSteps:        2,
		HasUnsavedChanges: true,
		CurrentSavePoint:  0,
		SavePoints:        []int{0},
		History: []history.EntryInfo{
			{Label: "Add note", Changes: 1, IsCurrent: true, IsSavePoint: true},
			{Label: "Batch", Changes: 3},
		},
	}

	out := RenderHistory(st, theme.New(nil), 0)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "original")
	assert.Contains(t, lines[1], "> ")
	assert.Contains(t, lines[1], "★")
	assert.Contains(t, lines[1], "Add note")
	assert.Contains(t, lines[2], "Batch (3)")
	assert.Contains(t, lines[3], "step 1/2")
}

func TestRenderHistoryWindow(t *testing.T) {
	st := history.Status{CurrentStep: 9, TotalSteps: 10}
	for i := 0; i < 10; i++ {
		st.History = append(st.History, history.EntryInfo{Label: "Move note", Changes: 1, IsCurrent: i == 9})
	}

	out := RenderHistory(st, theme.New(nil), 4)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5, "four rows plus status")
	assert.NotContains(t, out, "original")
	assert.Contains(t, lines[3], "> ")
}
