package tui

import (
	"time"

	"github.com/bep/debounce"
	tea "github.com/charmbracelet/bubbletea"

	"go-rolledit/debug"
	"go-rolledit/project"
	"go-rolledit/score"
)

// SavedMsg reports a finished snapshot write
type SavedMsg struct {
	Info project.SaveInfo
	Err  error
}

// autosaver writes a snapshot once edits have been quiet for the delay.
// Snapshots are cloned on the UI goroutine; only the write runs on the
// timer goroutine.
type autosaver struct {
	store   *project.Store
	project string
	later   func(func())
	out     chan SavedMsg
}

func newAutosaver(store *project.Store, projectName string, delay time.Duration) *autosaver {
	if delay <= 0 {
		delay = 1500 * time.Millisecond
	}
	return &autosaver{
		store:   store,
		project: projectName,
		later:   debounce.New(delay),
		out:     make(chan SavedMsg, 4),
	}
}

func (a *autosaver) schedule(doc *score.Document) {
	a.later(func() {
		a.save("autosave", doc)
	})
}

func (a *autosaver) save(label string, doc *score.Document) {
	info, err := a.store.Save(a.project, label, doc)
	if err != nil {
		debug.Log("autosave", "save %s failed: %v", a.project, err)
	} else {
		debug.Log("autosave", "saved %s", info.Filename)
	}
	select {
	case a.out <- SavedMsg{Info: info, Err: err}:
	default:
	}
}

// ListenForSaves waits for the next snapshot write
func ListenForSaves(ch <-chan SavedMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}
