package history

import (
	"errors"
	"fmt"
	"time"

	"go-rolledit/score"
)

var (
	ErrTrackNotFound = errors.New("track not found")
	ErrNoteNotFound  = errors.New("note not found")
	ErrUnknownChange = errors.New("unknown change kind")
	ErrReplayPanic   = errors.New("panic while replaying change")
)

// Kind tags what a Change or Entry records
type Kind string

const (
	KindAdd              Kind = "add"
	KindDelete           Kind = "delete"
	KindModify           Kind = "modify"
	KindModifyTime       Kind = "modifyTime"
	KindDragNote         Kind = "dragNote"
	KindToggleVisibility Kind = "toggleTrackVisibility"
	KindBatch            Kind = "batch"
)

// Mergeable reports whether consecutive entries of this kind may coalesce
func (k Kind) Mergeable() bool {
	switch k {
	case KindModify, KindAdd, KindDelete, KindModifyTime, KindDragNote:
		return true
	}
	return false
}

// Change is one reversible edit. Before and After are value snapshots,
// never live notes. Index is the note's position when the change was
// recorded; replay only trusts it after checking the note's key.
type Change struct {
	Kind       Kind       `json:"kind"`
	Track      int        `json:"track"`
	Index      int        `json:"index"`
	Before     score.Note `json:"before"`
	After      score.Note `json:"after"`
	WasVisible bool       `json:"wasVisible,omitempty"`
	Visible    bool       `json:"visible,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

func (c Change) String() string {
	switch c.Kind {
	case KindAdd:
		return fmt.Sprintf("add %s @%.3fs (track %d)", c.After.Name, c.After.Time, c.Track)
	case KindDelete:
		return fmt.Sprintf("delete %s @%.3fs (track %d)", c.Before.Name, c.Before.Time, c.Track)
	case KindToggleVisibility:
		return fmt.Sprintf("track %d visible=%t", c.Track, c.Visible)
	}
	return fmt.Sprintf("%s %s @%.3fs -> %s @%.3fs (track %d)",
		c.Kind, c.Before.Name, c.Before.Time, c.After.Name, c.After.Time, c.Track)
}

// apply runs c against the document in the given direction
func (m *Manager) apply(c Change, forward bool) error {
	switch c.Kind {
	case KindAdd:
		if forward {
			return m.insert(c.Track, c.After, c.Index)
		}
		return m.removeKey(c.Track, c.After, c.Index)

	case KindDelete:
		if forward {
			return m.removeKey(c.Track, c.Before, c.Index)
		}
		return m.insert(c.Track, c.Before, c.Index)

	case KindModify, KindDragNote, KindModifyTime:
		from, to := c.Before, c.After
		if !forward {
			from, to = to, from
		}
		t, i, err := m.locate(c.Track, from, c.Index)
		if err != nil {
			return err
		}
		if c.Kind == KindModifyTime {
			v := *t.Notes[i]
			v.Time = to.Time
			to = v
		}
		m.write(c.Track, t.Notes[i], to)
		return nil

	case KindToggleVisibility:
		t, ok := m.doc.Track(c.Track)
		if !ok {
			return fmt.Errorf("%w: %d", ErrTrackNotFound, c.Track)
		}
		if forward {
			t.Visible = c.Visible
		} else {
			t.Visible = c.WasVisible
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownChange, c.Kind)
}

// safeApply turns a panic during replay into an error
func (m *Manager) safeApply(c Change, forward bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrReplayPanic, r)
		}
	}()
	return m.apply(c, forward)
}

// replay applies changes in recording order (forward) or reversed order
// (undo). If one fails, the changes already applied are reverted so the
// document ends exactly where it started.
func (m *Manager) replay(changes []Change, forward bool) error {
	order := make([]int, len(changes))
	for i := range order {
		if forward {
			order[i] = i
		} else {
			order[i] = len(changes) - 1 - i
		}
	}

	for step, ci := range order {
		if err := m.safeApply(changes[ci], forward); err != nil {
			for j := step - 1; j >= 0; j-- {
				if rerr := m.safeApply(changes[order[j]], !forward); rerr != nil {
					return fmt.Errorf("change %d: %w (rollback failed: %v)", ci, err, rerr)
				}
			}
			return fmt.Errorf("change %d: %w", ci, err)
		}
	}
	return nil
}

// locate finds the note holding key on track. An exact value match wins,
// so notes sharing (time, midi) are told apart; the (time, midi) key alone
// is the fallback. The recorded position is tried first at each level.
func (m *Manager) locate(track int, key score.Note, hint int) (*score.Track, int, error) {
	t, ok := m.doc.Track(track)
	if !ok {
		return nil, -1, fmt.Errorf("%w: %d", ErrTrackNotFound, track)
	}
	inRange := hint >= 0 && hint < len(t.Notes)
	if inRange && t.Notes[hint].Same(key) {
		return t, hint, nil
	}
	if i := t.FindNote(key); i >= 0 {
		return t, i, nil
	}
	if inRange && t.Notes[hint].SameKey(key) {
		return t, hint, nil
	}
	if i := t.Find(key.Time, key.Midi); i >= 0 {
		return t, i, nil
	}
	return nil, -1, fmt.Errorf("%w: track %d time %g midi %d", ErrNoteNotFound, track, key.Time, key.Midi)
}

// insert adds a copy of v to the track and the index
func (m *Manager) insert(track int, v score.Note, position int) error {
	t, ok := m.doc.Track(track)
	if !ok {
		return fmt.Errorf("%w: %d", ErrTrackNotFound, track)
	}
	n := v
	n.Track = track
	t.Insert(&n, position)
	m.index.Insert(&n)
	return nil
}

func (m *Manager) removeKey(track int, key score.Note, hint int) error {
	t, i, err := m.locate(track, key, hint)
	if err != nil {
		return err
	}
	m.removeAt(t, i)
	return nil
}

func (m *Manager) removeAt(t *score.Track, i int) score.Note {
	m.index.Remove(t.Notes[i])
	return *t.RemoveAt(i)
}

// write replaces the note's content in place, keeping the index bracketed
// around the mutation and the track in time order.
func (m *Manager) write(track int, n *score.Note, v score.Note) {
	m.index.Remove(n)
	*n = v
	n.Track = track
	m.index.Insert(n)
	m.doc.Tracks[track].Sort()
}
