package history

import (
	"slices"

	"go-rolledit/debug"
	"go-rolledit/score"
)

type subscriber[T any] struct {
	id int
	fn func(T)
}

// listeners is one typed event stream
type listeners[T any] struct {
	seq  int
	subs []subscriber[T]
}

func (l *listeners[T]) add(fn func(T)) (unsubscribe func()) {
	l.seq++
	id := l.seq
	l.subs = append(l.subs, subscriber[T]{id: id, fn: fn})
	return func() {
		l.subs = slices.DeleteFunc(l.subs, func(s subscriber[T]) bool { return s.id == id })
	}
}

// emit calls every subscriber registered at the time of the call. A
// panicking subscriber is logged and skipped.
func (l *listeners[T]) emit(v T) {
	for _, s := range slices.Clone(l.subs) {
		func() {
			defer func() {
				if r := recover(); r != nil {
					debug.Log("history", "listener %d panicked: %v", s.id, r)
				}
			}()
			s.fn(v)
		}()
	}
}

// OnChange fires after every successful mutation, merge, undo, redo,
// save point, reset or load.
func (m *Manager) OnChange(fn func(Status)) (unsubscribe func()) {
	return m.changed.add(fn)
}

// OnUndo fires with a copy of the document after an undo
func (m *Manager) OnUndo(fn func(*score.Document)) (unsubscribe func()) {
	return m.undone.add(fn)
}

// OnRedo fires with a copy of the document after a redo
func (m *Manager) OnRedo(fn func(*score.Document)) (unsubscribe func()) {
	return m.redone.add(fn)
}

func (m *Manager) OnBatchStart(fn func(label string)) (unsubscribe func()) {
	return m.batchStart.add(fn)
}

func (m *Manager) OnBatchEnd(fn func(label string)) (unsubscribe func()) {
	return m.batchEnd.add(fn)
}

func (m *Manager) notifyChange() {
	if len(m.changed.subs) == 0 {
		return
	}
	m.changed.emit(m.Status())
}
