package spatial

import (
	"math"

	"go-rolledit/score"
)

// Rect is an axis-aligned pixel rectangle
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether (x, y) lies inside r, edges included
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// Expand grows r by d on every side
func (r Rect) Expand(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// Overlaps reports whether r and o share any area or edge
func (r Rect) Overlaps(o Rect) bool {
	return r.X <= o.X+o.W && o.X <= r.X+r.W && r.Y <= o.Y+o.H && o.Y <= r.Y+r.H
}

// Geometry maps notes to pixels. The index asks it for every rectangle so
// bucket math always matches what the surface draws.
type Geometry interface {
	NoteRect(n *score.Note) Rect
	PitchAt(y float64) int
	BucketWidth() float64
}

// Layout is the piano-roll geometry: one row per pitch, highest pitch on top,
// time running left to right.
type Layout struct {
	NoteHeight   float64 // pixels per pitch row
	TimeScale    float64 // pixels per second
	PitchBase    int     // lowest drawn pitch
	VisibleRange int     // number of drawn pitch rows
	Bucket       float64 // horizontal bucket width in pixels
}

// DefaultLayout matches an 88-key piano starting at A0
func DefaultLayout() Layout {
	return Layout{
		NoteHeight:   18,
		TimeScale:    150,
		PitchBase:    21,
		VisibleRange: 88,
		Bucket:       100,
	}
}

// TopPitch is the pitch drawn on the first row
func (l Layout) TopPitch() int {
	return l.PitchBase + l.VisibleRange - 1
}

func (l Layout) PitchToY(pitch int) float64 {
	return float64(l.TopPitch()-pitch) * l.NoteHeight
}

// PitchAt returns the pitch of the row containing y. Rows outside the
// drawn range still map to a pitch so off-screen notes stay addressable.
func (l Layout) PitchAt(y float64) int {
	return l.TopPitch() - int(math.Floor(y/l.NoteHeight))
}

func (l Layout) TimeToX(t float64) float64 {
	return t * l.TimeScale
}

func (l Layout) XToTime(x float64) float64 {
	return x / l.TimeScale
}

// Height is the pixel height of the full keyboard
func (l Layout) Height() float64 {
	return float64(l.VisibleRange) * l.NoteHeight
}

// NoteRect leaves a one pixel gap between rows when rows are tall enough
func (l Layout) NoteRect(n *score.Note) Rect {
	h := l.NoteHeight
	if h > 1 {
		h--
	}
	return Rect{
		X: l.TimeToX(n.Time),
		Y: l.PitchToY(n.Midi),
		W: n.Duration * l.TimeScale,
		H: h,
	}
}

func (l Layout) BucketWidth() float64 {
	return l.Bucket
}
