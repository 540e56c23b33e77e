package spatial

import (
	"math"
	"sort"

	"go-rolledit/score"
)

// span records the cells a note was placed in, so removal never depends on
// the note's current (possibly already mutated) fields.
type span struct {
	pitch       int
	first, last int
}

// Index maps pitch -> time bucket -> set of notes whose rectangle overlaps
// that bucket. It stores references only; the document owns the notes.
type Index struct {
	geom    Geometry
	pitches map[int]map[int]map[*score.Note]struct{}
	placed  map[*score.Note]span
}

// NewIndex creates an empty index using g for all pixel math
func NewIndex(g Geometry) *Index {
	return &Index{
		geom:    g,
		pitches: make(map[int]map[int]map[*score.Note]struct{}),
		placed:  make(map[*score.Note]span),
	}
}

// Geometry returns the geometry the index currently uses
func (ix *Index) Geometry() Geometry {
	return ix.geom
}

// SetGeometry swaps the geometry and rebuilds every cell with it
func (ix *Index) SetGeometry(g Geometry) {
	notes := make([]*score.Note, 0, len(ix.placed))
	for n := range ix.placed {
		notes = append(notes, n)
	}
	ix.geom = g
	ix.Build(notes)
}

func (ix *Index) bucket(x float64) int {
	return int(math.Floor(x / ix.geom.BucketWidth()))
}

// Build clears the index and inserts every note
func (ix *Index) Build(notes []*score.Note) {
	ix.pitches = make(map[int]map[int]map[*score.Note]struct{})
	ix.placed = make(map[*score.Note]span, len(notes))
	for _, n := range notes {
		ix.Insert(n)
	}
}

// Insert adds n to every cell its rectangle overlaps. A note that is
// already indexed is moved to its current position.
func (ix *Index) Insert(n *score.Note) {
	if n == nil {
		return
	}
	if _, ok := ix.placed[n]; ok {
		ix.Remove(n)
	}

	r := ix.geom.NoteRect(n)
	s := span{pitch: n.Midi, first: ix.bucket(r.X), last: ix.bucket(r.X + r.W)}

	buckets, ok := ix.pitches[s.pitch]
	if !ok {
		buckets = make(map[int]map[*score.Note]struct{})
		ix.pitches[s.pitch] = buckets
	}
	for b := s.first; b <= s.last; b++ {
		cell, ok := buckets[b]
		if !ok {
			cell = make(map[*score.Note]struct{})
			buckets[b] = cell
		}
		cell[n] = struct{}{}
	}
	ix.placed[n] = s
}

// Remove drops n from every cell it was inserted into, pruning empty cells
// and empty pitches.
func (ix *Index) Remove(n *score.Note) {
	s, ok := ix.placed[n]
	if !ok {
		return
	}
	delete(ix.placed, n)

	buckets := ix.pitches[s.pitch]
	for b := s.first; b <= s.last; b++ {
		cell, ok := buckets[b]
		if !ok {
			continue
		}
		delete(cell, n)
		if len(cell) == 0 {
			delete(buckets, b)
		}
	}
	if len(buckets) == 0 {
		delete(ix.pitches, s.pitch)
	}
}

// Contains reports whether n is indexed
func (ix *Index) Contains(n *score.Note) bool {
	_, ok := ix.placed[n]
	return ok
}

// Len returns the number of indexed notes
func (ix *Index) Len() int {
	return len(ix.placed)
}

// Cells returns the number of occupied (pitch, bucket) cells
func (ix *Index) Cells() int {
	count := 0
	for _, buckets := range ix.pitches {
		count += len(buckets)
	}
	return count
}

// Query returns the note under (x, y), or nil
func (ix *Index) Query(x, y, tolerance float64) *score.Note {
	return ix.QueryFunc(x, y, tolerance, nil)
}

// QueryFunc is Query restricted to notes accepted by accept (nil accepts all).
// The pointer's bucket and both neighbours are scanned, since a note's
// expanded rectangle can reach past a bucket boundary. When several notes
// match, the one on the highest track wins, then the latest start.
func (ix *Index) QueryFunc(x, y, tolerance float64, accept func(*score.Note) bool) *score.Note {
	buckets, ok := ix.pitches[ix.geom.PitchAt(y)]
	if !ok {
		return nil
	}

	var best *score.Note
	b := ix.bucket(x)
	for nb := b - 1; nb <= b+1; nb++ {
		for n := range buckets[nb] {
			if accept != nil && !accept(n) {
				continue
			}
			if !ix.geom.NoteRect(n).Expand(tolerance).Contains(x, y) {
				continue
			}
			if best == nil || above(n, best) {
				best = n
			}
		}
	}
	return best
}

// above orders overlapping hits: later tracks draw over earlier ones
func above(a, b *score.Note) bool {
	if a.Track != b.Track {
		return a.Track > b.Track
	}
	if a.Time != b.Time {
		return a.Time > b.Time
	}
	return a.Duration < b.Duration
}

// Visible returns every indexed note overlapping view, each once, ordered by
// track then time.
func (ix *Index) Visible(view Rect) []*score.Note {
	g := ix.geom
	top := g.PitchAt(view.Y)
	bottom := g.PitchAt(view.Y + view.H)
	if bottom > top {
		top, bottom = bottom, top
	}
	first, last := ix.bucket(view.X), ix.bucket(view.X+view.W)

	seen := make(map[*score.Note]struct{})
	var out []*score.Note
	for pitch := bottom; pitch <= top; pitch++ {
		buckets, ok := ix.pitches[pitch]
		if !ok {
			continue
		}
		for b := first; b <= last; b++ {
			for n := range buckets[b] {
				if _, dup := seen[n]; dup {
					continue
				}
				seen[n] = struct{}{}
				if g.NoteRect(n).Overlaps(view) {
					out = append(out, n)
				}
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Track != out[j].Track {
			return out[i].Track < out[j].Track
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].Midi > out[j].Midi
	})
	return out
}
