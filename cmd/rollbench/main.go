// rollbench compares spatial-index hit testing with a linear scan and
// times history replay on a large document.
package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"runtime"
	"strconv"
	"time"

	"go-rolledit/editor"
	"go-rolledit/midi"
	"go-rolledit/score"
	"go-rolledit/spatial"
)

const (
	defaultNotes = 50000
	queries      = 100000
	edits        = 2000
	tolerance    = 3
)

type BenchResult struct {
	Name     string
	Duration time.Duration
	Ops      int
	Extra    string
}

func (r BenchResult) String() string {
	if r.Ops > 0 {
		perOp := r.Duration / time.Duration(r.Ops)
		return fmt.Sprintf("%-32s %12v  (%d ops, %v/op) %s", r.Name, r.Duration.Round(time.Microsecond), r.Ops, perOp, r.Extra)
	}
	return fmt.Sprintf("%-32s %12v  %s", r.Name, r.Duration.Round(time.Microsecond), r.Extra)
}

func main() {
	var doc *score.Document
	switch {
	case len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "help"):
		usage()
		return
	case len(os.Args) > 1:
		if n, err := strconv.Atoi(os.Args[1]); err == nil {
			doc = randomDocument(n)
			break
		}
		d, err := midi.Load(os.Args[1])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		doc = d
	default:
		doc = randomDocument(defaultNotes)
	}

	fmt.Println("rollbench")
	fmt.Println("=========")
	fmt.Printf("Document: %s, %d notes in %d tracks, %.1fs\n", doc.Name, doc.NoteCount(), len(doc.Tracks), doc.Duration())
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Println()

	layout := spatial.DefaultLayout()
	notes := doc.Notes()
	if len(notes) == 0 {
		fmt.Println("no notes")
		return
	}

	index := spatial.NewIndex(layout)
	start := time.Now()
	index.Build(notes)
	fmt.Println(BenchResult{Name: "index build", Duration: time.Since(start), Ops: len(notes),
		Extra: fmt.Sprintf("%d cells", index.Cells())})

	// half the query points land on notes, half on random points
	rng := rand.New(rand.NewPCG(1, 2))
	width := layout.TimeToX(doc.Duration())
	type point struct{ x, y float64 }
	points := make([]point, queries)
	for i := range points {
		if i%2 == 0 {
			r := layout.NoteRect(notes[rng.IntN(len(notes))])
			points[i] = point{r.X + rng.Float64()*r.W, r.Y + rng.Float64()*r.H}
		} else {
			points[i] = point{rng.Float64() * width, rng.Float64() * layout.Height()}
		}
	}

	hits := 0
	start = time.Now()
	for _, p := range points {
		if index.Query(p.x, p.y, tolerance) != nil {
			hits++
		}
	}
	fmt.Println(BenchResult{Name: "index query", Duration: time.Since(start), Ops: queries,
		Extra: fmt.Sprintf("%d hits", hits)})

	linear := 0
	start = time.Now()
	for _, p := range points {
		if scan(layout, notes, p.x, p.y) != nil {
			linear++
		}
	}
	fmt.Println(BenchResult{Name: "linear scan", Duration: time.Since(start), Ops: queries,
		Extra: fmt.Sprintf("%d hits", linear)})
	if hits != linear {
		fmt.Printf("MISMATCH: index found %d, scan found %d\n", hits, linear)
	}
	fmt.Println()

	benchHistory(doc, rng)
}

// scan is the index-free reference: test every note
func scan(l spatial.Layout, notes []*score.Note, x, y float64) *score.Note {
	for _, n := range notes {
		if l.PitchAt(y) == n.Midi && l.NoteRect(n).Expand(tolerance).Contains(x, y) {
			return n
		}
	}
	return nil
}

func benchHistory(doc *score.Document, rng *rand.Rand) {
	opts := editor.DefaultOptions()
	opts.History.MaxHistorySize = edits
	opts.History.MergeThreshold = 0
	ed := editor.New(doc, opts)
	hist := ed.History()
	layout := ed.Layout()

	start := time.Now()
	done := 0
	for i := 0; i < edits; i++ {
		notes := ed.Document().Notes()
		r := layout.NoteRect(notes[rng.IntN(len(notes))])
		if !ed.BeginDrag(r.X+1, r.Y+1) {
			continue
		}
		for step := 1; step <= 10; step++ {
			ed.DragTo(r.X+1+float64(step*3), r.Y+1)
		}
		if ed.EndDrag() {
			done++
		}
	}
	fmt.Println(BenchResult{Name: "drag gestures", Duration: time.Since(start), Ops: max(done, 1),
		Extra: fmt.Sprintf("%d recorded", len(hist.Entries()))})

	start = time.Now()
	undone := 0
	for hist.Undo() {
		undone++
	}
	fmt.Println(BenchResult{Name: "undo all", Duration: time.Since(start), Ops: max(undone, 1)})

	start = time.Now()
	redone := 0
	for hist.Redo() {
		redone++
	}
	fmt.Println(BenchResult{Name: "redo all", Duration: time.Since(start), Ops: max(redone, 1)})
}

func randomDocument(n int) *score.Document {
	rng := rand.New(rand.NewPCG(42, 7))
	doc := score.NewDocument("random")
	for range 4 {
		doc.AddTrack("")
	}
	for i := 0; i < n; i++ {
		t := doc.Tracks[i%len(doc.Tracks)]
		note := score.NewNote(float64(rng.IntN(n/4+1))*0.125, 0.125*float64(1+rng.IntN(8)), 21+rng.IntN(88))
		t.Notes = append(t.Notes, &note)
	}
	doc.Normalize()
	return doc
}

func usage() {
	fmt.Println("rollbench [notes|file.mid]")
	fmt.Println("")
	fmt.Println("  notes      size of a random document (default 50000)")
	fmt.Println("  file.mid   benchmark a real file instead")
}
