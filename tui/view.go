package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-rolledit/score"
	"go-rolledit/spatial"
	"go-rolledit/widgets"
)

type cell struct {
	r     rune
	color lipgloss.Color
	bold  bool
}

func isBlackKey(pitch int) bool {
	switch pitch % 12 {
	case 1, 3, 6, 8, 10:
		return true
	}
	return false
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	statusStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	doc := m.Editor.Document()
	trackName := "-"
	if t, ok := doc.Track(m.track); ok {
		trackName = t.Name
	}
	group := ""
	if m.grouping {
		group = "  [group]"
	}
	header := headerStyle.Render(fmt.Sprintf("go-rolledit  %s  %d notes  track %d:%s  len %.3fs  %s @%.3fs%s",
		doc.Name, doc.NoteCount(), m.track+1, trackName, m.length,
		score.NoteName(m.curPitch), m.Editor.Layout().XToTime(float64(m.curCol)), group))

	var body string
	if m.showHelp {
		ek := m.Editor.Keys()
		body = widgets.RenderKeyHelp([]widgets.KeySection{
			widgets.Section("Cursor", m.keys.Left, m.keys.Right, m.keys.Up, m.keys.Down),
			widgets.Section("Notes", m.keys.Add, m.keys.Delete, m.keys.Shorter, m.keys.Longer, m.keys.Earlier, m.keys.Later),
			widgets.Section("Tracks", m.keys.Track, m.keys.NextTrack),
			widgets.Section("History", ek.Undo, ek.Redo, ek.SavePoint, ek.RestoreSavePoint, m.keys.Group, m.keys.Reset),
			widgets.Section("Files", m.keys.Export, m.keys.Snapshot),
			widgets.Section("", m.keys.Cancel, m.keys.Help, m.keys.Quit),
		})
	} else {
		panel := widgets.RenderHistory(m.Editor.History().Status(), m.Theme, m.rows()-1)
		panel = lipgloss.NewStyle().Width(panelWidth).Render(panel)
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderGrid(), " ", panel)
	}

	help := dimStyle.Render("hjkl:move  a:add  x:del  [ ]:len  < >:time  drag:move  ctrl+z/y:undo/redo  g:group  ?:help  q:quit")

	var out strings.Builder
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(body)
	out.WriteString("\n")
	out.WriteString(statusStyle.Render(m.status))
	out.WriteString("\n")
	out.WriteString(m.renderLegend())
	out.WriteString("\n")
	out.WriteString(help)
	return out.String()
}

func (m Model) renderLegend() string {
	var items []string
	for i, t := range m.Editor.Document().Tracks {
		name := t.Name
		if !t.Visible {
			name += " (hidden)"
		}
		if i == m.track {
			name = "*" + name
		}
		items = append(items, widgets.RenderLegendItem(m.Theme.Track(i), fmt.Sprintf("%d", i+1), name))
	}
	return strings.Join(items, "")
}

func (m Model) renderGrid() string {
	l := m.Editor.Layout()
	rows, cols := m.rows(), m.cols()
	sym := m.Theme.Symbols
	muted := m.Theme.Muted()

	beat := 0
	if l.TimeScale >= 1 {
		beat = int(l.TimeScale)
	}

	grid := make([][]cell, rows)
	for r := range grid {
		grid[r] = make([]cell, cols)
		for c := range grid[r] {
			ch := sym.GridEmpty
			if beat > 0 && (m.left+c)%beat == 0 {
				ch = sym.GridBeat
			}
			grid[r][c] = cell{r: ch, color: muted}
		}
	}

	yOff := l.TopPitch() - m.top
	view := spatial.Rect{X: float64(m.left), Y: float64(yOff), W: float64(cols), H: float64(rows)}
	dragged, _ := m.Editor.Dragging()

	for _, n := range m.Editor.Visible(view) {
		r := int(l.PitchToY(n.Midi)) - yOff
		if r < 0 || r >= rows {
			continue
		}
		start := int(math.Floor(l.TimeToX(n.Time))) - m.left
		end := int(math.Ceil(l.TimeToX(n.End()))) - m.left
		if end <= start {
			end = start + 1
		}
		color := m.Theme.Track(n.Track)
		for c := max(start, 0); c < min(end, cols); c++ {
			ch := sym.NoteBody
			if c == start {
				ch = sym.NoteHead
			}
			if n == dragged {
				grid[r][c] = cell{r: sym.Dragged, color: m.Theme.Active(), bold: true}
				continue
			}
			grid[r][c] = cell{r: ch, color: color}
		}
	}

	// cursor
	cr, cc := m.top-m.curPitch, m.curCol-m.left
	if cr >= 0 && cr < rows && cc >= 0 && cc < cols {
		c := &grid[cr][cc]
		if c.color == muted {
			c.r = sym.Cursor
			c.color = m.Theme.Cursor()
		}
		c.bold = true
	}

	lines := make([]string, rows)
	for r := range grid {
		var b strings.Builder
		pitch := m.top - r
		label := ""
		if pitch%12 == 0 {
			label = score.NoteName(pitch)
		}
		keyRune := sym.WhiteKey
		if isBlackKey(pitch) {
			keyRune = sym.BlackKey
		}
		b.WriteString(fmt.Sprintf("%-4s%c", label, keyRune))
		for _, c := range grid[r] {
			b.WriteString(lipgloss.NewStyle().Foreground(c.color).Bold(c.bold).Render(string(c.r)))
		}
		lines[r] = b.String()
	}
	return strings.Join(lines, "\n")
}
