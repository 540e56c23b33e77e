package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-rolledit/history"
	"go-rolledit/theme"
)

// RenderHistory draws the undo stack, newest at the bottom, showing at most
// rows entries around the current step. A leading "original" row stands for
// step -1.
func RenderHistory(st history.Status, th *theme.Theme, rows int) string {
	cur := lipgloss.NewStyle().Foreground(th.Cursor()).Bold(true)
	muted := lipgloss.NewStyle().Foreground(th.Muted())
	normal := lipgloss.NewStyle().Foreground(th.FG())
	save := lipgloss.NewStyle().Foreground(th.Success())

	type row struct {
		text  string
		style lipgloss.Style
	}
	all := []row{{text: "  original", style: normal}}
	if st.CurrentStep == -1 {
		all[0] = row{text: "> original", style: cur}
	}

	for i, e := range st.History {
		marker := "  "
		style := normal
		switch {
		case e.IsCurrent:
			marker = "> "
			style = cur
		case i > st.CurrentStep:
			style = muted // redo-able future
		}
		flag := " "
		if e.IsSavePoint {
			flag = save.Render("★")
		}
		label := e.Label
		if e.Changes > 1 {
			label = fmt.Sprintf("%s (%d)", label, e.Changes)
		}
		all = append(all, row{text: fmt.Sprintf("%s%s %s", marker, flag, label), style: style})
	}

	// window around the current row
	start := 0
	if rows > 0 && len(all) > rows {
		start = min(max(0, st.CurrentStep+1-rows/2), len(all)-rows)
	}
	end := len(all)
	if rows > 0 {
		end = min(len(all), start+rows)
	}

	var lines []string
	for _, r := range all[start:end] {
		lines = append(lines, r.style.Render(r.text))
	}

	status := fmt.Sprintf("step %d/%d", st.CurrentStep+1, st.TotalSteps)
	if st.HasUnsavedChanges {
		status += lipgloss.NewStyle().Foreground(th.Warning()).Render(" ●")
	}
	if st.BatchDepth > 0 {
		status += fmt.Sprintf(" [batch %d]", st.BatchDepth)
	}
	lines = append(lines, muted.Render(status))
	return strings.Join(lines, "\n")
}
