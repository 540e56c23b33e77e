package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
	Tracks  []lipgloss.Color
}

type Symbols struct {
	// Notes
	NoteHead rune // ■ first cell of a note
	NoteBody rune // ▬ sustained cells
	Dragged  rune // ▓ note under the pointer

	// Grid
	GridEmpty rune // · empty cell
	GridBeat  rune // ┊ whole-second column
	Cursor    rune // ┼ keyboard cursor on empty cell

	// Keyboard strip
	WhiteKey rune // ▕
	BlackKey rune // █
}

// Per-track note colours, cycled when there are more tracks
var TrackColors = []lipgloss.Color{
	"#4caf50",
	"#2196f3",
	"#ff9800",
	"#e91e63",
	"#9c27b0",
}

// New creates a theme over palette (DefaultPalette when nil)
func New(palette *Palette) *Theme {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Theme{
		Palette: palette,
		Tracks:  TrackColors,
		Symbols: Symbols{
			NoteHead: '■',
			NoteBody: '▬',
			Dragged:  '▓',

			GridEmpty: '·',
			GridBeat:  '┊',
			Cursor:    '┼',

			WhiteKey: '▕',
			BlackKey: '█',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0 // background
	RoleSurface = 0.1 // panels
	RoleMuted   = 0.2 // grid, disabled items
	RoleFG      = 0.4 // readable text
	RoleAccent  = 0.5 // headings
	RoleCursor  = 0.6 // cursor, current history step
	RoleActive  = 0.7 // dragged note
	RoleWarning = 0.8 // unsaved changes
	RoleSuccess = 1.0 // save points
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) Surface() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSurface))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Cursor() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleCursor))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Track returns the note colour of track i
func (t *Theme) Track(i int) lipgloss.Color {
	if len(t.Tracks) == 0 {
		return t.Accent()
	}
	if i < 0 {
		i = -i
	}
	return t.Tracks[i%len(t.Tracks)]
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
