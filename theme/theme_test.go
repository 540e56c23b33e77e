package theme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gpl = `GIMP Palette
Name: Ramp
Columns: 2
# comment
  0   0   0	black
255 255 255	white
300 0 0	out of range
`

func TestParseGPL(t *testing.T) {
	p, err := ParseGPL(strings.NewReader(gpl))
	require.NoError(t, err)
	assert.Equal(t, "Ramp", p.Name)
	require.Len(t, p.Colors, 2)

	assert.Equal(t, RGB{0, 0, 0}, p.Lookup(-1))
	assert.Equal(t, RGB{255, 255, 255}, p.Lookup(2))
	assert.Equal(t, RGB{127, 127, 127}, p.Lookup(0.5))
	assert.Equal(t, RGB{255, 255, 255}, p.Index(9))
}

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ramp.gpl")
	require.NoError(t, os.WriteFile(path, []byte(gpl), 0644))

	p, err := LoadGPL(path)
	require.NoError(t, err)
	assert.Len(t, p.Colors, 2)

	_, err = ParseGPL(strings.NewReader("GIMP Palette\n"))
	assert.Error(t, err)
	_, err = LoadGPL(filepath.Join(t.TempDir(), "none.gpl"))
	assert.Error(t, err)
}

func TestThemeColors(t *testing.T) {
	th := New(nil)
	assert.Equal(t, lipgloss.Color("#1a1b26"), th.BG())
	assert.Equal(t, lipgloss.Color("#9ece6a"), th.Success())
	assert.Equal(t, lipgloss.Color("#4caf50"), th.Track(0))
	assert.Equal(t, lipgloss.Color("#2196f3"), th.Track(6))
}
