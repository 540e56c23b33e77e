package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"go-rolledit/midi"
	"go-rolledit/score"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeSong(t *testing.T, dir string) string {
	t.Helper()
	doc := score.NewDocument("song")
	lead := doc.AddTrack("Lead")
	lead.Insert(&score.Note{Time: 0, Duration: 0.5, Midi: 60, Velocity: 90}, -1)
	lead.Insert(&score.Note{Time: 0.5, Duration: 0.5, Midi: 64, Velocity: 90}, -1)
	bass := doc.AddTrack("Bass")
	bass.Insert(&score.Note{Time: 0, Duration: 1, Midi: 36, Velocity: 90}, -1)
	bass.Visible = false
	doc.Normalize()

	path := filepath.Join(dir, "song.mid")
	require.NoError(t, midi.Export(path, doc, midi.ExportOptions{}))
	return path
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	t.Setenv("ROLLEDIT_PROJECTSDIR", filepath.Join(dir, "projects"))
	song := writeSong(t, dir)

	t.Run("inspect yaml", func(t *testing.T) {
		out, err := run(t, "inspect", song, "--format", "yaml", "--config", cfgPath)
		require.NoError(t, err)

		var doc score.Document
		require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
		assert.Equal(t, "song", doc.Name)
		require.Len(t, doc.Tracks, 2)
		assert.Equal(t, "Lead", doc.Tracks[0].Name)
		assert.Len(t, doc.Tracks[0].Notes, 2)
		assert.Equal(t, "E4", doc.Tracks[0].Notes[1].Name)
	})

	t.Run("inspect text", func(t *testing.T) {
		out, err := run(t, "inspect", song, "--format", "text", "--notes", "--config", cfgPath)
		require.NoError(t, err)
		assert.Contains(t, out, "3 notes in 2 tracks")
		assert.Contains(t, out, "Lead")
		assert.Contains(t, out, "C2")
	})

	t.Run("inspect bad format", func(t *testing.T) {
		_, err := run(t, "inspect", song, "--format", "xml", "--config", cfgPath)
		assert.Error(t, err)
	})

	var saved string
	t.Run("snapshots save and list", func(t *testing.T) {
		out, err := run(t, "snapshots", "save", "song", song, "--label", "first take", "--config", cfgPath)
		require.NoError(t, err)
		saved = strings.TrimSpace(out)
		assert.True(t, strings.HasSuffix(saved, "_first-take.json"), saved)

		out, err = run(t, "snapshots", "list", "song", "--config", cfgPath)
		require.NoError(t, err)
		assert.Contains(t, out, "first-take")
		assert.Contains(t, out, saved)

		out, err = run(t, "snapshots", "list", "--config", cfgPath)
		require.NoError(t, err)
		assert.Equal(t, "song\n", out)
	})

	t.Run("export newest snapshot", func(t *testing.T) {
		target := filepath.Join(dir, "out.mid")
		out, err := run(t, "export", "song", target, "--skip-hidden", "--config", cfgPath)
		require.NoError(t, err)
		assert.Contains(t, out, "wrote 3 notes")

		doc, err := midi.Load(target)
		require.NoError(t, err)
		assert.Equal(t, 3, doc.NoteCount(), "tracks read from midi are visible")
	})

	t.Run("snapshots rm", func(t *testing.T) {
		_, err := run(t, "snapshots", "rm", "song", saved, "--config", cfgPath)
		require.NoError(t, err)

		out, err := run(t, "snapshots", "list", "song", "--config", cfgPath)
		require.NoError(t, err)
		assert.NotContains(t, out, saved)
	})
}
