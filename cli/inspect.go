package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"go-rolledit/score"
	"go-rolledit/spatial"
)

var (
	inspectFormat string
	inspectNotes  bool
)

func init() {
	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "text", "output format: text, json or yaml")
	inspectCmd.Flags().BoolVarP(&inspectNotes, "notes", "n", false, "list every note (text format)")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print the tracks and notes of a MIDI file or snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := openDocument(args[0])
		if err != nil {
			return err
		}
		return inspect(cmd.OutOrStdout(), doc, inspectFormat)
	},
}

func inspect(w io.Writer, doc *score.Document, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(doc)
	case "text":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	index := spatial.NewIndex(cfg.PixelLayout())
	index.Build(doc.Notes())

	fmt.Fprintf(w, "%s  %.1f bpm  %.3fs\n", doc.Name, doc.Tempo, doc.Duration())
	fmt.Fprintf(w, "%d notes in %d tracks, %d index cells\n", doc.NoteCount(), len(doc.Tracks), index.Cells())
	for i, t := range doc.Tracks {
		hidden := ""
		if !t.Visible {
			hidden = " (hidden)"
		}
		fmt.Fprintf(w, "\n%d: %s  ch %d  %d notes%s\n", i+1, t.Name, t.Channel+1, len(t.Notes), hidden)
		if !inspectNotes {
			continue
		}
		for _, n := range t.Notes {
			fmt.Fprintf(w, "  %8.3f  %-4s %3d  %.3fs  vel %d\n", n.Time, n.Name, n.Midi, n.Duration, n.Velocity)
		}
	}
	return nil
}
