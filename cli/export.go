package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-rolledit/midi"
	"go-rolledit/score"
)

var (
	exportSave       string
	exportSkipHidden bool
)

func init() {
	exportCmd.Flags().StringVarP(&exportSave, "save", "s", "", "snapshot file inside the project (default newest)")
	exportCmd.Flags().BoolVar(&exportSkipHidden, "skip-hidden", false, "leave hidden tracks out")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <project|snapshot.json> <out.mid>",
	Short: "Write a snapshot as a Standard MIDI File",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := exportSource(args[0])
		if err != nil {
			return err
		}
		if err := midi.Export(args[1], doc, midi.ExportOptions{SkipHidden: exportSkipHidden}); err != nil {
			return err
		}
		log.WithField("path", args[1]).Info("exported")
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d notes to %s\n", doc.NoteCount(), args[1])
		return nil
	},
}

func exportSource(src string) (*score.Document, error) {
	if projectName(src) != src {
		return openDocument(src)
	}
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	snap, err := store.Load(src, exportSave)
	if err != nil {
		return nil, err
	}
	return snap.Document, nil
}
