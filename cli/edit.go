package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go-rolledit/editor"
	"go-rolledit/score"
	"go-rolledit/theme"
	"go-rolledit/tui"
)

var (
	editOut      string
	editProject  string
	editSnapshot string
)

func init() {
	editCmd.Flags().StringVarP(&editOut, "out", "o", "", "export target for the w key (default <name>-edited.mid)")
	editCmd.Flags().StringVarP(&editProject, "project", "p", "", "snapshot project (default the file name)")
	editCmd.Flags().StringVar(&editSnapshot, "snapshot", "", "open a saved snapshot of the project instead of the file (\"latest\" for the newest)")
	rootCmd.AddCommand(editCmd)
}

var editCmd = &cobra.Command{
	Use:   "edit [file]",
	Short: "Edit a MIDI file or snapshot in the terminal piano roll",
	Long: `Open a Standard MIDI File (or a .json snapshot) in the terminal piano roll.
A missing file starts an empty document with one track.

Without an argument the last edited file is reopened.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.UI.LastFile
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			return errors.New("no file given and no previous file to reopen")
		}
		if editProject == "" {
			editProject = projectName(path)
		}
		if editOut == "" {
			editOut = filepath.Join(filepath.Dir(path), projectName(path)+"-edited.mid")
		}

		store, err := openStore()
		if err != nil {
			return err
		}

		var doc *score.Document
		switch {
		case editSnapshot != "":
			name := editSnapshot
			if name == "latest" {
				name = ""
			}
			snap, err := store.Load(editProject, name)
			if err != nil {
				return err
			}
			doc = snap.Document
		default:
			doc, err = openDocument(path)
			if errors.Is(err, fs.ErrNotExist) {
				log.WithField("path", path).Info("starting a new document")
				doc = score.NewDocument(projectName(path))
				err = nil
			}
			if err != nil {
				return err
			}
		}
		if len(doc.Tracks) == 0 {
			doc.AddTrack("")
		}

		log.WithFields(logrus.Fields{
			"document": doc.Name,
			"tracks":   len(doc.Tracks),
			"notes":    doc.NoteCount(),
		}).Debug("opening editor")

		opts := cfg.EditorOptions()
		opts.Layout = cfg.TerminalLayout()
		opts.Tolerance = 0
		ed := editor.New(doc, opts)

		th, err := loadTheme()
		if err != nil {
			return err
		}

		err = tui.Run(ed, tui.Options{
			Theme:         th,
			ExportPath:    editOut,
			Store:         store,
			Project:       editProject,
			Autosave:      cfg.UI.Autosave,
			AutosaveDelay: cfg.AutosaveDelay(),
		})
		if err != nil {
			return fmt.Errorf("running editor: %w", err)
		}

		cfg.UI.LastFile = path
		if err := cfg.Save(); err != nil {
			log.WithError(err).Warn("could not remember last file")
		}
		return nil
	},
}

func loadTheme() (*theme.Theme, error) {
	if cfg.UI.Palette == "" {
		return theme.New(nil), nil
	}
	p, err := theme.LoadGPL(cfg.UI.Palette)
	if err != nil {
		return nil, fmt.Errorf("loading palette: %w", err)
	}
	return theme.New(p), nil
}
