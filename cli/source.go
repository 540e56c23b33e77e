package cli

import (
	"path/filepath"
	"strings"

	"go-rolledit/midi"
	"go-rolledit/project"
	"go-rolledit/score"
)

// openDocument reads a .json snapshot or a Standard MIDI File
func openDocument(path string) (*score.Document, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		snap, err := project.ReadSnapshot(path)
		if err != nil {
			return nil, err
		}
		return snap.Document, nil
	}
	return midi.Load(path)
}

func projectName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func openStore() (*project.Store, error) {
	return project.NewStore(cfg.ProjectsDir)
}
