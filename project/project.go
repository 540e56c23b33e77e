package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go-rolledit/score"
)

const stampLayout = "2006-01-02_15-04-05"

// SaveInfo represents a saved snapshot file (for listing)
type SaveInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
}

// Snapshot is the on-disk form of one save
type Snapshot struct {
	Label    string          `json:"label,omitempty"`
	SavedAt  time.Time       `json:"savedAt"`
	Document *score.Document `json:"document"`
}

// Store keeps timestamped JSON snapshots, one folder per project
type Store struct {
	Dir string
	Now func() time.Time
}

// DefaultDir returns ~/.config/go-rolledit/projects
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-rolledit", "projects"), nil
}

// NewStore creates a store rooted at dir, or at DefaultDir when dir is empty
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return &Store{Dir: dir, Now: time.Now}, nil
}

// ProjectDir returns the path to a specific project
func (s *Store) ProjectDir(projectName string) string {
	return filepath.Join(s.Dir, sanitizeFilename(projectName))
}

// ListProjects returns all project folder names
func (s *Store) ListProjects() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}

	sort.Strings(projects)
	return projects, nil
}

// ListSaves returns timestamped saves for a project, newest first
func (s *Store) ListSaves(projectName string) ([]SaveInfo, error) {
	entries, err := os.ReadDir(s.ProjectDir(projectName))
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, err
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if info, ok := parseFilename(entry.Name()); ok {
			saves = append(saves, info)
		}
	}

	// Sort by timestamp, newest first
	sort.SliceStable(saves, func(i, j int) bool {
		return saves[i].Timestamp.After(saves[j].Timestamp)
	})

	return saves, nil
}

// parseFilename reads 2024-01-15_14-30-00.json or 2024-01-15_14-30-00_name.json
func parseFilename(name string) (SaveInfo, bool) {
	if !strings.HasSuffix(name, ".json") {
		return SaveInfo{}, false
	}
	baseName := strings.TrimSuffix(name, ".json")
	if len(baseName) < len(stampLayout) {
		return SaveInfo{}, false
	}

	ts, err := time.ParseInLocation(stampLayout, baseName[:len(stampLayout)], time.Local)
	if err != nil {
		return SaveInfo{}, false
	}

	saveName := ""
	if len(baseName) > len(stampLayout)+1 && baseName[len(stampLayout)] == '_' {
		saveName = baseName[len(stampLayout)+1:]
	}
	return SaveInfo{Filename: name, Name: saveName, Timestamp: ts}, true
}

func filename(ts time.Time, name string) string {
	stamp := ts.Format(stampLayout)
	if name == "" {
		return stamp + ".json"
	}
	return stamp + "_" + sanitizeFilename(name) + ".json"
}

// Save writes a snapshot of doc into the project folder
func (s *Store) Save(projectName, label string, doc *score.Document) (SaveInfo, error) {
	if projectName == "" {
		projectName = "untitled"
	}
	dir := s.ProjectDir(projectName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return SaveInfo{}, err
	}

	now := s.now()
	data, err := json.MarshalIndent(Snapshot{Label: label, SavedAt: now, Document: doc}, "", "  ")
	if err != nil {
		return SaveInfo{}, fmt.Errorf("encoding snapshot: %w", err)
	}

	name := filename(now, label)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return SaveInfo{}, err
	}
	info, _ := parseFilename(name)
	return info, nil
}

// Load reads a specific save (or most recent if filename empty)
func (s *Store) Load(projectName, filename string) (*Snapshot, error) {
	if filename == "" {
		saves, err := s.ListSaves(projectName)
		if err != nil || len(saves) == 0 {
			return nil, fmt.Errorf("no saves found in project %s", projectName)
		}
		filename = saves[0].Filename // saves are sorted newest first
	}

	return ReadSnapshot(filepath.Join(s.ProjectDir(projectName), filename))
}

// ReadSnapshot decodes a snapshot file from any location
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	if snap.Document == nil {
		return nil, fmt.Errorf("%s holds no document", name)
	}
	snap.Document.Normalize()
	return &snap, nil
}

// DeleteSave deletes a specific save file
func (s *Store) DeleteSave(projectName, filename string) error {
	return os.Remove(filepath.Join(s.ProjectDir(projectName), filename))
}

// RenameSave renames a save file (changes the name part, keeps timestamp)
func (s *Store) RenameSave(projectName, oldFilename, newName string) (string, error) {
	info, ok := parseFilename(oldFilename)
	if !ok {
		return "", fmt.Errorf("invalid save filename %q", oldFilename)
	}

	newFilename := filename(info.Timestamp, newName)
	dir := s.ProjectDir(projectName)
	if err := os.Rename(filepath.Join(dir, oldFilename), filepath.Join(dir, newFilename)); err != nil {
		return "", err
	}
	return newFilename, nil
}

// DeleteProject deletes entire project folder
func (s *Store) DeleteProject(name string) error {
	return os.RemoveAll(s.ProjectDir(name))
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		" ", "-", "/", "-", "\\", "-", ":", "-",
		"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
	)
	return replacer.Replace(name)
}
