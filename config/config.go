package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"go-rolledit/editor"
	"go-rolledit/history"
	"go-rolledit/spatial"
)

// EnvPrefix is prepended to every environment override, e.g.
// ROLLEDIT_HISTORY_MAXHISTORYSIZE=50
const EnvPrefix = "ROLLEDIT"

// LayoutConfig is the pixel geometry of the piano roll
type LayoutConfig struct {
	NoteHeight   float64 `json:"noteHeight" mapstructure:"noteHeight"`
	TimeScale    float64 `json:"timeScale" mapstructure:"timeScale"`
	PitchBase    int     `json:"pitchBase" mapstructure:"pitchBase"`
	VisibleRange int     `json:"visibleRange" mapstructure:"visibleRange"`
	BucketWidth  float64 `json:"bucketWidth" mapstructure:"bucketWidth"`
	Tolerance    float64 `json:"tolerance" mapstructure:"tolerance"`
}

// HistoryConfig bounds the undo stack
type HistoryConfig struct {
	MaxHistorySize   int `json:"maxHistorySize" mapstructure:"maxHistorySize"`
	MergeThresholdMs int `json:"mergeThresholdMs" mapstructure:"mergeThresholdMs"`
	MaxSavePoints    int `json:"maxSavePoints" mapstructure:"maxSavePoints"`
}

// KeysConfig lists key names per shortcut
type KeysConfig struct {
	Undo             []string `json:"undo" mapstructure:"undo"`
	Redo             []string `json:"redo" mapstructure:"redo"`
	SavePoint        []string `json:"savePoint" mapstructure:"savePoint"`
	RestoreSavePoint []string `json:"restoreSavePoint" mapstructure:"restoreSavePoint"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette             string  `json:"palette,omitempty" mapstructure:"palette"`
	Autosave            bool    `json:"autosave" mapstructure:"autosave"`
	AutosaveDelayMs     int     `json:"autosaveDelayMs" mapstructure:"autosaveDelayMs"`
	LastFile            string  `json:"lastFile,omitempty" mapstructure:"lastFile"`
	TerminalTimeScale   float64 `json:"terminalTimeScale" mapstructure:"terminalTimeScale"`     // columns per second
	TerminalBucketWidth float64 `json:"terminalBucketWidth" mapstructure:"terminalBucketWidth"` // columns per bucket
}

// Config is the main configuration structure
type Config struct {
	Layout      LayoutConfig  `json:"layout" mapstructure:"layout"`
	History     HistoryConfig `json:"history" mapstructure:"history"`
	Keys        KeysConfig    `json:"keys" mapstructure:"keys"`
	UI          UIConfig      `json:"ui" mapstructure:"ui"`
	ProjectsDir string        `json:"projectsDir,omitempty" mapstructure:"projectsDir"`

	path string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	l := spatial.DefaultLayout()
	return &Config{
		Layout: LayoutConfig{
			NoteHeight:   l.NoteHeight,
			TimeScale:    l.TimeScale,
			PitchBase:    l.PitchBase,
			VisibleRange: l.VisibleRange,
			BucketWidth:  l.Bucket,
			Tolerance:    3,
		},
		History: HistoryConfig{
			MaxHistorySize:   100,
			MergeThresholdMs: 500,
			MaxSavePoints:    3,
		},
		Keys: KeysConfig{
			Undo:             []string{"ctrl+z", "cmd+z"},
			Redo:             []string{"ctrl+y", "cmd+y", "ctrl+shift+z", "cmd+shift+z"},
			SavePoint:        []string{"s"},
			RestoreSavePoint: []string{"r"},
		},
		UI: UIConfig{
			AutosaveDelayMs:     1500,
			TerminalTimeScale:   8,
			TerminalBucketWidth: 8,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-rolledit"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("layout.noteHeight", d.Layout.NoteHeight)
	v.SetDefault("layout.timeScale", d.Layout.TimeScale)
	v.SetDefault("layout.pitchBase", d.Layout.PitchBase)
	v.SetDefault("layout.visibleRange", d.Layout.VisibleRange)
	v.SetDefault("layout.bucketWidth", d.Layout.BucketWidth)
	v.SetDefault("layout.tolerance", d.Layout.Tolerance)

	v.SetDefault("history.maxHistorySize", d.History.MaxHistorySize)
	v.SetDefault("history.mergeThresholdMs", d.History.MergeThresholdMs)
	v.SetDefault("history.maxSavePoints", d.History.MaxSavePoints)

	v.SetDefault("keys.undo", d.Keys.Undo)
	v.SetDefault("keys.redo", d.Keys.Redo)
	v.SetDefault("keys.savePoint", d.Keys.SavePoint)
	v.SetDefault("keys.restoreSavePoint", d.Keys.RestoreSavePoint)

	v.SetDefault("ui.palette", "")
	v.SetDefault("ui.autosave", false)
	v.SetDefault("ui.autosaveDelayMs", d.UI.AutosaveDelayMs)
	v.SetDefault("ui.lastFile", "")
	v.SetDefault("ui.terminalTimeScale", d.UI.TerminalTimeScale)
	v.SetDefault("ui.terminalBucketWidth", d.UI.TerminalBucketWidth)

	v.SetDefault("projectsDir", "")
}

// Load reads the config from path (ConfigPath when empty), applying
// ROLLEDIT_* environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = p
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}
	cfg.path = path
	return &cfg, nil
}

// Path returns the file the config was loaded from
func (c *Config) Path() string {
	return c.path
}

// Save writes the config back to where it was loaded from, or ConfigPath
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// PixelLayout builds the pixel geometry used by the index and the surface
func (c *Config) PixelLayout() spatial.Layout {
	return spatial.Layout{
		NoteHeight:   c.Layout.NoteHeight,
		TimeScale:    c.Layout.TimeScale,
		PitchBase:    c.Layout.PitchBase,
		VisibleRange: c.Layout.VisibleRange,
		Bucket:       c.Layout.BucketWidth,
	}
}

// TerminalLayout is the cell geometry: one row per pitch over the full MIDI
// range, TerminalTimeScale columns per second.
func (c *Config) TerminalLayout() spatial.Layout {
	return spatial.Layout{
		NoteHeight:   1,
		TimeScale:    c.UI.TerminalTimeScale,
		PitchBase:    0,
		VisibleRange: 128,
		Bucket:       c.UI.TerminalBucketWidth,
	}
}

func (c *Config) HistoryOptions() history.Options {
	opts := history.DefaultOptions()
	opts.MaxHistorySize = c.History.MaxHistorySize
	opts.MergeThreshold = time.Duration(c.History.MergeThresholdMs) * time.Millisecond
	opts.MaxSavePoints = c.History.MaxSavePoints
	return opts
}

func (c *Config) KeyMap() editor.KeyMap {
	return editor.NewKeyMap(c.Keys.Undo, c.Keys.Redo, c.Keys.SavePoint, c.Keys.RestoreSavePoint)
}

// EditorOptions combines layout, tolerance, history and keys
func (c *Config) EditorOptions() editor.Options {
	return editor.Options{
		Layout:    c.PixelLayout(),
		Tolerance: c.Layout.Tolerance,
		History:   c.HistoryOptions(),
		Keys:      c.KeyMap(),
	}
}

// AutosaveDelay returns the debounce delay for autosave
func (c *Config) AutosaveDelay() time.Duration {
	return time.Duration(c.UI.AutosaveDelayMs) * time.Millisecond
}
