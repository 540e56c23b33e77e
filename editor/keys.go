package editor

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds the history shortcuts every surface shares
type KeyMap struct {
	Undo             key.Binding
	Redo             key.Binding
	SavePoint        key.Binding
	RestoreSavePoint key.Binding
}

// DefaultKeyMap binds both the ctrl and the cmd spelling of each shortcut
func DefaultKeyMap() KeyMap {
	return NewKeyMap(
		[]string{"ctrl+z", "cmd+z"},
		[]string{"ctrl+y", "cmd+y", "ctrl+shift+z", "cmd+shift+z"},
		[]string{"s"},
		[]string{"r"},
	)
}

// NewKeyMap builds bindings from key names; empty lists fall back to defaults
func NewKeyMap(undo, redo, savePoint, restore []string) KeyMap {
	return KeyMap{
		Undo:             binding("undo", undo, "ctrl+z", "cmd+z"),
		Redo:             binding("redo", redo, "ctrl+y", "cmd+y", "ctrl+shift+z", "cmd+shift+z"),
		SavePoint:        binding("save point", savePoint, "s"),
		RestoreSavePoint: binding("restore save point", restore, "r"),
	}
}

func binding(help string, keys []string, fallback ...string) key.Binding {
	if len(keys) == 0 {
		keys = fallback
	}
	normalized := make([]string, len(keys))
	for i, k := range keys {
		normalized[i] = NormalizeKey(k)
	}
	return key.NewBinding(
		key.WithKeys(normalized...),
		key.WithHelp(normalized[0], help),
	)
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Undo, k.Redo}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Undo, k.Redo}, {k.SavePoint, k.RestoreSavePoint}}
}

// keyName lets plain strings go through key.Matches
type keyName string

func (k keyName) String() string { return string(k) }

// NormalizeKey lower-cases a key name and maps "command"/"meta" to "cmd",
// so "Command+Z" and "cmd+z" match the same binding.
func NormalizeKey(k string) string {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(k)), "+")
	for i, p := range parts {
		switch p {
		case "command", "meta", "super":
			parts[i] = "cmd"
		case "control":
			parts[i] = "ctrl"
		}
	}
	return strings.Join(parts, "+")
}
