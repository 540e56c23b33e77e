package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the piano-roll bindings. History shortcuts live in
// editor.KeyMap and are matched before these.
type KeyMap struct {
	Left      key.Binding
	Right     key.Binding
	Up        key.Binding
	Down      key.Binding
	Add       key.Binding
	Delete    key.Binding
	Shorter   key.Binding
	Longer    key.Binding
	Earlier   key.Binding
	Later     key.Binding
	Track     key.Binding
	NextTrack key.Binding
	Group     key.Binding
	Reset     key.Binding
	Export    key.Binding
	Snapshot  key.Binding
	Cancel    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "earlier"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "later"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "pitch up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "pitch down"),
		),
		Add: key.NewBinding(
			key.WithKeys("a", " "),
			key.WithHelp("a/space", "add note"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "delete note"),
		),
		Shorter: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "shorter"),
		),
		Longer: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "longer"),
		),
		Earlier: key.NewBinding(
			key.WithKeys("<", ","),
			key.WithHelp("<", "move note earlier"),
		),
		Later: key.NewBinding(
			key.WithKeys(">", "."),
			key.WithHelp(">", "move note later"),
		),
		Track: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "show/hide track"),
		),
		NextTrack: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next track"),
		),
		Group: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "start/end group"),
		),
		Reset: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reset to loaded"),
		),
		Export: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "export midi"),
		),
		Snapshot: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save snapshot"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel drag"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Delete, k.Group, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.Add, k.Delete, k.Shorter, k.Longer, k.Earlier, k.Later},
		{k.Track, k.NextTrack, k.Group, k.Reset},
		{k.Export, k.Snapshot, k.Cancel, k.Help, k.Quit},
	}
}
