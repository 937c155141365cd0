package model

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings.
type keyMap struct {
	// Global
	Quit   key.Binding
	Help   key.Binding
	Tab    key.Binding
	Escape key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Left     key.Binding
	Right    key.Binding
	FarLeft  key.Binding
	FarRight key.Binding
	Home     key.Binding
	Follow   key.Binding

	// Bookmarks
	Bookmark     key.Binding
	NextBookmark key.Binding
	PrevBookmark key.Binding
	NextMatch    key.Binding
	PrevMatch    key.Binding

	// Filtering
	Filter      key.Binding
	ToggleRegex key.Binding
	EditRegex   key.Binding
	SaveFilter  key.Binding
	Confirm     key.Binding
	Delete      key.Binding

	// Display
	Wrap         key.Binding
	LevelColors  key.Binding
	RelativeTime key.Binding
	JSONPretty   key.Binding
	SidePanel    key.Binding

	// Actions
	Export key.Binding
	Copy   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Cycle panes"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Clear filter"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Scroll down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom and follow"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "Page down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/left", "Scroll left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/right", "Scroll right"),
		),
		FarLeft: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "Scroll left 40"),
		),
		FarRight: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Scroll right 40"),
		),
		Home: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "Line start"),
		),
		Follow: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Toggle follow"),
		),

		Bookmark: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Toggle bookmark"),
		),
		NextBookmark: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "Next bookmark"),
		),
		PrevBookmark: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "Previous bookmark"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Next match"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "Previous match"),
		),

		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Edit filter"),
		),
		ToggleRegex: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Toggle regex"),
		),
		EditRegex: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "Toggle regex while editing"),
		),
		SaveFilter: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Save filter"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Apply"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Delete saved filter"),
		),

		Wrap: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "Toggle wrap"),
		),
		LevelColors: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Toggle level colors"),
		),
		RelativeTime: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Toggle relative time"),
		),
		JSONPretty: key.NewBinding(
			key.WithKeys("J"),
			key.WithHelp("J", "Toggle pretty JSON"),
		),
		SidePanel: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "Toggle side panel"),
		),

		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Export filtered lines"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Copy current line"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Filter, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom, k.Follow},
		{k.Left, k.Right, k.FarLeft, k.FarRight, k.Home},
		{k.Filter, k.EditRegex, k.ToggleRegex, k.Escape, k.SaveFilter, k.Delete},
		{k.Bookmark, k.NextBookmark, k.PrevBookmark, k.NextMatch, k.PrevMatch, k.Export, k.Copy},
		{k.Wrap, k.LevelColors, k.RelativeTime, k.JSONPretty, k.SidePanel},
		{k.Tab, k.Help, k.Quit},
	}
}
