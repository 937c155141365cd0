package model

import (
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/modoterra/bark/pkg/config"
	"github.com/modoterra/bark/pkg/core"
	"github.com/modoterra/bark/pkg/filter"
	"github.com/modoterra/bark/pkg/prefs"
	"github.com/modoterra/bark/pkg/session"
)

// Pane identifies which TUI pane is focused.
type Pane int

const (
	PaneLog Pane = iota
	PaneSources
	PaneFilters
)

// Mode identifies the current interaction mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeFilter
	ModeSave
)

func (m Mode) String() string {
	switch m {
	case ModeFilter:
		return "FILTER"
	case ModeSave:
		return "SAVE"
	default:
		return "NORMAL"
	}
}

const (
	// tickInterval is how often pending filter edits are checked.
	tickInterval = 16 * time.Millisecond
	// maxBatch bounds the events drained per update.
	maxBatch = 1024
)

// Options configures the viewer.
type Options struct {
	Session  *session.Session
	Events   <-chan core.Event
	Settings config.Resolved

	// Prefs are the stored preferences; display toggles and saved filters
	// are written back to PrefsPath when it is set.
	Prefs     prefs.Prefs
	PrefsPath string

	ExportDir string
	Copy      func(string) error
	Now       func() time.Time
	Logger    *slog.Logger
}

// App is the root Bubble Tea model.
type App struct {
	sess   *session.Session
	events <-chan core.Event

	// UI
	keys       keyMap
	help       help.Model
	filter     textinput.Model
	form       *SaveForm
	activePane Pane
	mode       Mode
	showHelp   bool
	width      int
	height     int
	sourceIdx  int
	filterIdx  int

	// Display toggles
	levelColors  bool
	relativeTime bool
	jsonPretty   bool
	sidePanel    bool

	prefs     prefs.Prefs
	prefsPath string
	exportDir string
	clip      func(string) error
	now       func() time.Time
	logger    *slog.Logger
}

// New creates the viewer model.
func New(opts Options) App {
	fi := textinput.New()
	fi.Prompt = "/"
	fi.Placeholder = "filter..."
	fi.CharLimit = 512

	a := App{
		sess:         opts.Session,
		events:       opts.Events,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		filter:       fi,
		levelColors:  opts.Settings.LevelColors,
		relativeTime: opts.Settings.RelativeTime,
		jsonPretty:   opts.Settings.JSONPretty,
		sidePanel:    len(opts.Session.Sources()) > 1,
		prefs:        opts.Prefs,
		prefsPath:    opts.PrefsPath,
		exportDir:    opts.ExportDir,
		clip:         opts.Copy,
		now:          opts.Now,
		logger:       opts.Logger,
	}
	if opts.Settings.SidePanel != nil {
		a.sidePanel = *opts.Settings.SidePanel
	}
	if a.exportDir == "" {
		a.exportDir = "."
	}
	if a.clip == nil {
		a.clip = clipboard.WriteAll
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}
	a.sess.View().SetWrap(opts.Settings.Wrap)
	return a
}

// Init starts the tick loop and the event reader.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		waitEvents(a.events),
		tea.SetWindowTitle("bark"),
	)
}

// tickMsg drives debounce checks.
type tickMsg time.Time

// eventsMsg carries a batch of queued events.
type eventsMsg struct {
	events []core.Event
	closed bool
}

// statusMsg replaces the status line.
type statusMsg string

// prefsSavedMsg reports the result of writing preferences.
type prefsSavedMsg struct{ err error }

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitEvents blocks for one event, then drains whatever else is queued
// without blocking.
func waitEvents(ch <-chan core.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsMsg{closed: true}
		}
		batch := []core.Event{ev}
		for len(batch) < maxBatch {
			select {
			case ev, ok := <-ch:
				if !ok {
					return eventsMsg{events: batch, closed: true}
				}
				batch = append(batch, ev)
			default:
				return eventsMsg{events: batch}
			}
		}
		return eventsMsg{events: batch}
	}
}

func savePrefsCmd(path string, p prefs.Prefs) tea.Cmd {
	return func() tea.Msg {
		return prefsSavedMsg{err: prefs.Save(path, p)}
	}
}

func copyCmd(write func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		if err := write(text); err != nil {
			return statusMsg("Error: copy failed: " + err.Error())
		}
		return statusMsg("Copied line to clipboard")
	}
}

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.filter.Width = max(10, msg.Width-8)
		a.sess.Resize(a.logHeight())
		return a, nil

	case tickMsg:
		a.sess.Tick(time.Time(msg))
		return a, tickCmd()

	case eventsMsg:
		for _, ev := range msg.events {
			a.sess.HandleEvent(ev)
		}
		if msg.closed {
			a.logger.Debug("event queue closed")
			return a, nil
		}
		return a, waitEvents(a.events)

	case statusMsg:
		a.sess.SetStatus("%s", string(msg))
		return a, nil

	case prefsSavedMsg:
		if msg.err != nil {
			a.logger.Warn("save preferences", "error", msg.err)
			a.sess.SetStatus("Error: %v", msg.err)
		}
		return a, nil

	case tea.MouseMsg:
		total := a.sess.Index().Len()
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.sess.View().ScrollBy(-3, total)
		case tea.MouseButtonWheelDown:
			a.sess.View().ScrollBy(3, total)
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.mode {
	case ModeFilter:
		return a.handleFilterKey(msg)
	case ModeSave:
		if a.form != nil {
			return a.form.HandleKey(a, msg)
		}
		a.mode = ModeNormal
	}

	if a.showHelp {
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.Help), key.Matches(msg, a.keys.Escape):
			a.showHelp = false
		}
		return a, nil
	}

	if a.activePane != PaneLog {
		if cmd, handled := a.handlePaneKey(msg); handled {
			return a, cmd
		}
	}

	now := a.now()
	v := a.sess.View()
	total := a.sess.Index().Len()

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Help):
		a.showHelp = true
	case key.Matches(msg, a.keys.Tab):
		if a.sidePanel {
			a.activePane = (a.activePane + 1) % 3
		}

	// Navigation
	case key.Matches(msg, a.keys.Up):
		v.ScrollBy(-1, total)
	case key.Matches(msg, a.keys.Down):
		v.ScrollBy(1, total)
	case key.Matches(msg, a.keys.PageUp):
		v.PageUp(total)
	case key.Matches(msg, a.keys.PageDown):
		v.PageDown(total)
	case key.Matches(msg, a.keys.Top):
		v.Top(total)
	case key.Matches(msg, a.keys.Bottom):
		v.Bottom(total)
	case key.Matches(msg, a.keys.Follow):
		v.SetFollow(!v.Following(), total)
	case key.Matches(msg, a.keys.Left):
		v.ScrollLeft(4)
	case key.Matches(msg, a.keys.Right):
		v.ScrollRight(4)
	case key.Matches(msg, a.keys.FarLeft):
		v.ScrollLeft(40)
	case key.Matches(msg, a.keys.FarRight):
		v.ScrollRight(40)
	case key.Matches(msg, a.keys.Home):
		v.ResetHScroll()

	// Bookmarks
	case key.Matches(msg, a.keys.Bookmark):
		a.sess.ToggleBookmark()
	case key.Matches(msg, a.keys.NextBookmark):
		if !a.sess.NextBookmark() {
			a.sess.SetStatus("No next bookmark")
		}
	case key.Matches(msg, a.keys.PrevBookmark):
		if !a.sess.PrevBookmark() {
			a.sess.SetStatus("No previous bookmark")
		}
	case key.Matches(msg, a.keys.NextMatch):
		a.sess.NextMatch()
	case key.Matches(msg, a.keys.PrevMatch):
		a.sess.PrevMatch()

	// Filtering
	case key.Matches(msg, a.keys.Filter):
		a.sess.BeginEdit()
		a.mode = ModeFilter
		a.filter.SetValue(a.sess.EditPattern())
		a.filter.CursorEnd()
		a.syncPrompt()
		return a, a.filter.Focus()
	case key.Matches(msg, a.keys.ToggleRegex):
		a.sess.ToggleRegex(now)
	case key.Matches(msg, a.keys.SaveFilter):
		if a.sess.ActivePattern() == "" {
			a.sess.SetStatus("No active filter to save")
			return a, nil
		}
		a.form = NewSaveForm(a.sess.ActivePattern(), a.sess.Regex())
		a.mode = ModeSave
		return a, textinput.Blink
	case key.Matches(msg, a.keys.Escape):
		a.sess.ClearFilter()

	// Display
	case key.Matches(msg, a.keys.Wrap):
		v.SetWrap(!v.Wrap())
		return a, a.persist()
	case key.Matches(msg, a.keys.LevelColors):
		a.levelColors = !a.levelColors
		return a, a.persist()
	case key.Matches(msg, a.keys.RelativeTime):
		a.relativeTime = !a.relativeTime
		return a, a.persist()
	case key.Matches(msg, a.keys.JSONPretty):
		a.jsonPretty = !a.jsonPretty
		return a, a.persist()
	case key.Matches(msg, a.keys.SidePanel):
		a.sidePanel = !a.sidePanel
		if !a.sidePanel {
			a.activePane = PaneLog
		}
		return a, a.persist()

	// Actions
	case key.Matches(msg, a.keys.Export):
		if _, _, err := a.sess.ExportFile(a.exportDir, now); err != nil {
			a.logger.Warn("export failed", "error", err)
			a.sess.SetStatus("Error: %v", err)
		}
	case key.Matches(msg, a.keys.Copy):
		line, ok := a.sess.CurrentLine()
		if !ok {
			return a, nil
		}
		return a, copyCmd(a.clip, line.Plain())
	}

	return a, nil
}

// handlePaneKey handles selection keys in the side panel panes.
func (a *App) handlePaneKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch a.activePane {
	case PaneSources:
		n := len(a.sess.Sources())
		switch {
		case key.Matches(msg, a.keys.Up):
			a.sourceIdx = max(0, a.sourceIdx-1)
		case key.Matches(msg, a.keys.Down):
			a.sourceIdx = max(0, min(a.sourceIdx+1, n-1))
		default:
			return nil, false
		}
		return nil, true

	case PaneFilters:
		saved := a.sess.Saved()
		switch {
		case key.Matches(msg, a.keys.Up):
			a.filterIdx = max(0, a.filterIdx-1)
		case key.Matches(msg, a.keys.Down):
			a.filterIdx = max(0, min(a.filterIdx+1, len(saved)-1))
		case key.Matches(msg, a.keys.Confirm):
			a.sess.ActivateSaved(a.filterIdx)
		case key.Matches(msg, a.keys.Delete):
			if a.filterIdx >= len(saved) {
				return nil, true
			}
			name := saved[a.filterIdx].Name
			a.sess.DeleteSaved(a.filterIdx)
			a.sess.SetStatus("Deleted filter %s", name)
			a.filterIdx = max(0, min(a.filterIdx, len(saved)-2))
			a.prefs.Filters = filter.Remove(a.prefs.Filters, name)
			return a.persist(), true
		default:
			return nil, false
		}
		return nil, true
	}
	return nil, false
}

func (a App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Escape):
		a.sess.CancelEdit()
		a.mode = ModeNormal
		a.filter.Blur()
		return a, nil
	case key.Matches(msg, a.keys.Confirm):
		a.sess.CommitFilter()
		a.mode = ModeNormal
		a.filter.Blur()
		return a, nil
	case key.Matches(msg, a.keys.EditRegex):
		a.sess.ToggleRegex(a.now())
		a.syncPrompt()
		return a, nil
	}

	before := a.filter.Value()
	var cmd tea.Cmd
	a.filter, cmd = a.filter.Update(msg)
	if value := a.filter.Value(); value != before {
		a.sess.EditFilter(value, a.now())
	}
	return a, cmd
}

func (a *App) syncPrompt() {
	if a.sess.Regex() {
		a.filter.Prompt = "re/"
	} else {
		a.filter.Prompt = "/"
	}
}

// persist writes the display toggles and saved filters to the
// preferences file.
func (a *App) persist() tea.Cmd {
	a.prefs.Wrap = config.Bool(a.sess.View().Wrap())
	a.prefs.LevelColors = config.Bool(a.levelColors)
	a.prefs.RelativeTime = config.Bool(a.relativeTime)
	a.prefs.JSONPretty = config.Bool(a.jsonPretty)
	a.prefs.SidePanel = config.Bool(a.sidePanel)
	if a.prefsPath == "" {
		return nil
	}
	p := a.prefs
	p.Filters = append([]filter.SavedFilter(nil), a.prefs.Filters...)
	return savePrefsCmd(a.prefsPath, p)
}

// logHeight is the number of rows available to log lines.
func (a App) logHeight() int {
	return max(1, a.height-2)
}

// Mode returns the current interaction mode.
func (a App) Mode() Mode { return a.mode }

// ActivePane returns the focused pane.
func (a App) ActivePane() Pane { return a.activePane }
