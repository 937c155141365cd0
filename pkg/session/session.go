// Package session holds the state owned by the consumer loop: the buffer,
// the filtered index, the viewport, bookmarks, saved filters and the
// status of every source. All methods must be called from that loop.
package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/modoterra/bark/pkg/buffer"
	"github.com/modoterra/bark/pkg/core"
	"github.com/modoterra/bark/pkg/filter"
	"github.com/modoterra/bark/pkg/index"
	"github.com/modoterra/bark/pkg/viewport"
)

// Options configures a new Session.
type Options struct {
	Debounce time.Duration
	Height   int
	Follow   bool
	Saved    []filter.SavedFilter
	Logger   *slog.Logger
}

// SourceState is what the consumer knows about one source.
type SourceState struct {
	Name      string
	Status    core.Status
	Lines     int
	LastError string
}

// Session is the consumer loop state.
type Session struct {
	buf   *buffer.Buffer
	idx   *index.Maintainer
	view  *viewport.Viewport
	marks *viewport.Bookmarks

	saved []filter.SavedFilter

	sources []*SourceState
	byName  map[string]*SourceState

	// regex is the mode applied to the next edit.
	regex bool

	editing     bool
	editPattern string
	prevPattern string
	prevRegex   bool

	status string
	logger *slog.Logger
}

// New returns an empty session.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	buf := buffer.New()
	s := &Session{
		buf:    buf,
		idx:    index.New(buf, opts.Debounce),
		view:   viewport.New(opts.Height),
		marks:  viewport.NewBookmarks(),
		saved:  append([]filter.SavedFilter(nil), opts.Saved...),
		byName: make(map[string]*SourceState),
		logger: logger,
	}
	if !opts.Follow {
		s.view.SetFollow(false, 0)
	}
	return s
}

func (s *Session) Buffer() *buffer.Buffer         { return s.buf }
func (s *Session) Index() *index.Maintainer       { return s.idx }
func (s *Session) View() *viewport.Viewport       { return s.view }
func (s *Session) Bookmarks() *viewport.Bookmarks { return s.marks }

// Register adds sources to the side panel in the given order.
func (s *Session) Register(names ...string) {
	for _, name := range names {
		s.source(name)
	}
}

func (s *Session) source(name string) *SourceState {
	if st, ok := s.byName[name]; ok {
		return st
	}
	st := &SourceState{Name: name, Status: core.StatusStreaming}
	s.byName[name] = st
	s.sources = append(s.sources, st)
	return st
}

// Sources returns the source states in registration order.
func (s *Session) Sources() []SourceState {
	out := make([]SourceState, len(s.sources))
	for i, st := range s.sources {
		out[i] = *st
	}
	return out
}

// HandleEvent applies one event from the queue. It reports whether the
// visible rows may have changed.
func (s *Session) HandleEvent(ev core.Event) bool {
	st := s.source(ev.Source)
	switch ev.Kind {
	case core.EventLine:
		at := ev.At
		if at.IsZero() {
			at = time.Now()
		}
		seq := s.buf.Append(ev.Source, ev.Text, at)
		st.Lines++
		st.Status = core.StatusStreaming
		visible := s.idx.OnAppend(seq)
		s.view.OnAppend(visible, s.idx.Len())
		return visible
	case core.EventError:
		st.Status = core.StatusFailed
		st.LastError = ev.Text
		s.status = s.prefixed(ev.Source, "Error: "+ev.Text)
		s.logger.Warn("source error", "source", ev.Source, "error", ev.Text)
	case core.EventEnd:
		st.Status = core.StatusEnded
		s.status = s.prefixed(ev.Source, "Stream ended")
		s.logger.Info("source ended", "source", ev.Source)
	}
	return false
}

func (s *Session) prefixed(source, msg string) string {
	if len(s.sources) > 1 {
		return source + ": " + msg
	}
	return msg
}

// Tick runs a due recompute. It reports whether the index was rebuilt.
func (s *Session) Tick(now time.Time) bool {
	if !s.idx.Check(now) {
		return false
	}
	s.view.Refit(s.idx.Len())
	s.logger.Debug("filter applied", "pattern", s.ActivePattern(), "matches", s.idx.Len())
	return true
}

// Status returns the last status message.
func (s *Session) Status() string { return s.status }

// SetStatus replaces the status message.
func (s *Session) SetStatus(format string, args ...any) {
	s.status = fmt.Sprintf(format, args...)
}

// Counts returns the filtered and total line counts.
func (s *Session) Counts() (filtered, total int) {
	return s.idx.Len(), s.buf.Len()
}

// ActivePattern returns the committed pattern, or "" without a filter.
func (s *Session) ActivePattern() string {
	if f := s.idx.Filter(); f != nil {
		return f.Pattern()
	}
	return ""
}

// Regex reports the regex mode used for edits.
func (s *Session) Regex() bool { return s.regex }

// Resize updates the viewport height.
func (s *Session) Resize(height int) {
	s.view.SetHeight(height, s.idx.Len())
}
