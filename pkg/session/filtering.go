package session

import (
	"time"

	"github.com/modoterra/bark/pkg/filter"
)

// Editing reports whether the filter editor is open.
func (s *Session) Editing() bool { return s.editing }

// EditPattern returns the pattern being edited.
func (s *Session) EditPattern() string { return s.editPattern }

// BeginEdit opens the filter editor on the active pattern.
func (s *Session) BeginEdit() {
	s.editing = true
	s.prevPattern = s.ActivePattern()
	s.prevRegex = s.regex
	s.editPattern = s.prevPattern
}

// EditFilter records a keystroke in the filter editor. The rescan is
// deferred until the edit has been idle for the debounce threshold.
func (s *Session) EditFilter(pattern string, now time.Time) {
	s.editPattern = pattern
	s.idx.Edit(pattern, s.regex, now)
}

// ToggleRegex flips regex mode. The active or edited pattern is
// recomputed through the debounce.
func (s *Session) ToggleRegex(now time.Time) {
	s.regex = !s.regex
	pattern := s.ActivePattern()
	if s.editing {
		pattern = s.editPattern
	}
	if pattern != "" {
		s.idx.Edit(pattern, s.regex, now)
	}
}

// CommitFilter closes the editor and applies the edited pattern now.
func (s *Session) CommitFilter() {
	s.editing = false
	s.apply(s.editPattern, s.regex)
}

// CancelEdit closes the editor and restores the filter active before it
// was opened.
func (s *Session) CancelEdit() {
	s.editing = false
	s.idx.CancelPending()
	s.regex = s.prevRegex
	if f := s.idx.Filter(); s.prevPattern != s.ActivePattern() || (f != nil && f.IsRegex() != s.prevRegex) {
		s.apply(s.prevPattern, s.prevRegex)
	}
	s.editPattern = ""
}

// ApplyFilter replaces the active filter immediately, as when a filter
// is given on the command line.
func (s *Session) ApplyFilter(pattern string, isRegex bool) {
	s.apply(pattern, isRegex)
}

// ClearFilter removes the active filter.
func (s *Session) ClearFilter() {
	s.apply("", s.regex)
	s.status = ""
}

// Degraded reports whether the active regex failed to compile and is
// matching literally.
func (s *Session) Degraded() bool {
	f := s.idx.Filter()
	return f != nil && f.Degraded()
}

func (s *Session) apply(pattern string, isRegex bool) {
	s.idx.Apply(pattern, isRegex)
	s.regex = isRegex
	s.view.Refit(s.idx.Len())
	s.logger.Debug("filter applied", "pattern", pattern, "regex", isRegex, "matches", s.idx.Len())
}

// Saved returns the saved filters.
func (s *Session) Saved() []filter.SavedFilter { return s.saved }

// SaveFilter stores the active filter under name.
func (s *Session) SaveFilter(name string) (filter.SavedFilter, error) {
	f := s.idx.Filter()
	if f == nil {
		f = filter.Compile("", s.regex)
	}
	sf, err := filter.Save(name, f)
	if err != nil {
		return filter.SavedFilter{}, err
	}
	s.saved = filter.Upsert(s.saved, sf)
	s.status = "Saved filter " + sf.Name
	return sf, nil
}

// ActivateSaved applies the saved filter at position i.
func (s *Session) ActivateSaved(i int) bool {
	if i < 0 || i >= len(s.saved) {
		return false
	}
	sf := s.saved[i]
	s.apply(sf.Pattern, sf.IsRegex)
	s.status = "Filter " + sf.Name
	return true
}

// ActivateNamed applies the saved filter best matching query.
func (s *Session) ActivateNamed(query string) bool {
	sf, ok := filter.Lookup(s.saved, query)
	if !ok {
		return false
	}
	s.apply(sf.Pattern, sf.IsRegex)
	s.status = "Filter " + sf.Name
	return true
}

// DeleteSaved removes the saved filter at position i.
func (s *Session) DeleteSaved(i int) bool {
	if i < 0 || i >= len(s.saved) {
		return false
	}
	s.saved = append(s.saved[:i:i], s.saved[i+1:]...)
	return true
}
