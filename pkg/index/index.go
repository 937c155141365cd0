// Package index keeps the filtered view of the log buffer consistent with
// the active filter.
//
// New lines are evaluated one at a time as they arrive. Pattern edits are
// debounced: an edit only schedules a full rescan, and the rescan runs when
// a Check observes that the idle deadline has passed with no further edit.
package index

import (
	"sort"
	"time"

	"github.com/modoterra/bark/pkg/buffer"
	"github.com/modoterra/bark/pkg/core"
	"github.com/modoterra/bark/pkg/filter"
)

// DefaultDebounce is the idle time after the last edit before a rescan.
const DefaultDebounce = 150 * time.Millisecond

// State is the debounce state.
type State int

const (
	Idle State = iota
	PendingRecompute
)

func (s State) String() string {
	if s == PendingRecompute {
		return "pending"
	}
	return "idle"
}

// Maintainer owns the filtered index. Not safe for concurrent use.
type Maintainer struct {
	buf       *buffer.Buffer
	threshold time.Duration

	filter  *filter.Filter // nil means every line is visible
	indices []int

	state          State
	deadline       time.Time
	pendingPattern string
	pendingRegex   bool

	rescans int
}

// New returns a maintainer over buf with no active filter.
func New(buf *buffer.Buffer, threshold time.Duration) *Maintainer {
	if threshold <= 0 {
		threshold = DefaultDebounce
	}
	return &Maintainer{buf: buf, threshold: threshold}
}

// Filter returns the active filter, or nil when none is active.
func (m *Maintainer) Filter() *filter.Filter { return m.filter }

// State returns the debounce state.
func (m *Maintainer) State() State { return m.state }

// Deadline returns when a pending recompute becomes due.
func (m *Maintainer) Deadline() time.Time { return m.deadline }

// Pending returns the pattern waiting for the debounce deadline.
func (m *Maintainer) Pending() (pattern string, isRegex bool, ok bool) {
	return m.pendingPattern, m.pendingRegex, m.state == PendingRecompute
}

// Rescans returns how many full rescans have run.
func (m *Maintainer) Rescans() int { return m.rescans }

// Threshold returns the debounce threshold.
func (m *Maintainer) Threshold() time.Duration { return m.threshold }

// OnAppend evaluates a newly appended line and reports whether it is part
// of the filtered view.
func (m *Maintainer) OnAppend(seq int) bool {
	if m.filter == nil {
		return seq < m.buf.Len()
	}
	l, ok := m.buf.Get(seq)
	if !ok || !m.filter.Matches(l.Plain()) {
		return false
	}
	m.indices = append(m.indices, seq)
	return true
}

// Edit records a pattern edit and (re)arms the debounce deadline.
func (m *Maintainer) Edit(pattern string, isRegex bool, now time.Time) {
	m.state = PendingRecompute
	m.deadline = now.Add(m.threshold)
	m.pendingPattern = pattern
	m.pendingRegex = isRegex
}

// Check performs the pending rescan once the deadline has passed. It
// reports whether a rescan ran.
func (m *Maintainer) Check(now time.Time) bool {
	if m.state != PendingRecompute || now.Before(m.deadline) {
		return false
	}
	m.Apply(m.pendingPattern, m.pendingRegex)
	return true
}

// CancelPending drops a scheduled recompute without touching the index.
func (m *Maintainer) CancelPending() {
	m.state = Idle
	m.pendingPattern, m.pendingRegex = "", false
}

// Apply replaces the filter immediately. An empty pattern clears it.
func (m *Maintainer) Apply(pattern string, isRegex bool) {
	m.CancelPending()
	if pattern == "" {
		m.filter, m.indices = nil, nil
		return
	}
	m.filter = filter.Compile(pattern, isRegex)
	m.rescan()
}

// Clear removes the active filter and any pending edit.
func (m *Maintainer) Clear() {
	m.Apply("", false)
}

func (m *Maintainer) rescan() {
	m.rescans++
	indices := make([]int, 0, len(m.indices))
	m.buf.Each(func(l core.LogLine) bool {
		if m.filter.Matches(l.Plain()) {
			indices = append(indices, l.Seq)
		}
		return true
	})
	m.indices = indices
}

// Len returns the number of lines in the filtered view.
func (m *Maintainer) Len() int {
	if m.filter == nil {
		return m.buf.Len()
	}
	return len(m.indices)
}

// At returns the sequence index at a position of the filtered view.
func (m *Maintainer) At(pos int) (int, bool) {
	if pos < 0 || pos >= m.Len() {
		return 0, false
	}
	if m.filter == nil {
		return pos, true
	}
	return m.indices[pos], true
}

// Position returns where a sequence index sits in the filtered view. When
// seq is not present the result is its insertion point.
func (m *Maintainer) Position(seq int) (int, bool) {
	if m.filter == nil {
		return seq, seq >= 0 && seq < m.buf.Len()
	}
	i := sort.SearchInts(m.indices, seq)
	if i < len(m.indices) && m.indices[i] == seq {
		return i, true
	}
	return i, false
}
