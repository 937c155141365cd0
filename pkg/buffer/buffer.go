// Package buffer holds the append-only record of ingested lines.
package buffer

import (
	"time"

	"github.com/modoterra/bark/pkg/core"
)

// Buffer is an append-only store of log lines. Sequence indices are
// assigned on append and equal the line's position. Not safe for
// concurrent use; the consumer loop owns it.
type Buffer struct {
	lines []core.LogLine
}

// New returns an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

// Append stores a line and returns its sequence index.
func (b *Buffer) Append(source, raw string, at time.Time) int {
	seq := len(b.lines)
	b.lines = append(b.lines, core.NewLogLine(seq, source, raw, at))
	return seq
}

// Get returns the line with the given sequence index.
func (b *Buffer) Get(seq int) (core.LogLine, bool) {
	if seq < 0 || seq >= len(b.lines) {
		return core.LogLine{}, false
	}
	return b.lines[seq], true
}

// Len returns the number of lines appended so far.
func (b *Buffer) Len() int {
	return len(b.lines)
}

// Each calls fn for every line in sequence order until fn returns false.
func (b *Buffer) Each(fn func(core.LogLine) bool) {
	for _, l := range b.lines {
		if !fn(l) {
			return
		}
	}
}
