// Package render turns session rows into terminal text: width fitting,
// match highlighting, level colors, time labels and pretty JSON.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/modoterra/bark/pkg/filter"
)

// Chunk is a piece of line text with the match ranges that fall inside it,
// relative to the chunk.
type Chunk struct {
	Text    string
	Matches []filter.MatchRange
}

// Split breaks text into chunks no wider than width cells. A rune wider
// than width gets a chunk of its own. Width <= 0 yields one chunk.
func Split(text string, ranges []filter.MatchRange, width int) []Chunk {
	if width <= 0 || runewidth.StringWidth(text) <= width {
		return []Chunk{{Text: text, Matches: ranges}}
	}
	var chunks []Chunk
	start, cells := 0, 0
	for i, r := range text {
		w := runewidth.RuneWidth(r)
		if cells+w > width && i > start {
			chunks = append(chunks, chunk(text, ranges, start, i))
			start, cells = i, 0
		}
		cells += w
	}
	return append(chunks, chunk(text, ranges, start, len(text)))
}

// Fit returns the leading chunk of text that fits in width cells.
func Fit(text string, ranges []filter.MatchRange, width int) Chunk {
	return Split(text, ranges, width)[0]
}

func chunk(text string, ranges []filter.MatchRange, start, end int) Chunk {
	c := Chunk{Text: text[start:end]}
	for _, r := range ranges {
		s, e := max(r.Start, start), min(r.End, end)
		if s < e {
			c.Matches = append(c.Matches, filter.MatchRange{Start: s - start, End: e - start})
		}
	}
	return c
}

// Highlight renders the chunk with base style, and match style over its
// match ranges.
func Highlight(c Chunk, base, match lipgloss.Style) string {
	var b strings.Builder
	pos := 0
	for _, r := range c.Matches {
		if r.Start < pos || r.End > len(c.Text) {
			continue
		}
		if r.Start > pos {
			b.WriteString(base.Render(c.Text[pos:r.Start]))
		}
		b.WriteString(match.Render(c.Text[r.Start:r.End]))
		pos = r.End
	}
	if pos < len(c.Text) {
		b.WriteString(base.Render(c.Text[pos:]))
	}
	return b.String()
}

// Truncate cuts s to width cells, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// Pad fills s with spaces up to width cells.
func Pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}
