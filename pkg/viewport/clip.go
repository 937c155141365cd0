package viewport

import (
	"unicode/utf8"

	"github.com/modoterra/bark/pkg/filter"
)

// Clip drops the first runeOffset runes of text and re-bases ranges onto
// the remaining text. A range entirely left of the cut is dropped; one
// straddling it starts at the cut.
func Clip(text string, ranges []filter.MatchRange, runeOffset int) (string, []filter.MatchRange) {
	if runeOffset <= 0 {
		return text, ranges
	}
	cut := byteOffset(text, runeOffset)
	visible := text[cut:]
	var out []filter.MatchRange
	for _, r := range ranges {
		if r.End <= cut {
			continue
		}
		out = append(out, filter.MatchRange{
			Start: max(r.Start, cut) - cut,
			End:   r.End - cut,
		})
	}
	return visible, out
}

// byteOffset returns the byte position of the n-th rune, or len(s).
func byteOffset(s string, n int) int {
	i := 0
	for n > 0 && i < len(s) {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		n--
	}
	return i
}
