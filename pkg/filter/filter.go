// Package filter compiles user patterns and finds their matches in log lines.
//
// A pattern is either a case-insensitive literal substring or a regular
// expression. A regular expression that fails to compile degrades to the
// literal algorithm on the raw pattern text, so a filter is always usable.
package filter

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MatchRange is a half-open byte interval [Start, End) within a line.
type MatchRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the range.
func (r MatchRange) Len() int { return r.End - r.Start }

// Filter is an immutable compiled query. Replace it wholesale on change.
type Filter struct {
	pattern    string
	isRegex    bool
	re         *regexp.Regexp
	lower      string
	compileErr error
}

// Compile builds a Filter. It never fails: when isRegex is set and the
// pattern does not compile, the filter matches the pattern literally.
func Compile(pattern string, isRegex bool) *Filter {
	f := &Filter{
		pattern: pattern,
		isRegex: isRegex,
		lower:   foldString(pattern),
	}
	if isRegex {
		f.re, f.compileErr = regexp.Compile(pattern)
	}
	return f
}

// Pattern returns the original pattern text.
func (f *Filter) Pattern() string { return f.pattern }

// IsRegex reports whether regex mode was requested.
func (f *Filter) IsRegex() bool { return f.isRegex }

// Degraded reports whether regex mode fell back to literal matching.
func (f *Filter) Degraded() bool { return f.isRegex && f.re == nil }

// CompileErr returns the regex compile error behind a degraded filter.
func (f *Filter) CompileErr() error { return f.compileErr }

// Matches reports whether the line passes the filter.
func (f *Filter) Matches(line string) bool {
	if f.re != nil {
		return f.re.MatchString(line)
	}
	if f.lower == "" {
		return false
	}
	return strings.Contains(foldString(line), f.lower)
}

// FindMatches returns the non-overlapping matches in line, left to right.
// Zero-width regex matches are omitted.
func (f *Filter) FindMatches(line string) []MatchRange {
	if f.re != nil {
		var out []MatchRange
		for _, loc := range f.re.FindAllStringIndex(line, -1) {
			if loc[1] > loc[0] {
				out = append(out, MatchRange{Start: loc[0], End: loc[1]})
			}
		}
		return out
	}
	return findLiteral(line, f.lower)
}

// findLiteral scans the folded line for the folded pattern, resuming each
// search at the end of the previous match, and maps the folded offsets
// back onto the original text.
func findLiteral(line, lowerPattern string) []MatchRange {
	if lowerPattern == "" {
		return nil
	}
	folded, offsets := foldWithOffsets(line)
	var out []MatchRange
	pos := 0
	for pos+len(lowerPattern) <= len(folded) {
		i := strings.Index(folded[pos:], lowerPattern)
		if i < 0 {
			break
		}
		start := pos + i
		end := start + len(lowerPattern)
		if offsets == nil {
			out = append(out, MatchRange{Start: start, End: end})
		} else {
			out = append(out, MatchRange{Start: offsets[start], End: offsets[end]})
		}
		pos = end
	}
	return out
}

// foldString lowercases s rune by rune, copying invalid bytes unchanged.
func foldString(s string) string {
	folded, _ := foldWithOffsets(s)
	return folded
}

// foldWithOffsets lowercases s and returns, for every byte of the result,
// the offset of the original byte it came from. The slice has one extra
// trailing entry equal to len(s). A nil slice means offsets are identical,
// which is always the case for ASCII input.
func foldWithOffsets(s string) (string, []int) {
	if isASCII(s) {
		return asciiLower(s), nil
	}
	buf := make([]byte, 0, len(s))
	offsets := make([]int, 0, len(s)+1)
	var enc [utf8.UTFMax]byte
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			buf = append(buf, s[i])
			offsets = append(offsets, i)
			i++
			continue
		}
		n := utf8.EncodeRune(enc[:], unicode.ToLower(r))
		buf = append(buf, enc[:n]...)
		for j := 0; j < n; j++ {
			offsets = append(offsets, i)
		}
		i += size
	}
	offsets = append(offsets, len(s))
	return string(buf), offsets
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func asciiLower(s string) string {
	for i := 0; i < len(s); i++ {
		if 'A' <= s[i] && s[i] <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if 'A' <= b[j] && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}
