package runner

import (
	"bufio"
	"io"
)

// MaxLineBytes is the longest line a scanner returns. Longer lines are
// split into pieces of this size.
const MaxLineBytes = 1024 * 1024

// ScanLines reads lines from r and calls fn for each, stopping at the
// first error from fn or the reader.
func ScanLines(r io.Reader, fn func(string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	scanner.Split(splitLines)
	for scanner.Scan() {
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// splitLines is bufio.ScanLines that cuts a line at MaxLineBytes instead
// of failing with bufio.ErrTooLong.
func splitLines(data []byte, atEOF bool) (int, []byte, error) {
	advance, token, err := bufio.ScanLines(data, atEOF)
	if advance == 0 && token == nil && err == nil && len(data) >= MaxLineBytes {
		return MaxLineBytes, data[:MaxLineBytes], nil
	}
	return advance, token, err
}
