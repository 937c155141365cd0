package session

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/modoterra/bark/pkg/core"
	"github.com/modoterra/bark/pkg/filter"
	"github.com/modoterra/bark/pkg/viewport"
)

// Row is one visible line handed to the renderer.
type Row struct {
	Seq        int
	Source     string
	Text       string // plain text after horizontal scroll
	Raw        string
	Matches    []filter.MatchRange // byte ranges into Text
	Severity   core.Severity
	Bookmarked bool
	Current    bool
	IsJSON     bool
	HasANSI    bool
	ArrivedAt  time.Time
}

// Rows returns the rows in the current window.
func (s *Session) Rows() []Row {
	f := s.idx.Filter()
	hscroll := s.view.EffectiveHScroll()
	seqs := s.view.Rows(s.idx)
	cur, hasCur := s.view.CursorSeq(s.idx)
	rows := make([]Row, 0, len(seqs))
	for _, seq := range seqs {
		l, ok := s.buf.Get(seq)
		if !ok {
			continue
		}
		text := l.Plain()
		var ranges []filter.MatchRange
		if f != nil {
			ranges = f.FindMatches(text)
		}
		text, ranges = viewport.Clip(text, ranges, hscroll)
		rows = append(rows, Row{
			Seq:        seq,
			Source:     l.Source,
			Text:       text,
			Raw:        l.Raw,
			Matches:    ranges,
			Severity:   l.Severity,
			Bookmarked: s.marks.Has(seq),
			Current:    hasCur && seq == cur,
			IsJSON:     l.IsJSON,
			HasANSI:    l.HasANSI,
			ArrivedAt:  l.ArrivedAt,
		})
	}
	return rows
}

// CurrentLine returns the line under the cursor.
func (s *Session) CurrentLine() (core.LogLine, bool) {
	seq, ok := s.view.CursorSeq(s.idx)
	if !ok {
		return core.LogLine{}, false
	}
	return s.buf.Get(seq)
}

// ToggleBookmark marks or unmarks the line under the cursor.
func (s *Session) ToggleBookmark() {
	seq, ok := s.view.CursorSeq(s.idx)
	if !ok {
		return
	}
	if s.marks.Toggle(seq) {
		s.status = fmt.Sprintf("Bookmarked line %d", seq+1)
	} else {
		s.status = fmt.Sprintf("Removed bookmark on line %d", seq+1)
	}
}

// NextBookmark moves the cursor to the next visible bookmark.
func (s *Session) NextBookmark() bool {
	pos, ok := s.marks.Next(s.idx, s.view.Cursor())
	if ok {
		s.view.ScrollTo(pos, s.idx.Len())
	}
	return ok
}

// PrevBookmark moves the cursor to the previous visible bookmark.
func (s *Session) PrevBookmark() bool {
	pos, ok := s.marks.Prev(s.idx, s.view.Cursor())
	if ok {
		s.view.ScrollTo(pos, s.idx.Len())
	}
	return ok
}

// NextMatch moves the cursor to the next line with a highlighted match.
func (s *Session) NextMatch() bool { return s.stepMatch(1) }

// PrevMatch moves the cursor to the previous line with a highlighted match.
func (s *Session) PrevMatch() bool { return s.stepMatch(-1) }

// stepMatch walks the filtered view from the cursor in direction dir.
// Lines that pass the filter without a visible range, such as zero-width
// regex matches, are skipped.
func (s *Session) stepMatch(dir int) bool {
	f := s.idx.Filter()
	if f == nil {
		s.status = "No active filter"
		return false
	}
	total := s.idx.Len()
	for pos := s.view.Cursor() + dir; pos >= 0 && pos < total; pos += dir {
		seq, _ := s.idx.At(pos)
		l, _ := s.buf.Get(seq)
		if len(f.FindMatches(l.Plain())) > 0 {
			s.view.ScrollTo(pos, total)
			return true
		}
	}
	if dir > 0 {
		s.status = "No next match"
	} else {
		s.status = "No previous match"
	}
	return false
}

// Export writes every line of the filtered view to w.
func (s *Session) Export(w io.Writer) (int, error) {
	n := 0
	for pos := 0; pos < s.idx.Len(); pos++ {
		seq, _ := s.idx.At(pos)
		l, _ := s.buf.Get(seq)
		if _, err := io.WriteString(w, l.Raw+"\n"); err != nil {
			return n, fmt.Errorf("write line %d: %w", seq, err)
		}
		n++
	}
	return n, nil
}

// ExportFile writes the filtered view to a timestamped file in dir.
func (s *Session) ExportFile(dir string, now time.Time) (string, int, error) {
	path := filepath.Join(dir, "bark-export-"+now.Format("20060102-150405")+".log")
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create export: %w", err)
	}
	n, err := s.Export(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close export: %w", cerr)
	}
	if err != nil {
		return path, n, err
	}
	s.status = fmt.Sprintf("Exported %d lines to %s", n, path)
	s.logger.Info("exported lines", "path", path, "count", n)
	return path, n, nil
}
