package session

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/modoterra/bark/pkg/core"
	"github.com/modoterra/bark/pkg/filter"
)

func line(source, text string) core.Event {
	return core.Event{Kind: core.EventLine, Source: source, Text: text, At: time.Unix(100, 0)}
}

func feed(s *Session, source string, lines ...string) {
	for _, l := range lines {
		s.HandleEvent(line(source, l))
	}
}

func rowSeqs(rows []Row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.Seq
	}
	return out
}

func TestFollowShowsNewestMatchingLine(t *testing.T) {
	s := New(Options{Height: 3, Follow: true})
	s.EditFilter("err", time.Unix(0, 0))
	s.CommitFilter()

	for i, text := range []string{"err 1", "ok", "err 2", "err 3", "ok", "err 4"} {
		visible := s.HandleEvent(line("app", text))
		if !visible {
			continue
		}
		rows := s.Rows()
		if last := rows[len(rows)-1]; last.Seq != i {
			t.Errorf("after %q last row = %d, want %d", text, last.Seq, i)
		}
	}
	filtered, total := s.Counts()
	if filtered != 4 || total != 6 {
		t.Errorf("Counts = %d/%d, want 4/6", filtered, total)
	}
}

func TestRowsCarryClippedMatches(t *testing.T) {
	s := New(Options{Height: 10})
	feed(s, "app", "connect ok", "ERROR timeout", "retrying", "ERROR fatal")
	s.BeginEdit()
	s.EditFilter("error", time.Unix(0, 0))
	s.CommitFilter()

	rows := s.Rows()
	if got := rowSeqs(rows); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("rows = %v, want [1 3]", got)
	}
	if len(rows[0].Matches) != 1 || rows[0].Matches[0] != (filter.MatchRange{Start: 0, End: 5}) {
		t.Errorf("matches = %v, want [{0 5}]", rows[0].Matches)
	}
	if rows[0].Severity != core.SeverityError {
		t.Errorf("severity = %v, want error", rows[0].Severity)
	}

	s.View().ScrollRight(2)
	rows = s.Rows()
	if rows[0].Text != "ROR timeout" {
		t.Errorf("clipped text = %q", rows[0].Text)
	}
	if rows[0].Matches[0] != (filter.MatchRange{Start: 0, End: 3}) {
		t.Errorf("clipped match = %v, want {0 3}", rows[0].Matches[0])
	}
}

func TestDebouncedEditing(t *testing.T) {
	s := New(Options{Height: 10, Debounce: 150 * time.Millisecond})
	feed(s, "app", "alpha", "beta", "alphabet")
	t0 := time.Unix(1000, 0)

	s.BeginEdit()
	s.EditFilter("a", t0)
	s.EditFilter("al", t0.Add(40*time.Millisecond))
	if s.Tick(t0.Add(100 * time.Millisecond)) {
		t.Fatal("Tick rebuilt the index before the threshold")
	}
	if !s.Tick(t0.Add(200 * time.Millisecond)) {
		t.Fatal("Tick did not rebuild after the threshold")
	}
	if s.Index().Rescans() != 1 || s.ActivePattern() != "al" {
		t.Errorf("rescans = %d pattern = %q", s.Index().Rescans(), s.ActivePattern())
	}
	if !s.Editing() {
		t.Error("debounced apply should not close the editor")
	}
}

func TestCancelEditRestoresPreviousFilter(t *testing.T) {
	s := New(Options{Height: 10, Debounce: 10 * time.Millisecond})
	feed(s, "app", "warn a", "error b", "info c")
	s.BeginEdit()
	s.EditFilter("warn", time.Unix(0, 0))
	s.CommitFilter()

	s.BeginEdit()
	s.EditFilter("info", time.Unix(1, 0))
	s.Tick(time.Unix(2, 0))
	if s.ActivePattern() != "info" {
		t.Fatalf("intermediate pattern = %q", s.ActivePattern())
	}
	s.CancelEdit()
	if s.ActivePattern() != "warn" || s.Editing() {
		t.Errorf("after cancel pattern = %q editing = %v", s.ActivePattern(), s.Editing())
	}
	if f, _ := s.Counts(); f != 1 {
		t.Errorf("filtered = %d, want 1", f)
	}
}

func TestToggleRegexIsDebounced(t *testing.T) {
	s := New(Options{Height: 10, Debounce: 10 * time.Millisecond})
	feed(s, "app", "a.c", "abc")
	s.BeginEdit()
	s.EditFilter("a.c", time.Unix(0, 0))
	s.CommitFilter()
	if f, _ := s.Counts(); f != 1 {
		t.Fatalf("literal a.c matched %d lines, want 1", f)
	}

	s.ToggleRegex(time.Unix(1, 0))
	if !s.Regex() {
		t.Fatal("regex mode not toggled")
	}
	if f, _ := s.Counts(); f != 1 {
		t.Error("toggle should not rescan immediately")
	}
	s.Tick(time.Unix(2, 0))
	if f, _ := s.Counts(); f != 2 {
		t.Errorf("regex a.c matched %d lines, want 2", f)
	}
}

func TestStatusMessages(t *testing.T) {
	s := New(Options{Height: 10})
	s.Register("app")
	s.HandleEvent(core.Event{Kind: core.EventError, Source: "app", Text: "file missing"})
	if s.Status() != "Error: file missing" {
		t.Errorf("status = %q", s.Status())
	}
	if st := s.Sources()[0]; st.Status != core.StatusFailed || st.LastError != "file missing" {
		t.Errorf("source state = %+v", st)
	}

	s.Register("db")
	s.HandleEvent(core.Event{Kind: core.EventEnd, Source: "db"})
	if s.Status() != "db: Stream ended" {
		t.Errorf("status = %q", s.Status())
	}

	feed(s, "app", "back")
	if st := s.Sources()[0]; st.Status != core.StatusStreaming || st.Lines != 1 {
		t.Errorf("source state after line = %+v", st)
	}
}

func TestBookmarkNavigation(t *testing.T) {
	s := New(Options{Height: 2})
	feed(s, "app", "l0", "l1", "l2", "l3", "l4", "l5")
	s.View().Top(6)
	s.View().ScrollTo(3, 6)
	s.ToggleBookmark()
	s.View().Top(6)
	s.ToggleBookmark()

	if !s.Bookmarks().Has(0) || !s.Bookmarks().Has(3) {
		t.Fatalf("bookmarks = %v", s.Bookmarks().Sorted())
	}
	if !s.NextBookmark() || s.View().Offset() != 3 {
		t.Errorf("NextBookmark offset = %d, want 3", s.View().Offset())
	}
	if !s.PrevBookmark() || s.View().Offset() != 0 {
		t.Errorf("PrevBookmark offset = %d, want 0", s.View().Offset())
	}
	if s.View().Following() {
		t.Error("bookmark navigation should leave follow mode")
	}
}

func TestSavedFilters(t *testing.T) {
	s := New(Options{Height: 10, Saved: []filter.SavedFilter{{Name: "errors", Pattern: "error"}}})
	feed(s, "app", "error one", "warn two", "warn three")

	if _, err := s.SaveFilter("  "); !errors.Is(err, filter.ErrEmptyName) {
		t.Errorf("SaveFilter blank: got %v, want ErrEmptyName", err)
	}

	if !s.ActivateNamed("err") {
		t.Fatal("ActivateNamed did not find errors")
	}
	if f, _ := s.Counts(); f != 1 {
		t.Errorf("filtered = %d, want 1", f)
	}

	s.BeginEdit()
	s.EditFilter("^warn", time.Unix(0, 0))
	s.ToggleRegex(time.Unix(0, 0))
	s.CommitFilter()
	if _, err := s.SaveFilter("warnings"); err != nil {
		t.Fatalf("SaveFilter: %v", err)
	}
	saved := s.Saved()
	if len(saved) != 2 || saved[1] != (filter.SavedFilter{Name: "warnings", Pattern: "^warn", IsRegex: true}) {
		t.Errorf("saved = %+v", saved)
	}

	s.ClearFilter()
	s.ActivateSaved(1)
	if f, _ := s.Counts(); f != 2 {
		t.Errorf("filtered after ActivateSaved = %d, want 2", f)
	}
	if !s.DeleteSaved(0) || len(s.Saved()) != 1 || s.Saved()[0].Name != "warnings" {
		t.Errorf("after delete saved = %+v", s.Saved())
	}
}

func TestExport(t *testing.T) {
	s := New(Options{Height: 10})
	feed(s, "app", "keep 1", "drop", "keep 2")
	s.BeginEdit()
	s.EditFilter("keep", time.Unix(0, 0))
	s.CommitFilter()

	var buf bytes.Buffer
	n, err := s.Export(&buf)
	if err != nil || n != 2 {
		t.Fatalf("Export = %d, %v", n, err)
	}
	if buf.String() != "keep 1\nkeep 2\n" {
		t.Errorf("export = %q", buf.String())
	}

	dir := t.TempDir()
	path, _, err := s.ExportFile(dir, time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC))
	if err != nil {
		t.Fatalf("ExportFile: %v", err)
	}
	if !strings.HasSuffix(path, "bark-export-20240309-140506.log") {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != buf.String() {
		t.Errorf("file content = %q, %v", data, err)
	}
}

func TestApplyFilterIsImmediate(t *testing.T) {
	s := New(Options{Height: 10})
	feed(s, "app", "GET /a 200", "GET /b 500", "GET /c 503")
	s.ApplyFilter(`5\d\d`, true)
	if filtered, _ := s.Counts(); filtered != 2 {
		t.Errorf("filtered = %d, want 2", filtered)
	}
	if !s.Regex() || s.ActivePattern() != `5\d\d` {
		t.Errorf("regex %v pattern %q", s.Regex(), s.ActivePattern())
	}
}

func TestBookmarksInLastWindow(t *testing.T) {
	s := New(Options{Height: 20})
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	feed(s, "app", lines...)
	s.Bookmarks().Toggle(85)
	s.Bookmarks().Toggle(90)
	s.View().Top(100)

	for _, want := range []int{85, 90} {
		if !s.NextBookmark() {
			t.Fatalf("NextBookmark to %d failed", want)
		}
		if l, _ := s.CurrentLine(); l.Seq != want {
			t.Errorf("current line = %d, want %d", l.Seq, want)
		}
	}
	if s.NextBookmark() {
		t.Error("NextBookmark past the last mark should fail")
	}
	if !s.PrevBookmark() {
		t.Fatal("PrevBookmark failed")
	}
	if l, _ := s.CurrentLine(); l.Seq != 85 {
		t.Errorf("current line after PrevBookmark = %d, want 85", l.Seq)
	}
	if off := s.View().Offset(); off != 80 {
		t.Errorf("offset = %d, want 80", off)
	}

	s.View().ScrollTo(99, 100)
	s.ToggleBookmark()
	if !s.Bookmarks().Has(99) || s.Bookmarks().Has(80) {
		t.Errorf("bookmarks = %v, want 99 marked", s.Bookmarks().Sorted())
	}

	var current []int
	for _, r := range s.Rows() {
		if r.Current {
			current = append(current, r.Seq)
		}
	}
	if len(current) != 1 || current[0] != 99 {
		t.Errorf("current rows = %v, want [99]", current)
	}
}

func TestMatchNavigation(t *testing.T) {
	s := New(Options{Height: 10})
	feed(s, "app", "error a", "ok", "error b", "x", "error c")

	if s.NextMatch() || s.Status() != "No active filter" {
		t.Errorf("NextMatch without filter: status = %q", s.Status())
	}

	// z* matches every line, but only "error" leaves a visible range.
	s.ApplyFilter("error|z*", true)
	s.View().Top(s.Index().Len())
	if got := s.Index().Len(); got != 5 {
		t.Fatalf("filtered = %d, want 5", got)
	}

	for _, want := range []int{2, 4} {
		if !s.NextMatch() {
			t.Fatalf("NextMatch to %d failed", want)
		}
		if l, _ := s.CurrentLine(); l.Seq != want {
			t.Errorf("current line = %d, want %d", l.Seq, want)
		}
	}
	if s.NextMatch() || s.Status() != "No next match" {
		t.Errorf("NextMatch at end: status = %q", s.Status())
	}
	if !s.PrevMatch() {
		t.Fatal("PrevMatch failed")
	}
	if l, _ := s.CurrentLine(); l.Seq != 2 {
		t.Errorf("current line after PrevMatch = %d, want 2", l.Seq)
	}
	if s.View().Following() {
		t.Error("match navigation should leave follow mode")
	}
}
