package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modoterra/bark/pkg/core"
)

func start(t *testing.T, path string, opts Options) (<-chan core.Event, func()) {
	t.Helper()
	ch := make(chan core.Event, 64)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	opts.Poll = 20 * time.Millisecond
	src := New(path, opts)
	go func() {
		defer close(done)
		_ = src.Stream(ctx, core.NewEmitter(src.Name(), ch))
	}()
	return ch, func() {
		cancel()
		<-done
	}
}

func expectLine(t *testing.T, ch <-chan core.Event, want string) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind != core.EventLine {
				continue
			}
			if ev.Text != want {
				t.Fatalf("line = %q, want %q", ev.Text, want)
			}
			return
		case <-timeout:
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func appendTo(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(data); err != nil {
		t.Fatal(err)
	}
	f.Close()
}

func TestReadsExistingThenFollows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("existing line\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ch, stop := start(t, path, Options{})
	defer stop()

	expectLine(t, ch, "existing line")
	appendTo(t, path, "hello from test\n")
	expectLine(t, ch, "hello from test")
}

func TestPartialLineHeldUntilNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("par"), 0o644); err != nil {
		t.Fatal(err)
	}
	ch, stop := start(t, path, Options{})
	defer stop()

	time.Sleep(100 * time.Millisecond)
	appendTo(t, path, "tial\r\n")
	expectLine(t, ch, "partial")
}

func TestTailKeepsLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("1\n2\n3\n4\n5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ch, stop := start(t, path, Options{Tail: 2})
	defer stop()

	expectLine(t, ch, "4")
	expectLine(t, ch, "5")
	appendTo(t, path, "6\n")
	expectLine(t, ch, "6")
}

func TestTailWindow(t *testing.T) {
	tests := []struct {
		name    string
		content string
		tail    int
		want    []string
	}{
		{"wraps around", "1\n2\n3\n4\n5\n6\n7\n", 3, []string{"5", "6", "7"}},
		{"shorter than tail", "a\nb\n", 5, []string{"a", "b"}},
		{"exact fit", "a\nb\nc\n", 3, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "app.log")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			ch, stop := start(t, path, Options{Tail: tt.tail})
			defer stop()
			for _, want := range tt.want {
				expectLine(t, ch, want)
			}
			appendTo(t, path, "next\n")
			expectLine(t, ch, "next")
		})
	}
}

func TestTruncationRewinds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("a long first line before truncation\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ch, stop := start(t, path, Options{})
	defer stop()

	expectLine(t, ch, "a long first line before truncation")
	if err := os.WriteFile(path, []byte("new\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	expectLine(t, ch, "new")
}

func TestRotationReopens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	if err := os.WriteFile(path, []byte("before\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ch, stop := start(t, path, Options{RetryDelay: 20 * time.Millisecond})
	defer stop()

	expectLine(t, ch, "before")
	if err := os.Rename(path, filepath.Join(dir, "app.log.1")); err != nil {
		t.Fatal(err)
	}
	appendTo(t, path, "after rotation\n")
	expectLine(t, ch, "after rotation")
}

func TestGivesUpWhenFileStaysMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	src := New(path, Options{Poll: 10 * time.Millisecond, Retries: 2, RetryDelay: 10 * time.Millisecond})
	ch := make(chan core.Event, 16)
	errc := make(chan error, 1)
	go func() { errc <- src.Stream(context.Background(), core.NewEmitter(src.Name(), ch)) }()

	expectLine(t, ch, "x")
	os.Remove(path)

	select {
	case err := <-errc:
		if err == nil {
			t.Error("Stream returned nil, want error")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Stream did not give up")
	}
	var sawError bool
	for len(ch) > 0 {
		if ev := <-ch; ev.Kind == core.EventError {
			sawError = true
		}
	}
	if !sawError {
		t.Error("missing file should produce an error event")
	}
}

func TestOpenMissingFile(t *testing.T) {
	src := New(filepath.Join(t.TempDir(), "nope.log"), Options{})
	if err := src.Stream(context.Background(), core.NewEmitter("x", make(chan core.Event, 1))); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.log", "b.log", "sub/c.log", "sub/d.txt"} {
		p := filepath.Join(dir, name)
		os.MkdirAll(filepath.Dir(p), 0o755)
		os.WriteFile(p, nil, 0o644)
	}

	got, err := Expand(filepath.Join(dir, "**", "*.log"))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Expand matched %v, want 3 files", got)
	}

	plain := filepath.Join(dir, "a.log")
	if got, _ := Expand(plain); len(got) != 1 || got[0] != plain {
		t.Errorf("Expand(plain) = %v", got)
	}
	if _, err := Expand(filepath.Join(dir, "*.none")); err == nil {
		t.Error("expected error for empty glob")
	}
}
