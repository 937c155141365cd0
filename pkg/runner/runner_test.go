package runner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/modoterra/bark/pkg/core"
)

func TestBackoff(t *testing.T) {
	tests := []struct {
		failures int
		want     time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{10, 30 * time.Second},
		{0, 1 * time.Second},
		{34, 30 * time.Second},
		{35, 30 * time.Second},
		{64, 30 * time.Second},
		{65, 30 * time.Second},
		{1000, 30 * time.Second},
	}
	for _, tt := range tests {
		got := backoff(tt.failures)
		if got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.failures, got, tt.want)
		}
	}
}

func drain(ch <-chan core.Event) []core.Event {
	var out []core.Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestRunStreamsStdoutAndStderr(t *testing.T) {
	ch := make(chan core.Event, 16)
	r := New(Spec{
		Name:    "echo",
		Args:    ShellArgs("echo out; echo err >&2"),
		Restart: core.RestartNever,
	}, nil)

	if err := r.Run(context.Background(), core.NewEmitter("echo", ch)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := map[string]bool{}
	for _, ev := range drain(ch) {
		got[ev.Text] = true
	}
	if !got["out"] || !got["err"] {
		t.Errorf("lines = %v, want out and err", got)
	}
}

func TestRunReturnsExitError(t *testing.T) {
	ch := make(chan core.Event, 16)
	r := New(Spec{Name: "fail", Args: ShellArgs("exit 3"), Restart: core.RestartNever}, nil)
	err := r.Run(context.Background(), core.NewEmitter("fail", ch))
	if err == nil || !strings.Contains(err.Error(), "fail exited") {
		t.Errorf("Run error = %v, want exit error", err)
	}
}

func TestRunRestartsOnFailure(t *testing.T) {
	ch := make(chan core.Event, 64)
	r := New(Spec{Name: "flaky", Args: ShellArgs("echo tick; exit 1"), Restart: core.RestartOnFailure}, nil)
	r.delay = func(int) time.Duration { return time.Millisecond }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, core.NewEmitter("flaky", ch)) }()

	ticks, errs := 0, 0
	timeout := time.After(5 * time.Second)
	for ticks < 3 {
		select {
		case ev := <-ch:
			switch ev.Kind {
			case core.EventLine:
				ticks++
			case core.EventError:
				errs++
			}
		case <-timeout:
			t.Fatalf("saw %d runs, want 3", ticks)
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run after cancel = %v, want nil", err)
	}
	if errs < 2 {
		t.Errorf("error events = %d, want at least 2", errs)
	}
}

func TestRunCleanExitNotRestartedOnFailurePolicy(t *testing.T) {
	ch := make(chan core.Event, 16)
	r := New(Spec{Name: "once", Args: FieldArgs("echo once")}, nil)
	r.delay = func(int) time.Duration { return time.Millisecond }
	if err := r.Run(context.Background(), core.NewEmitter("once", ch)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n := len(drain(ch)); n != 1 {
		t.Errorf("events = %d, want 1", n)
	}
}

func TestRunEmptyCommand(t *testing.T) {
	r := New(Spec{Name: "empty"}, nil)
	if err := r.Run(context.Background(), core.NewEmitter("empty", make(chan core.Event, 1))); err == nil {
		t.Error("expected error for empty command")
	}
}

func TestScanLinesStopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	var seen []string
	err := ScanLines(strings.NewReader("a\nb\nc\n"), func(s string) error {
		seen = append(seen, s)
		if s == "b" {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) || len(seen) != 2 {
		t.Errorf("ScanLines = %v, seen %v", err, seen)
	}
}

func TestScanLinesSplitsOverlongLines(t *testing.T) {
	long := strings.Repeat("x", 2*MaxLineBytes+10)
	var sizes []int
	var last string
	err := ScanLines(strings.NewReader(long+"\nshort\n"), func(s string) error {
		sizes = append(sizes, len(s))
		last = s
		return nil
	})
	if err != nil {
		t.Fatalf("ScanLines: %v", err)
	}
	want := []int{MaxLineBytes, MaxLineBytes, 10, 5}
	if len(sizes) != len(want) {
		t.Fatalf("line sizes = %v, want %v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Errorf("line %d size = %d, want %d", i, sizes[i], want[i])
		}
	}
	if last != "short" {
		t.Errorf("last line = %q, want short", last)
	}
}

func TestRunSurvivesOverlongLine(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ch := make(chan core.Event, 64)
	lines := make(chan int, 1)
	go func() {
		n, sawDone := 0, false
		for ev := range ch {
			n++
			if ev.Text == "done" {
				sawDone = true
			}
		}
		if !sawDone {
			n = -1
		}
		lines <- n
	}()

	r := New(Spec{
		Name:    "wide",
		Args:    ShellArgs("head -c 2097152 /dev/zero | tr '\\0' x; echo; seq 1 20000; echo done"),
		Restart: core.RestartNever,
	}, nil)
	err := r.Run(ctx, core.NewEmitter("wide", ch))
	if ctx.Err() != nil {
		t.Fatal("Run did not return before the deadline")
	}
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	close(ch)
	if n := <-lines; n < 20001 {
		t.Errorf("emitted %d lines, want the split long line, 20000 numbers and done", n)
	}
}
