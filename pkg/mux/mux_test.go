package mux

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/modoterra/bark/pkg/core"
)

type fakeSource struct {
	name  string
	lines []string
	err   error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Stream(ctx context.Context, emit *core.Emitter) error {
	for _, l := range f.lines {
		if err := emit.Line(ctx, l); err != nil {
			return err
		}
	}
	return f.err
}

func collect(t *testing.T, m *Mux) []core.Event {
	t.Helper()
	var out []core.Event
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-m.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("timed out waiting for the queue to close")
		}
	}
}

func TestRunDeliversAllEvents(t *testing.T) {
	a := &fakeSource{name: "a", lines: []string{"a1", "a2", "a3"}}
	b := &fakeSource{name: "b", lines: []string{"b1", "b2"}, err: errors.New("connection reset")}
	m := New(4, nil, a, b)

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()
	events := collect(t, m)
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	perSource := map[string][]core.Event{}
	for _, ev := range events {
		perSource[ev.Source] = append(perSource[ev.Source], ev)
	}

	gotA := perSource["a"]
	if len(gotA) != 4 {
		t.Fatalf("source a events = %d, want 4", len(gotA))
	}
	for i, want := range []string{"a1", "a2", "a3"} {
		if gotA[i].Kind != core.EventLine || gotA[i].Text != want {
			t.Errorf("a[%d] = %v %q, want line %q", i, gotA[i].Kind, gotA[i].Text, want)
		}
	}
	if gotA[3].Kind != core.EventEnd {
		t.Errorf("a last event = %v, want end", gotA[3].Kind)
	}

	gotB := perSource["b"]
	if len(gotB) != 4 {
		t.Fatalf("source b events = %d, want 4", len(gotB))
	}
	if gotB[2].Kind != core.EventError || gotB[2].Text != "connection reset" {
		t.Errorf("b error event = %v %q", gotB[2].Kind, gotB[2].Text)
	}
	if gotB[3].Kind != core.EventEnd {
		t.Errorf("b last event = %v, want end", gotB[3].Kind)
	}
}

func TestBackpressureBlocksProducer(t *testing.T) {
	lines := make([]string, 10)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	m := New(2, nil, &fakeSource{name: "fast", lines: lines})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	if n := len(m.events); n != 2 {
		t.Errorf("queued = %d, want capacity 2", n)
	}
	select {
	case <-done:
		t.Fatal("Run returned while the producer should be blocked")
	default:
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestCancelledSourceHasNoErrorEvent(t *testing.T) {
	blocker := sourceFunc(func(ctx context.Context, emit *core.Emitter) error {
		<-ctx.Done()
		return ctx.Err()
	})
	m := New(4, nil, blocker)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	cancel()
	for ev := range m.Events() {
		if ev.Kind == core.EventError {
			t.Errorf("unexpected error event %q", ev.Text)
		}
	}
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

type sourceFunc func(ctx context.Context, emit *core.Emitter) error

func (f sourceFunc) Name() string { return "func" }

func (f sourceFunc) Stream(ctx context.Context, emit *core.Emitter) error { return f(ctx, emit) }
