package core

import (
	"context"
	"strings"
	"time"
)

// EventKind identifies the three kinds of events a source may produce.
type EventKind int

const (
	EventLine EventKind = iota
	EventError
	EventEnd
)

func (k EventKind) String() string {
	switch k {
	case EventLine:
		return "line"
	case EventError:
		return "error"
	case EventEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Event is one message on the multiplexed queue.
type Event struct {
	Kind   EventKind `json:"kind"`
	Source string    `json:"source"`
	Text   string    `json:"text,omitempty"` // line text or error message
	At     time.Time `json:"at"`
}

// Emitter sends events for a single source onto the shared queue.
// Sends block while the queue is full.
type Emitter struct {
	source string
	out    chan<- Event
	now    func() time.Time
}

// NewEmitter returns an emitter tagging events with the given source name.
func NewEmitter(source string, out chan<- Event) *Emitter {
	return &Emitter{source: source, out: out, now: time.Now}
}

// Source returns the name events are tagged with.
func (e *Emitter) Source() string { return e.source }

// Line emits a line event. Trailing line terminators are removed.
func (e *Emitter) Line(ctx context.Context, text string) error {
	return e.send(ctx, Event{Kind: EventLine, Text: strings.TrimRight(text, "\r\n")})
}

// Error emits a non-fatal error event.
func (e *Emitter) Error(ctx context.Context, err error) error {
	return e.send(ctx, Event{Kind: EventError, Text: err.Error()})
}

// End emits the end-of-stream event.
func (e *Emitter) End(ctx context.Context) error {
	return e.send(ctx, Event{Kind: EventEnd})
}

func (e *Emitter) send(ctx context.Context, ev Event) error {
	ev.Source = e.source
	ev.At = e.now()
	select {
	case e.out <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
