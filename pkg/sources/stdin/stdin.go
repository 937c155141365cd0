// Package stdin streams lines from standard input or any reader.
package stdin

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/modoterra/bark/pkg/core"
	"github.com/modoterra/bark/pkg/runner"
)

// Source reads lines from a reader until EOF.
type Source struct {
	name string
	r    io.Reader
}

// New returns a source reading from os.Stdin.
func New() *Source {
	return NewReader("stdin", os.Stdin)
}

// NewReader returns a source reading from r.
func NewReader(name string, r io.Reader) *Source {
	return &Source{name: name, r: r}
}

func (s *Source) Name() string { return s.name }

// Stream emits each line and returns at EOF. A blocked read is abandoned
// when ctx is cancelled.
func (s *Source) Stream(ctx context.Context, emit *core.Emitter) error {
	done := make(chan error, 1)
	go func() {
		done <- runner.ScanLines(s.r, func(line string) error {
			return emit.Line(ctx, line)
		})
	}()
	select {
	case err := <-done:
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("read %s: %w", s.name, err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}
