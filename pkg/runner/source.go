package runner

import (
	"context"
	"log/slog"

	"github.com/modoterra/bark/pkg/core"
)

// Source adapts a Runner to the core.Source contract.
type Source struct {
	name   string
	spec   Spec
	runner *Runner
}

// NewSource returns a source streaming the output of spec.
func NewSource(spec Spec, logger *slog.Logger) *Source {
	return &Source{name: spec.Name, spec: spec, runner: New(spec, logger)}
}

func (s *Source) Name() string { return s.name }

// Args returns the argv the source runs.
func (s *Source) Args() []string { return s.spec.Args }

func (s *Source) Stream(ctx context.Context, emit *core.Emitter) error {
	return s.runner.Run(ctx, emit)
}
