// Package socket accepts lines piped in by `bark send`.
package socket

import (
	"context"
	"log/slog"

	"github.com/modoterra/bark/pkg/core"
	"github.com/modoterra/bark/pkg/transport/uds"
)

// Source listens on a Unix socket. Every client's lines are emitted under
// the source's name; a client sending EOF ends only its own connection.
type Source struct {
	path   string
	logger *slog.Logger
}

func New(path string, logger *slog.Logger) *Source {
	if path == "" {
		path = uds.DefaultSocketPath()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{path: path, logger: logger}
}

func (s *Source) Name() string { return "socket:" + s.path }

// Path returns the socket path.
func (s *Source) Path() string { return s.path }

// Stream serves until ctx is cancelled.
func (s *Source) Stream(ctx context.Context, emit *core.Emitter) error {
	srv := uds.NewServer(s.path, func(ctx context.Context, _ string, line string) error {
		return emit.Line(ctx, line)
	}, s.logger)
	return srv.Start(ctx)
}
