// Package mux fans the events of every source into one bounded queue.
package mux

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/modoterra/bark/pkg/core"
)

// DefaultCapacity is the queue size used when none is configured.
const DefaultCapacity = 1024

// Mux runs sources concurrently and delivers their events in arrival
// order on a single channel. A full queue blocks the producing source.
type Mux struct {
	sources []core.Source
	events  chan core.Event
	logger  *slog.Logger
}

// New creates a multiplexer with a queue of the given capacity.
func New(capacity int, logger *slog.Logger, sources ...core.Source) *Mux {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Mux{
		sources: sources,
		events:  make(chan core.Event, capacity),
		logger:  logger,
	}
}

// Events returns the queue. It is closed after Run returns.
func (m *Mux) Events() <-chan core.Event { return m.events }

// Sources returns the sources in registration order.
func (m *Mux) Sources() []core.Source { return m.sources }

// Run streams every source until each one ends or ctx is cancelled. A
// source that returns an error yields an Error event; every source yields
// an EndOfStream event when it stops. Source failures are only delivered
// as events: Run returns ctx.Err() when cancelled and nil once every source
// ended on its own.
func (m *Mux) Run(ctx context.Context) error {
	defer close(m.events)

	var g errgroup.Group
	for _, src := range m.sources {
		g.Go(func() error {
			m.stream(ctx, src)
			return nil
		})
	}
	_ = g.Wait()
	m.logger.Info("all sources stopped", "count", len(m.sources))
	return ctx.Err()
}

func (m *Mux) stream(ctx context.Context, src core.Source) {
	emit := core.NewEmitter(src.Name(), m.events)
	m.logger.Info("source started", "source", src.Name())

	err := src.Stream(ctx, emit)
	if ctx.Err() != nil {
		m.logger.Debug("source cancelled", "source", src.Name())
		return
	}
	if err != nil {
		m.logger.Warn("source failed", "source", src.Name(), "error", err)
		if emit.Error(ctx, err) != nil {
			return
		}
	}
	m.logger.Info("source ended", "source", src.Name())
	_ = emit.End(ctx)
}
