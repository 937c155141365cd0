// Package journald follows the journal of a systemd unit.
package journald

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/coreos/go-systemd/v22/dbus"

	"github.com/modoterra/bark/pkg/core"
	"github.com/modoterra/bark/pkg/runner"
)

// UnitState is the systemd view of a unit.
type UnitState struct {
	Name        string
	LoadState   string
	ActiveState string
	SubState    string
}

// Found reports whether systemd knows the unit.
func (u UnitState) Found() bool {
	return u.LoadState != "" && u.LoadState != "not-found"
}

// Describe renders the state the way systemctl status does.
func (u UnitState) Describe() string {
	switch {
	case !u.Found():
		return "not found"
	case u.SubState != "":
		return fmt.Sprintf("%s (%s)", u.ActiveState, u.SubState)
	default:
		return u.ActiveState
	}
}

// Prober looks up a unit before its journal is followed.
type Prober interface {
	Probe(ctx context.Context, unit string) (UnitState, error)
}

// DBusProber asks systemd over D-Bus.
type DBusProber struct{}

func (DBusProber) Probe(ctx context.Context, unit string) (UnitState, error) {
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return UnitState{}, fmt.Errorf("dbus connect: %w", err)
	}
	defer conn.Close()

	units, err := conn.ListUnitsByNamesContext(ctx, []string{unit})
	if err != nil {
		return UnitState{}, fmt.Errorf("list units: %w", err)
	}
	if len(units) == 0 {
		return UnitState{Name: unit, LoadState: "not-found"}, nil
	}
	u := units[0]
	return UnitState{Name: u.Name, LoadState: u.LoadState, ActiveState: u.ActiveState, SubState: u.SubState}, nil
}

// UnitName adds the .service suffix when the unit has no type.
func UnitName(unit string) string {
	if strings.Contains(unit, ".") {
		return unit
	}
	return unit + ".service"
}

// Args builds the journalctl invocation.
func Args(unit string, lines int) []string {
	return []string{"journalctl", "-f", "-u", unit, "-o", "short-iso", "-n", fmt.Sprint(lines)}
}

// Source follows one unit.
type Source struct {
	unit   string
	prober Prober
	follow core.Source
	logger *slog.Logger
}

// New returns a source for unit. A nil prober skips the D-Bus check.
func New(unit string, prober Prober, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	unit = UnitName(unit)
	return &Source{
		unit:   unit,
		prober: prober,
		follow: runner.NewSource(runner.Spec{
			Name:    unit,
			Args:    Args(unit, 100),
			Restart: core.RestartOnFailure,
		}, logger),
		logger: logger,
	}
}

func (s *Source) Name() string { return strings.TrimSuffix(s.unit, ".service") }

// Stream probes the unit, reporting an unknown unit as an Error event,
// then follows journalctl.
func (s *Source) Stream(ctx context.Context, emit *core.Emitter) error {
	if s.prober != nil {
		state, err := s.prober.Probe(ctx, s.unit)
		switch {
		case err != nil:
			s.logger.Debug("unit probe unavailable", "unit", s.unit, "err", err)
		case !state.Found():
			if err := emit.Error(ctx, fmt.Errorf("unit %s not found", s.unit)); err != nil {
				return nil
			}
		default:
			s.logger.Info("subscribed to journal", "unit", s.unit, "state", state.Describe())
		}
	}
	return s.follow.Stream(ctx, emit)
}
