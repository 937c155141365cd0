package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/modoterra/bark/pkg/core"
	"github.com/modoterra/bark/pkg/filter"
)

// ErrNoSources is reported when a config defines nothing to follow.
var ErrNoSources = errors.New("config must define at least one source or a compose file")

// Validate checks the config for structural correctness.
func Validate(c *Config) []error {
	var errs []error

	if c.Version != 1 {
		errs = append(errs, fmt.Errorf("version must be 1, got %d", c.Version))
	}

	if len(c.Sources) == 0 && c.Compose == nil {
		errs = append(errs, ErrNoSources)
	}

	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		errs = append(errs, validateSource(name, c.Sources[name])...)
	}

	if c.Compose != nil && c.Compose.File == "" {
		errs = append(errs, errors.New("compose: file is required"))
	}

	seen := map[string]bool{}
	for i, f := range c.Filters {
		key := strings.ToLower(strings.TrimSpace(f.Name))
		switch {
		case key == "":
			errs = append(errs, fmt.Errorf("filter %d: %w", i+1, filter.ErrEmptyName))
		case seen[key]:
			errs = append(errs, fmt.Errorf("filter %q is defined twice", f.Name))
		}
		seen[key] = true
		if f.Pattern == "" {
			errs = append(errs, fmt.Errorf("filter %q: pattern is required", f.Name))
		}
	}

	if c.Settings.Debounce < 0 {
		errs = append(errs, fmt.Errorf("settings: debounce must not be negative, got %s", c.Settings.Debounce))
	}
	if c.Settings.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("settings: queue_size must not be negative, got %d", c.Settings.QueueSize))
	}
	if c.Settings.Tail < 0 {
		errs = append(errs, fmt.Errorf("settings: tail must not be negative, got %d", c.Settings.Tail))
	}

	return errs
}

func validateSource(name string, s SourceDef) []error {
	var errs []error
	req := func(field, value string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("source %q (%s): %s is required", name, s.Kind, field))
		}
	}
	switch core.Kind(s.Kind) {
	case core.KindFile:
		if len(s.Files) == 0 {
			errs = append(errs, fmt.Errorf("source %q (file): files is required", name))
		}
	case core.KindStdin:
	case core.KindDocker:
		if s.Container == "" && (s.Compose == "" || s.Service == "") {
			errs = append(errs, fmt.Errorf("source %q (docker): container or compose+service is required", name))
		}
	case core.KindK8s:
		req("pod", s.Pod)
	case core.KindSSH:
		req("host", s.Host)
		req("path", s.Path)
	case core.KindJournald:
		req("unit", s.Unit)
	case core.KindExec:
		req("command", s.Command)
		switch core.RestartPolicy(s.Restart) {
		case "", core.RestartAlways, core.RestartOnFailure, core.RestartNever:
		default:
			errs = append(errs, fmt.Errorf("source %q (exec): restart must be always, on-failure, or never; got %q", name, s.Restart))
		}
	case core.KindSocket:
	case "":
		errs = append(errs, fmt.Errorf("source %q: kind is required", name))
	default:
		errs = append(errs, fmt.Errorf("source %q: unknown kind %q", name, s.Kind))
	}
	return errs
}
