package config

import (
	"fmt"
	"strconv"
	"time"
)

// FromEnv reads BARK_* overrides. Unparseable values are reported and
// ignored.
func FromEnv(getenv func(string) string) (Settings, []error) {
	var s Settings
	var errs []error

	if v := getenv("BARK_DEBOUNCE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err != nil || ms < 0 {
			errs = append(errs, fmt.Errorf("BARK_DEBOUNCE_MS: invalid value %q", v))
		} else {
			s.Debounce = time.Duration(ms) * time.Millisecond
		}
	}
	if v := getenv("BARK_QUEUE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("BARK_QUEUE_SIZE: invalid value %q", v))
		} else {
			s.QueueSize = n
		}
	}

	flags := []struct {
		name   string
		dst    **bool
		invert bool
	}{
		{"BARK_NO_FOLLOW", &s.Follow, true},
		{"BARK_WRAP", &s.Wrap, false},
		{"BARK_NO_COLOR", &s.LevelColors, true},
		{"BARK_RELATIVE_TIME", &s.RelativeTime, false},
		{"BARK_JSON_PRETTY", &s.JSONPretty, false},
	}
	for _, f := range flags {
		v := getenv(f.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid boolean %q", f.name, v))
			continue
		}
		*f.dst = Bool(b != f.invert)
	}
	// https://no-color.org
	if getenv("NO_COLOR") != "" && s.LevelColors == nil {
		s.LevelColors = Bool(false)
	}

	s.Prefs = getenv("BARK_PREFS")
	return s, errs
}
