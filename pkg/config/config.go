// Package config loads bark.yaml: the sources to follow, saved filters
// and display settings.
package config

import (
	"time"

	"github.com/modoterra/bark/pkg/filter"
)

// Config represents a bark.yaml configuration file.
type Config struct {
	Version  int                  `yaml:"version"`
	Project  string               `yaml:"project,omitempty"`
	Root     string               `yaml:"root,omitempty"`
	Sources  map[string]SourceDef `yaml:"sources,omitempty"`
	Compose  *ComposeRef          `yaml:"compose,omitempty"`
	Filters  []filter.SavedFilter `yaml:"filters,omitempty"`
	Settings Settings             `yaml:"settings,omitempty"`
}

// SourceDef is one configured source. Which fields apply depends on Kind.
type SourceDef struct {
	Kind      string            `yaml:"kind"`
	Files     []string          `yaml:"files,omitempty"`     // file: paths or globs
	Path      string            `yaml:"path,omitempty"`      // ssh: remote file; socket: socket path
	Container string            `yaml:"container,omitempty"` // docker, k8s
	Compose   string            `yaml:"compose,omitempty"`   // docker: path to compose.yml
	Service   string            `yaml:"service,omitempty"`   // docker: compose service name
	Pod       string            `yaml:"pod,omitempty"`       // k8s
	Namespace string            `yaml:"namespace,omitempty"` // k8s
	Host      string            `yaml:"host,omitempty"`      // ssh
	Unit      string            `yaml:"unit,omitempty"`      // journald
	Command   string            `yaml:"command,omitempty"`   // exec
	Dir       string            `yaml:"dir,omitempty"`       // exec
	Restart   string            `yaml:"restart,omitempty"`   // exec: always|on-failure|never
	Env       map[string]string `yaml:"env,omitempty"`       // exec
	Shell     bool              `yaml:"shell,omitempty"`     // exec
}

// ComposeRef points to a compose.yml whose services are followed as
// docker sources.
type ComposeRef struct {
	File    string `yaml:"file"`
	Project string `yaml:"project,omitempty"`
}

// Settings are the tunables and display defaults.
type Settings struct {
	Debounce     time.Duration `yaml:"debounce,omitempty"`
	QueueSize    int           `yaml:"queue_size,omitempty"`
	Follow       *bool         `yaml:"follow,omitempty"`
	Wrap         *bool         `yaml:"wrap,omitempty"`
	LevelColors  *bool         `yaml:"level_colors,omitempty"`
	RelativeTime *bool         `yaml:"relative_time,omitempty"`
	JSONPretty   *bool         `yaml:"json_pretty,omitempty"`
	SidePanel    *bool         `yaml:"side_panel,omitempty"`
	Tail         int           `yaml:"tail,omitempty"`
	Prefs        string        `yaml:"prefs,omitempty"`
}

const (
	DefaultDebounce  = 150 * time.Millisecond
	DefaultQueueSize = 1024
)

// Merge overlays the fields set in o onto s.
func (s Settings) Merge(o Settings) Settings {
	if o.Debounce != 0 {
		s.Debounce = o.Debounce
	}
	if o.QueueSize != 0 {
		s.QueueSize = o.QueueSize
	}
	if o.Tail != 0 {
		s.Tail = o.Tail
	}
	if o.Prefs != "" {
		s.Prefs = o.Prefs
	}
	for _, p := range []struct{ dst, src **bool }{
		{&s.Follow, &o.Follow},
		{&s.Wrap, &o.Wrap},
		{&s.LevelColors, &o.LevelColors},
		{&s.RelativeTime, &o.RelativeTime},
		{&s.JSONPretty, &o.JSONPretty},
		{&s.SidePanel, &o.SidePanel},
	} {
		if *p.src != nil {
			v := **p.src
			*p.dst = &v
		}
	}
	return s
}

// Resolved is Settings with every default applied.
type Resolved struct {
	Debounce     time.Duration
	QueueSize    int
	Follow       bool
	Wrap         bool
	LevelColors  bool
	RelativeTime bool
	JSONPretty   bool
	// SidePanel is nil when it should follow the number of sources.
	SidePanel *bool
	Tail      int
	Prefs     string
}

// Resolve applies defaults.
func (s Settings) Resolve() Resolved {
	r := Resolved{
		Debounce:     s.Debounce,
		QueueSize:    s.QueueSize,
		Follow:       boolOr(s.Follow, true),
		Wrap:         boolOr(s.Wrap, false),
		LevelColors:  boolOr(s.LevelColors, true),
		RelativeTime: boolOr(s.RelativeTime, false),
		JSONPretty:   boolOr(s.JSONPretty, false),
		SidePanel:    s.SidePanel,
		Tail:         s.Tail,
		Prefs:        s.Prefs,
	}
	if r.Debounce <= 0 {
		r.Debounce = DefaultDebounce
	}
	if r.QueueSize <= 0 {
		r.QueueSize = DefaultQueueSize
	}
	return r
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// Bool returns a pointer to v, for building Settings literals.
func Bool(v bool) *bool { return &v }
