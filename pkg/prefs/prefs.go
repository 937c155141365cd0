// Package prefs persists display toggles and saved filters between runs.
// Preferences are stored in ~/.config/bark/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/modoterra/bark/pkg/config"
	"github.com/modoterra/bark/pkg/filter"
)

// Prefs holds the toggles the user changed in the viewer and the filters
// they saved. Unset toggles leave the configured default alone.
type Prefs struct {
	Wrap         *bool                `toml:"wrap,omitempty"`
	LevelColors  *bool                `toml:"level_colors,omitempty"`
	RelativeTime *bool                `toml:"relative_time,omitempty"`
	JSONPretty   *bool                `toml:"json_pretty,omitempty"`
	SidePanel    *bool                `toml:"side_panel,omitempty"`
	Filters      []filter.SavedFilter `toml:"filters,omitempty"`
}

const defaultPrefsPath = "~/.config/bark/prefs.toml"

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path. A missing file yields empty
// preferences. An unreadable or corrupt file also yields empty preferences,
// together with an error the caller may log; the returned Prefs are always
// usable.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Prefs{}, fmt.Errorf("resolve prefs path: %w", err)
	}

	data, err := os.ReadFile(resolved)
	if errors.Is(err, fs.ErrNotExist) {
		return Prefs{}, nil
	}
	if err != nil {
		return Prefs{}, fmt.Errorf("read prefs: %w", err)
	}

	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return Prefs{}, fmt.Errorf("parse %s: %w", resolved, err)
	}

	// Drop records that could never be activated.
	kept := p.Filters[:0]
	for _, f := range p.Filters {
		if strings.TrimSpace(f.Name) != "" && f.Pattern != "" {
			kept = append(kept, f)
		}
	}
	p.Filters = kept

	return p, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

// Settings returns the toggles as a settings layer.
func (p Prefs) Settings() config.Settings {
	return config.Settings{
		Wrap:         p.Wrap,
		LevelColors:  p.LevelColors,
		RelativeTime: p.RelativeTime,
		JSONPretty:   p.JSONPretty,
		SidePanel:    p.SidePanel,
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
