package presets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modoterra/bark/pkg/config"
	"github.com/modoterra/bark/pkg/filter"
)

// unitDirs are searched for systemd unit files.
var unitDirs = []string{
	"/etc/systemd/system",
	"/lib/systemd/system",
	"/usr/lib/systemd/system",
}

// GenerateLaravel creates a config for a Laravel project at the given root.
func GenerateLaravel(root string) (*config.Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	// Verify it's a Laravel project
	if _, err := os.Stat(filepath.Join(absRoot, "artisan")); err != nil {
		return nil, fmt.Errorf("%s does not appear to be a Laravel project (no artisan file)", absRoot)
	}

	c := &config.Config{
		Version: 1,
		Project: filepath.Base(absRoot),
		Root:    absRoot,
		Sources: make(map[string]config.SourceDef),
	}

	c.Sources["app-log"] = config.SourceDef{
		Kind:  "file",
		Files: []string{filepath.Join(absRoot, "storage", "logs", "*.log")},
	}

	artisan := func(name, args, restart string) {
		c.Sources[name] = config.SourceDef{
			Kind:    "exec",
			Command: "php artisan " + args,
			Dir:     absRoot,
			Restart: restart,
		}
	}
	artisan("queue-worker", "queue:work", "on-failure")
	artisan("scheduler", "schedule:work", "always")

	// Reverb (check if installed)
	if data, err := os.ReadFile(filepath.Join(absRoot, "composer.lock")); err == nil {
		if strings.Contains(string(data), "laravel/reverb") {
			artisan("reverb", "reverb:start", "on-failure")
		}
	}

	// Journald units, only the ones installed here
	units := []struct {
		name  string
		units []string
	}{
		{"nginx", []string{"nginx.service"}},
		{"redis", []string{"redis.service", "redis-server.service"}},
		{"mysql", []string{"mysql.service", "mysqld.service", "mariadb.service"}},
	}
	for _, u := range units {
		for _, unit := range u.units {
			if unitExists(unit) {
				c.Sources[u.name] = config.SourceDef{Kind: "journald", Unit: unit}
				break
			}
		}
	}
	for _, ver := range []string{"8.4", "8.3", "8.2", "8.1", "8.0", "7.4"} {
		unit := fmt.Sprintf("php%s-fpm.service", ver)
		if unitExists(unit) {
			c.Sources["php-fpm"] = config.SourceDef{Kind: "journald", Unit: unit}
			break
		}
	}

	for _, name := range []string{"compose.yml", "compose.yaml", "docker-compose.yml", "docker-compose.yaml"} {
		if _, err := os.Stat(filepath.Join(absRoot, name)); err == nil {
			c.Compose = &config.ComposeRef{File: filepath.Join(absRoot, name)}
			break
		}
	}

	c.Filters = []filter.SavedFilter{
		{Name: "errors", Pattern: `\.(ERROR|CRITICAL|ALERT|EMERGENCY):`, IsRegex: true},
		{Name: "warnings", Pattern: `\.WARNING:`, IsRegex: true},
		{Name: "exceptions", Pattern: "exception"},
		{Name: "failed jobs", Pattern: `\bFAIL(ED)?\b`, IsRegex: true},
	}

	return c, nil
}

// unitExists checks if a systemd unit file is installed.
func unitExists(unit string) bool {
	for _, dir := range unitDirs {
		if _, err := os.Stat(filepath.Join(dir, unit)); err == nil {
			return true
		}
	}
	return false
}
