package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no --config is
// given.
const DefaultFile = "bark.yaml"

var placeholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Parse decodes a config and expands ${root}, ${project} and ${ENV}
// placeholders in paths and commands.
func Parse(data []byte) (*Config, error) {
	return parse(data, "")
}

func parse(data []byte, defaultRoot string) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if c.Root == "" {
		c.Root = defaultRoot
	}
	c.interpolate()
	return &c, nil
}

// Load reads and parses a config file. The root defaults to the
// directory holding the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	return parse(data, dir)
}

// LoadOptional loads path when it exists and returns nil otherwise.
func LoadOptional(path string) (*Config, error) {
	c, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return c, err
}

// Save writes the config as YAML.
func Save(c *Config, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) expand(s string) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		switch name {
		case "root":
			return c.Root
		case "project":
			return c.Project
		}
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return m
	})
}

func (c *Config) interpolate() {
	for name, s := range c.Sources {
		for i, f := range s.Files {
			s.Files[i] = c.expand(f)
		}
		s.Path = c.expand(s.Path)
		s.Compose = c.expand(s.Compose)
		s.Command = c.expand(s.Command)
		s.Dir = c.expand(s.Dir)
		for k, v := range s.Env {
			s.Env[k] = c.expand(v)
		}
		c.Sources[name] = s
	}
	if c.Compose != nil {
		c.Compose.File = c.expand(c.Compose.File)
	}
	c.Settings.Prefs = c.expand(c.Settings.Prefs)
}
