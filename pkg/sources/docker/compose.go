package docker

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// ComposeFile represents a minimal Docker Compose file.
type ComposeFile struct {
	Name     string                    `yaml:"name"`
	Services map[string]ComposeService `yaml:"services"`
}

// ComposeService is the part of a service definition used to find its
// container.
type ComposeService struct {
	Image         string            `yaml:"image"`
	ContainerName string            `yaml:"container_name"`
	Labels        map[string]string `yaml:"labels"`
}

// Target is a container resolved from a compose service.
type Target struct {
	Name      string
	Container string
	Service   string
}

// ParseComposeFile reads a compose.yml.
func ParseComposeFile(path string) (*ComposeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compose file: %w", err)
	}

	var cf ComposeFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse compose file: %w", err)
	}
	return &cf, nil
}

// ServiceNames returns the service names in sorted order.
func (cf *ComposeFile) ServiceNames() []string {
	names := make([]string, 0, len(cf.Services))
	for name := range cf.Services {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ProjectName picks the compose project: the explicit name, then the
// file's name: key, then the directory holding the file.
func ProjectName(cf *ComposeFile, path, explicit string) string {
	switch {
	case explicit != "":
		return explicit
	case cf.Name != "":
		return cf.Name
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	return filepath.Base(filepath.Dir(abs))
}

// AutoImport resolves every service not already in existing to a
// container, using container_name or the compose v2 project-service-1
// naming.
func AutoImport(cf *ComposeFile, existing map[string]bool, project string) []Target {
	var targets []Target
	for _, name := range cf.ServiceNames() {
		if existing[name] {
			continue
		}
		svc := cf.Services[name]
		containerName := svc.ContainerName
		if containerName == "" && project != "" {
			containerName = fmt.Sprintf("%s-%s-1", project, name)
		}
		targets = append(targets, Target{
			Name:      name,
			Container: containerName,
			Service:   name,
		})
	}
	return targets
}
