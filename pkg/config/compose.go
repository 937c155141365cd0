package config

import (
	"fmt"

	"github.com/modoterra/bark/pkg/core"
	"github.com/modoterra/bark/pkg/sources/docker"
)

// ExpandCompose adds a docker source for every compose service that no
// configured source already names.
func ExpandCompose(c *Config) error {
	if c.Compose == nil {
		return nil
	}
	cf, err := docker.ParseComposeFile(c.Compose.File)
	if err != nil {
		return err
	}
	if c.Sources == nil {
		c.Sources = make(map[string]SourceDef)
	}
	existing := map[string]bool{}
	for name, s := range c.Sources {
		existing[name] = true
		if s.Service != "" {
			existing[s.Service] = true
		}
	}
	project := docker.ProjectName(cf, c.Compose.File, c.Compose.Project)
	for _, t := range docker.AutoImport(cf, existing, project) {
		if t.Container == "" {
			return fmt.Errorf("compose service %q: cannot resolve container name", t.Service)
		}
		c.Sources[t.Name] = SourceDef{
			Kind:      string(core.KindDocker),
			Container: t.Container,
			Compose:   c.Compose.File,
			Service:   t.Service,
		}
	}
	return nil
}

// ContainerFor resolves the container a docker source follows, looking
// the service up in its compose file when no container is given.
func ContainerFor(s SourceDef) (string, error) {
	if s.Container != "" {
		return s.Container, nil
	}
	cf, err := docker.ParseComposeFile(s.Compose)
	if err != nil {
		return "", err
	}
	svc, ok := cf.Services[s.Service]
	if !ok {
		return "", fmt.Errorf("compose file %s has no service %q", s.Compose, s.Service)
	}
	if svc.ContainerName != "" {
		return svc.ContainerName, nil
	}
	return fmt.Sprintf("%s-%s-1", docker.ProjectName(cf, s.Compose, ""), s.Service), nil
}
