// Package docker follows container logs through the Docker Engine API.
package docker

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/moby/moby/api/pkg/stdcopy"
	"github.com/moby/moby/client"

	"github.com/modoterra/bark/pkg/core"
	"github.com/modoterra/bark/pkg/runner"
)

// API is the part of the Docker client a source needs.
type API interface {
	ContainerInspect(ctx context.Context, containerID string, options client.ContainerInspectOptions) (client.ContainerInspectResult, error)
	ContainerLogs(ctx context.Context, containerID string, options client.ContainerLogsOptions) (client.ContainerLogsResult, error)
}

// NewClient connects using DOCKER_HOST and friends, negotiating the API
// version with the daemon.
func NewClient() (*client.Client, error) {
	cli, err := client.New(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return cli, nil
}

// Options tunes a container source.
type Options struct {
	// Name overrides the display name. Defaults to the container.
	Name string
	// Tail is passed to the logs endpoint: "all" or a line count.
	Tail   string
	Logger *slog.Logger
}

// Source follows the logs of one container.
type Source struct {
	api       API
	container string
	opts      Options
}

// New returns a source for container.
func New(api API, container string, opts Options) *Source {
	if opts.Name == "" {
		opts.Name = container
	}
	if opts.Tail == "" {
		opts.Tail = "all"
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Source{api: api, container: container, opts: opts}
}

func (s *Source) Name() string { return s.opts.Name }

// Stream follows stdout and stderr until the container stops or ctx is
// cancelled. Non-TTY output is demultiplexed from the Docker frame format.
func (s *Source) Stream(ctx context.Context, emit *core.Emitter) error {
	inspect, err := s.api.ContainerInspect(ctx, s.container, client.ContainerInspectOptions{})
	if err != nil {
		return fmt.Errorf("inspect %s: %w", s.container, err)
	}
	tty := inspect.Container.Config != nil && inspect.Container.Config.Tty
	if st := inspect.Container.State; st != nil && !st.Running {
		s.opts.Logger.Info("container not running", "container", s.container, "state", string(st.Status))
	}

	rc, err := s.api.ContainerLogs(ctx, s.container, client.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
		Tail:       s.opts.Tail,
	})
	if err != nil {
		return fmt.Errorf("logs %s: %w", s.container, err)
	}
	defer rc.Close()
	s.opts.Logger.Info("following container", "container", s.container, "tty", tty)

	var r io.Reader = rc
	if !tty {
		pr, pw := io.Pipe()
		defer pr.Close()
		go func() {
			_, err := stdcopy.StdCopy(pw, pw, rc)
			pw.CloseWithError(err)
		}()
		r = pr
	}

	err = runner.ScanLines(r, func(line string) error {
		return emit.Line(ctx, line)
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("read logs %s: %w", s.container, err)
	}
	return nil
}
