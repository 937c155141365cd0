package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/moby/moby/client"

	"github.com/modoterra/bark/pkg/config"
	"github.com/modoterra/bark/pkg/core"
	"github.com/modoterra/bark/pkg/sources/docker"
	execsrc "github.com/modoterra/bark/pkg/sources/exec"
	"github.com/modoterra/bark/pkg/sources/file"
	"github.com/modoterra/bark/pkg/sources/journald"
	"github.com/modoterra/bark/pkg/sources/k8s"
	"github.com/modoterra/bark/pkg/sources/socket"
	"github.com/modoterra/bark/pkg/sources/ssh"
	"github.com/modoterra/bark/pkg/sources/stdin"
)

// sourceFlags are the source selections given on the command line.
type sourceFlags struct {
	docker    []string
	k8s       string
	namespace string
	container string
	ssh       string
	journal   []string
	exec      []string
	listen    string
}

// builder turns config entries and flags into sources. It owns the
// shared Docker client.
type builder struct {
	settings  config.Resolved
	logger    *slog.Logger
	prober    journald.Prober
	dockerAPI docker.API
	cli       *client.Client
	usesStdin bool
}

func (b *builder) build(cfg *config.Config, args []string, fl sourceFlags) ([]core.Source, error) {
	var out []core.Source

	if cfg != nil {
		names := make([]string, 0, len(cfg.Sources))
		for name := range cfg.Sources {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			srcs, err := b.fromDef(name, cfg.Sources[name])
			if err != nil {
				return nil, fmt.Errorf("source %q: %w", name, err)
			}
			out = append(out, srcs...)
		}
	}

	if fl.ssh != "" {
		for _, path := range args {
			out = append(out, ssh.New(ssh.Options{Host: fl.ssh, Path: path}, b.logger))
		}
		args = nil
	}
	for _, arg := range args {
		if arg == "-" {
			out = append(out, b.stdin())
			continue
		}
		srcs, err := b.files(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, srcs...)
	}

	for _, c := range fl.docker {
		src, err := b.container(c, c)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	if fl.k8s != "" {
		out = append(out, k8s.New(k8s.Options{Pod: fl.k8s, Namespace: fl.namespace, Container: fl.container}, b.logger))
	}
	for _, unit := range fl.journal {
		out = append(out, journald.New(unit, b.journalProber(), b.logger))
	}
	for _, command := range fl.exec {
		out = append(out, execsrc.New(execsrc.Options{Command: command, Shell: true}, b.logger))
	}
	if fl.listen != "" {
		out = append(out, socket.New(fl.listen, b.logger))
	}

	return dedupe(out), nil
}

func (b *builder) fromDef(name string, def config.SourceDef) ([]core.Source, error) {
	switch core.Kind(def.Kind) {
	case core.KindFile:
		var out []core.Source
		for _, pattern := range def.Files {
			srcs, err := b.files(pattern)
			if err != nil {
				return nil, err
			}
			out = append(out, srcs...)
		}
		return out, nil
	case core.KindStdin:
		return []core.Source{b.stdin()}, nil
	case core.KindDocker:
		container, err := config.ContainerFor(def)
		if err != nil {
			return nil, err
		}
		src, err := b.container(name, container)
		if err != nil {
			return nil, err
		}
		return []core.Source{src}, nil
	case core.KindK8s:
		return []core.Source{k8s.New(k8s.Options{Pod: def.Pod, Namespace: def.Namespace, Container: def.Container}, b.logger)}, nil
	case core.KindSSH:
		return []core.Source{ssh.New(ssh.Options{Host: def.Host, Path: def.Path}, b.logger)}, nil
	case core.KindJournald:
		return []core.Source{journald.New(def.Unit, b.journalProber(), b.logger)}, nil
	case core.KindExec:
		return []core.Source{execsrc.New(execsrc.Options{
			Name:    name,
			Command: def.Command,
			Dir:     def.Dir,
			Env:     def.Env,
			Restart: core.RestartPolicy(def.Restart),
			Shell:   def.Shell,
		}, b.logger)}, nil
	case core.KindSocket:
		return []core.Source{socket.New(def.Path, b.logger)}, nil
	}
	return nil, fmt.Errorf("unknown kind %q", def.Kind)
}

func (b *builder) stdin() core.Source {
	b.usesStdin = true
	return stdin.New()
}

func (b *builder) files(pattern string) ([]core.Source, error) {
	paths, err := file.Expand(pattern)
	if err != nil {
		return nil, err
	}
	out := make([]core.Source, 0, len(paths))
	for _, p := range paths {
		out = append(out, file.New(p, file.Options{Tail: b.settings.Tail, Logger: b.logger}))
	}
	return out, nil
}

func (b *builder) container(name, container string) (core.Source, error) {
	if b.dockerAPI == nil {
		cli, err := docker.NewClient()
		if err != nil {
			return nil, err
		}
		b.cli = cli
		b.dockerAPI = cli
	}
	tail := "all"
	if b.settings.Tail > 0 {
		tail = strconv.Itoa(b.settings.Tail)
	}
	return docker.New(b.dockerAPI, container, docker.Options{Name: name, Tail: tail, Logger: b.logger}), nil
}

func (b *builder) journalProber() journald.Prober {
	if b.prober == nil {
		b.prober = journald.DBusProber{}
	}
	return b.prober
}

// Close releases the Docker client.
func (b *builder) Close() {
	if b.cli != nil {
		b.cli.Close()
	}
}

// dedupe drops sources whose name is already taken, keeping the first.
func dedupe(srcs []core.Source) []core.Source {
	seen := make(map[string]bool, len(srcs))
	out := srcs[:0]
	for _, s := range srcs {
		if seen[s.Name()] {
			continue
		}
		seen[s.Name()] = true
		out = append(out, s)
	}
	return out
}

func defaultLogPath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "bark", "bark.log")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "bark.log")
	}
	return filepath.Join(home, ".local", "state", "bark", "bark.log")
}
