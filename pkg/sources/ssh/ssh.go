// Package ssh follows a file on a remote host.
package ssh

import (
	"log/slog"

	"github.com/modoterra/bark/pkg/core"
	"github.com/modoterra/bark/pkg/runner"
)

// Options identifies the remote file.
type Options struct {
	Host string
	Path string
	// SSH is the client binary. Defaults to ssh on PATH.
	SSH string
}

func (o Options) Name() string { return o.Host + ":" + o.Path }

// Args builds the ssh invocation. BatchMode makes a missing key fail
// instead of prompting on the terminal the viewer owns.
func (o Options) Args() []string {
	bin := o.SSH
	if bin == "" {
		bin = "ssh"
	}
	return []string{bin, "-o", "BatchMode=yes", o.Host, "tail", "-n", "+1", "-F", o.Path}
}

// New returns a source that reconnects with backoff when ssh fails.
func New(opts Options, logger *slog.Logger) *runner.Source {
	return runner.NewSource(runner.Spec{
		Name:    opts.Name(),
		Args:    opts.Args(),
		Restart: core.RestartOnFailure,
	}, logger)
}
