// Package exec follows the output of a local command.
package exec

import (
	"log/slog"

	"github.com/modoterra/bark/pkg/core"
	"github.com/modoterra/bark/pkg/runner"
)

// Options describes the command.
type Options struct {
	Name    string
	Command string
	Dir     string
	Env     map[string]string
	Restart core.RestartPolicy
	// Shell runs Command through sh -c instead of splitting it on spaces.
	Shell bool
}

// New returns a source running opts.Command. Its default restart policy
// is never, so a command that finishes ends the stream.
func New(opts Options, logger *slog.Logger) *runner.Source {
	if opts.Name == "" {
		opts.Name = opts.Command
	}
	if opts.Restart == "" {
		opts.Restart = core.RestartNever
	}
	args := runner.FieldArgs(opts.Command)
	if opts.Shell {
		args = runner.ShellArgs(opts.Command)
	}
	return runner.NewSource(runner.Spec{
		Name:    opts.Name,
		Args:    args,
		Dir:     opts.Dir,
		Env:     opts.Env,
		Restart: opts.Restart,
	}, logger)
}
