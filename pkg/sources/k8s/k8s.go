// Package k8s follows pod logs through kubectl.
package k8s

import (
	"log/slog"

	"github.com/modoterra/bark/pkg/core"
	"github.com/modoterra/bark/pkg/runner"
)

// Options identifies the pod to follow.
type Options struct {
	Pod       string
	Namespace string
	Container string
	// Kubectl is the binary to run. Defaults to kubectl on PATH.
	Kubectl string
}

// Name is the display name: namespace/pod[/container].
func (o Options) Name() string {
	name := o.Pod
	if o.Namespace != "" {
		name = o.Namespace + "/" + name
	}
	if o.Container != "" {
		name += "/" + o.Container
	}
	return name
}

// Args builds the kubectl invocation.
func (o Options) Args() []string {
	bin := o.Kubectl
	if bin == "" {
		bin = "kubectl"
	}
	args := []string{bin, "logs", "-f", o.Pod}
	if o.Namespace != "" {
		args = append(args, "-n", o.Namespace)
	}
	if o.Container != "" {
		args = append(args, "-c", o.Container)
	}
	return append(args, "--tail=-1")
}

// New returns a source that restarts kubectl with backoff when it fails.
func New(opts Options, logger *slog.Logger) *runner.Source {
	return runner.NewSource(runner.Spec{
		Name:    opts.Name(),
		Args:    opts.Args(),
		Restart: core.RestartOnFailure,
	}, logger)
}
