// Package runner streams the output of a child process as log lines and
// restarts it according to a restart policy.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/modoterra/bark/pkg/core"
)

// stableRun is how long a process must stay up for its failure count to
// be forgotten.
const stableRun = 30 * time.Second

// Spec describes the process to run.
type Spec struct {
	Name    string
	Args    []string
	Dir     string
	Env     map[string]string
	Restart core.RestartPolicy
}

// ShellArgs returns argv for running command through sh -c.
func ShellArgs(command string) []string {
	return []string{"sh", "-c", command}
}

// FieldArgs splits a command on whitespace.
func FieldArgs(command string) []string {
	return strings.Fields(command)
}

// Runner runs one Spec until it ends or the context is cancelled.
type Runner struct {
	spec   Spec
	logger *slog.Logger
	delay  func(failures int) time.Duration
	warn   rate.Sometimes
}

// New creates a runner. An empty restart policy means on-failure.
func New(spec Spec, logger *slog.Logger) *Runner {
	if spec.Restart == "" {
		spec.Restart = core.RestartOnFailure
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		spec:   spec,
		logger: logger,
		delay:  backoff,
		warn:   rate.Sometimes{Interval: 5 * time.Second},
	}
}

// Run starts the process and emits its stdout and stderr lines. Exits are
// reported as Error events when the process will be restarted. The error
// of the last run is returned once no restart follows.
func (r *Runner) Run(ctx context.Context, emit *core.Emitter) error {
	if len(r.spec.Args) == 0 {
		return errors.New("empty command")
	}
	failures := 0
	for {
		started := time.Now()
		exitCode, err := r.runOnce(ctx, emit)
		if ctx.Err() != nil {
			return nil
		}
		if time.Since(started) >= stableRun {
			failures = 0
		}
		failures++

		r.logger.Info("process exited", "name", r.spec.Name, "exit_code", exitCode, "err", err)
		if !r.shouldRestart(exitCode) {
			return err
		}

		d := r.delay(failures)
		r.logger.Info("restarting process", "name", r.spec.Name, "delay", d, "attempt", failures)
		if err != nil {
			if emitErr := emit.Error(ctx, fmt.Errorf("%w, restarting in %s", err, d)); emitErr != nil {
				return nil
			}
		}
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil
		}
	}
}

func (r *Runner) shouldRestart(exitCode int) bool {
	switch r.spec.Restart {
	case core.RestartAlways:
		return true
	case core.RestartOnFailure:
		return exitCode != 0
	default:
		return false
	}
}

func (r *Runner) runOnce(ctx context.Context, emit *core.Emitter) (int, error) {
	cmd := exec.CommandContext(ctx, r.spec.Args[0], r.spec.Args[1:]...)
	cmd.Dir = r.spec.Dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// SIGTERM the whole process group, SIGKILL after WaitDelay.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}
	cmd.WaitDelay = 10 * time.Second

	cmd.Env = os.Environ()
	for k, v := range r.spec.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return -1, fmt.Errorf("stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return -1, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("start %q: %w", strings.Join(r.spec.Args, " "), err)
	}
	r.logger.Info("process started", "name", r.spec.Name, "pid", cmd.Process.Pid, "args", r.spec.Args)

	emitLine := func(line string) error { return emit.Line(ctx, line) }
	scan := func(pipe io.Reader) error {
		err := ScanLines(pipe, emitLine)
		if err != nil {
			// Keep the pipe empty so the child cannot block on it.
			_, _ = io.Copy(io.Discard, pipe)
		}
		return err
	}
	var g errgroup.Group
	g.Go(func() error { return scan(stdoutPipe) })
	g.Go(func() error { return scan(stderrPipe) })
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		r.warn.Do(func() {
			r.logger.Warn("reading process output", "name", r.spec.Name, "err", err)
		})
		_ = emit.Error(ctx, fmt.Errorf("read %s output: %w", r.spec.Name, err))
	}

	waitErr := cmd.Wait()
	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	if exitCode != 0 {
		if waitErr == nil {
			waitErr = fmt.Errorf("exit code %d", exitCode)
		}
		return exitCode, fmt.Errorf("%s exited: %w", r.spec.Name, waitErr)
	}
	return 0, nil
}

// maxBackoff caps the restart delay.
const maxBackoff = 30 * time.Second

// backoff returns exponential backoff delay: 1s, 2s, 4s, 8s, 16s, 30s max.
func backoff(failures int) time.Duration {
	if failures <= 1 {
		return time.Second
	}
	// The shift overflows long before it matters.
	if failures > 6 {
		return maxBackoff
	}
	return min(time.Duration(1<<uint(failures-1))*time.Second, maxBackoff)
}
