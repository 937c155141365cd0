// Package file follows a log file from its first line, surviving
// truncation and rotation.
package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/modoterra/bark/pkg/core"
	"github.com/modoterra/bark/pkg/runner"
)

// Options tunes a file source.
type Options struct {
	// Tail keeps only the last N existing lines. Zero reads everything.
	Tail       int
	Poll       time.Duration
	Retries    int
	RetryDelay time.Duration
	Logger     *slog.Logger
}

func (o *Options) defaults() {
	if o.Poll <= 0 {
		o.Poll = 250 * time.Millisecond
	}
	if o.Retries <= 0 {
		o.Retries = 5
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

// Source follows one file.
type Source struct {
	path string
	opts Options
	warn rate.Sometimes
}

// New returns a source for path.
func New(path string, opts Options) *Source {
	opts.defaults()
	return &Source{
		path: filepath.Clean(path),
		opts: opts,
		warn: rate.Sometimes{Interval: 10 * time.Second},
	}
}

func (s *Source) Name() string { return s.path }

// Expand resolves a glob such as /var/log/**/*.log to the files it
// matches. A path without glob syntax is returned unchanged.
func Expand(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[{") {
		return []string{pattern}, nil
	}
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("glob %s: no files match", pattern)
	}
	return matches, nil
}

// Stream emits every existing line, then follows appends until ctx is
// cancelled or the file disappears for good.
func (s *Source) Stream(ctx context.Context, emit *core.Emitter) error {
	t, err := openTracked(s.path)
	if err != nil {
		return err
	}
	defer func() { t.close() }()

	s.opts.Logger.Info("tailing file", "path", s.path, "tail", s.opts.Tail)

	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	if w, err := fsnotify.NewWatcher(); err != nil {
		s.opts.Logger.Warn("fsnotify unavailable, polling", "path", s.path, "err", err)
	} else {
		defer w.Close()
		// The directory is watched so that a recreated file is noticed.
		if err := w.Add(filepath.Dir(s.path)); err != nil {
			s.opts.Logger.Warn("watch directory", "path", s.path, "err", err)
		}
		events, watchErrs = w.Events, w.Errors
	}

	if err := t.readInitial(ctx, emit, s.opts.Tail); err != nil {
		return quiet(ctx, err)
	}

	ticker := time.NewTicker(s.opts.Poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			s.warn.Do(func() { s.opts.Logger.Warn("fsnotify error", "path", s.path, "err", err) })
			continue
		case <-ticker.C:
		}
		if err := s.check(ctx, emit, t); err != nil {
			return quiet(ctx, err)
		}
	}
}

// check reads new data and handles truncation and rotation.
func (s *Source) check(ctx context.Context, emit *core.Emitter, t *tracked) error {
	if err := t.readLines(ctx, emit); err != nil {
		return err
	}
	info, err := os.Stat(s.path)
	switch {
	case err != nil || !os.SameFile(info, t.info):
		s.opts.Logger.Info("file rotated or removed", "path", s.path)
		t.close()
		if err := s.reopen(ctx, emit, t); err != nil {
			return err
		}
		return t.readLines(ctx, emit)
	case info.Size() < t.offset:
		s.opts.Logger.Info("file truncated", "path", s.path, "size", info.Size(), "offset", t.offset)
		if err := t.rewind(); err != nil {
			return err
		}
		return t.readLines(ctx, emit)
	}
	return nil
}

func (s *Source) reopen(ctx context.Context, emit *core.Emitter, t *tracked) error {
	for i := 0; i < s.opts.Retries; i++ {
		next, err := openTracked(s.path)
		if err == nil {
			*t = *next
			s.opts.Logger.Info("reopened file", "path", s.path, "attempt", i+1)
			return nil
		}
		if i == 0 {
			if err := emit.Error(ctx, err); err != nil {
				return err
			}
		}
		select {
		case <-time.After(s.opts.RetryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%s did not reappear after %d retries", s.path, s.opts.Retries)
}

func quiet(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// tracked is an open file with its read position and any partial line.
type tracked struct {
	path    string
	f       *os.File
	info    os.FileInfo
	r       *bufio.Reader
	offset  int64
	partial string
}

func openTracked(path string) (*tracked, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &tracked{path: path, f: f, info: info, r: bufio.NewReader(f)}, nil
}

func (t *tracked) close() {
	if t.f != nil {
		t.f.Close()
		t.f = nil
	}
}

func (t *tracked) rewind() error {
	if _, err := t.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek %s: %w", t.path, err)
	}
	t.r.Reset(t.f)
	t.offset = 0
	t.partial = ""
	return nil
}

// next returns the next complete line. ok is false at end of data; a
// partial trailing line is kept until its newline arrives.
func (t *tracked) next() (line string, ok bool, err error) {
	chunk, err := t.r.ReadString('\n')
	t.offset += int64(len(chunk))
	if err == nil {
		line, t.partial = t.partial+chunk, ""
		return line, true, nil
	}
	t.partial += chunk
	if len(t.partial) >= runner.MaxLineBytes {
		line, t.partial = t.partial, ""
		return line, true, nil
	}
	if errors.Is(err, io.EOF) {
		return "", false, nil
	}
	return "", false, fmt.Errorf("read %s: %w", t.path, err)
}

func (t *tracked) readLines(ctx context.Context, emit *core.Emitter) error {
	for {
		line, ok, err := t.next()
		if err != nil || !ok {
			return err
		}
		if err := emit.Line(ctx, line); err != nil {
			return err
		}
	}
}

// readInitial emits the existing content, or only its last n lines.
func (t *tracked) readInitial(ctx context.Context, emit *core.Emitter, n int) error {
	if n <= 0 {
		return t.readLines(ctx, emit)
	}
	ring := make([]string, n)
	count := 0
	for {
		line, ok, err := t.next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		ring[count%n] = line
		count++
	}
	first := max(0, count-n)
	for i := first; i < count; i++ {
		if err := emit.Line(ctx, ring[i%n]); err != nil {
			return err
		}
	}
	return nil
}
