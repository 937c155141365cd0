package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind represents the transport behind a log source.
type Kind string

const (
	KindFile     Kind = "file"
	KindStdin    Kind = "stdin"
	KindDocker   Kind = "docker"
	KindK8s      Kind = "k8s"
	KindSSH      Kind = "ssh"
	KindJournald Kind = "journald"
	KindExec     Kind = "exec"
	KindSocket   Kind = "socket"
)

// Kinds lists every source kind in display order.
var Kinds = []Kind{KindFile, KindStdin, KindDocker, KindK8s, KindSSH, KindJournald, KindExec, KindSocket}

// Status represents the current state of a source as seen by the consumer.
type Status string

const (
	StatusStreaming Status = "streaming"
	StatusFailed    Status = "failed"
	StatusEnded     Status = "ended"
)

// RestartPolicy defines how a process-backed source is restarted.
type RestartPolicy string

const (
	RestartAlways    RestartPolicy = "always"
	RestartOnFailure RestartPolicy = "on-failure"
	RestartNever     RestartPolicy = "never"
)

// ErrBadSourceID is returned by ParseSourceID for malformed IDs.
var ErrBadSourceID = errors.New("invalid source ID")

// SourceID constructs a source ID from its components.
// Format: kind:target
func SourceID(kind Kind, target string) string {
	return fmt.Sprintf("%s:%s", kind, target)
}

// ParseSourceID splits a source ID into kind and target.
func ParseSourceID(id string) (Kind, string, error) {
	kind, target, ok := strings.Cut(id, ":")
	if !ok || kind == "" || target == "" {
		return "", "", fmt.Errorf("%w %q: expected kind:target", ErrBadSourceID, id)
	}
	return Kind(kind), target, nil
}

// Source is a producer of log events. Implementations own their transport
// and communicate with the consumer only through the Emitter.
type Source interface {
	// Name returns a human-readable label, usually a SourceID.
	Name() string

	// Stream produces events until the transport ends or ctx is cancelled.
	// A non-nil error is surfaced to the consumer as an Error event.
	Stream(ctx context.Context, emit *Emitter) error
}
