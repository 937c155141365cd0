// Package uds carries log lines from `bark send` to a running viewer as
// newline-delimited JSON over a Unix domain socket.
package uds

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MsgType identifies the kind of message.
type MsgType string

const (
	MsgTypeHello MsgType = "hello"
	MsgTypeLine  MsgType = "line"
	MsgTypeEOF   MsgType = "eof"
	MsgTypeAck   MsgType = "ack"
)

// Message is the NDJSON envelope for all communication.
type Message struct {
	Type  MsgType `json:"type"`
	Name  string  `json:"name,omitempty"`
	Line  string  `json:"line,omitempty"`
	Count int     `json:"count,omitempty"`
	Error string  `json:"error,omitempty"`
}

// NewHello names the sending client.
func NewHello(name string) Message { return Message{Type: MsgTypeHello, Name: name} }

// NewLine wraps one log line.
func NewLine(line string) Message { return Message{Type: MsgTypeLine, Line: line} }

// NewEOF tells the server the client is done.
func NewEOF() Message { return Message{Type: MsgTypeEOF} }

// NewAck reports how many lines the server accepted from a client.
func NewAck(count int) Message { return Message{Type: MsgTypeAck, Count: count} }

func encode(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %s message: %w", msg.Type, err)
	}
	return append(data, '\n'), nil
}

// DefaultSocketPath is $XDG_RUNTIME_DIR/bark.sock, or a per-user path in
// the temp directory.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "bark.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("bark-%d.sock", os.Getuid()))
}
