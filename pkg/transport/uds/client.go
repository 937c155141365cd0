package uds

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// Client sends lines to a listening viewer.
type Client struct {
	conn net.Conn
	w    *bufio.Writer
}

// Dial connects to the viewer socket.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", socketPath, err)
	}
	return &Client{conn: conn, w: bufio.NewWriter(conn)}, nil
}

// Send writes one message. Output is buffered until Finish.
func (c *Client) Send(msg Message) error {
	data, err := encode(msg)
	if err != nil {
		return err
	}
	if _, err := c.w.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Pipe sends every line of r, then finishes. It returns the number of
// lines the server accepted.
func (c *Client) Pipe(ctx context.Context, name string, r io.Reader) (int, error) {
	if err := c.Send(NewHello(name)); err != nil {
		return 0, err
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := c.Send(NewLine(scanner.Text())); err != nil {
			return 0, err
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read input: %w", err)
	}
	return c.Finish(ctx)
}

// Finish sends EOF and waits for the server's acknowledgement.
func (c *Client) Finish(ctx context.Context) (int, error) {
	if err := c.Send(NewEOF()); err != nil {
		return 0, err
	}
	if err := c.w.Flush(); err != nil {
		return 0, fmt.Errorf("flush: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetReadDeadline(deadline)
	}

	scanner := bufio.NewScanner(c.conn)
	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		if msg.Type != MsgTypeAck {
			continue
		}
		if msg.Error != "" {
			return msg.Count, fmt.Errorf("server error: %s", msg.Error)
		}
		return msg.Count, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read ack: %w", err)
	}
	return 0, errors.New("connection closed before acknowledgement")
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
