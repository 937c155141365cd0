package uds

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LineHandler receives each line sent by a client. Returning an error
// drops that client.
type LineHandler func(ctx context.Context, client, line string) error

// Server listens on a Unix domain socket and hands received lines to a
// LineHandler.
type Server struct {
	socketPath string
	listener   net.Listener
	handler    LineHandler
	clients    map[net.Conn]struct{}
	mu         sync.Mutex
	logger     *slog.Logger
	warn       rate.Sometimes
}

// NewServer creates a new UDS server.
func NewServer(socketPath string, handler LineHandler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		socketPath: socketPath,
		handler:    handler,
		clients:    make(map[net.Conn]struct{}),
		logger:     logger,
		warn:       rate.Sometimes{First: 3, Interval: 10 * time.Second},
	}
}

// Start begins listening. It removes any stale socket file first and
// returns once ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	// Remove stale socket
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.socketPath, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.logger.Info("server listening", "socket", s.socketPath)

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil // shutting down
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error("accept error", "err", err)
			continue
		}
		s.mu.Lock()
		s.clients[conn] = struct{}{}
		s.mu.Unlock()
		go s.handleConn(ctx, conn)
	}
}

// Shutdown closes the listener and every client, and removes the socket.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		s.listener.Close()
		s.listener = nil
		os.Remove(s.socketPath)
	}
	for conn := range s.clients {
		conn.Close()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	name := "client"
	count := 0
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) // 1MB max line

	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			s.warn.Do(func() { s.logger.Warn("invalid message", "err", err) })
			continue
		}

		switch msg.Type {
		case MsgTypeHello:
			if msg.Name != "" {
				name = msg.Name
			}
			s.logger.Debug("client connected", "client", name)
		case MsgTypeLine:
			if err := s.handler(ctx, name, msg.Line); err != nil {
				return
			}
			count++
		case MsgTypeEOF:
			s.writeMessage(conn, NewAck(count))
			s.logger.Info("client finished", "client", name, "lines", count)
			return
		}
	}
}

func (s *Server) writeMessage(conn net.Conn, msg Message) {
	data, err := encode(msg)
	if err != nil {
		s.logger.Error("marshal response error", "err", err)
		return
	}
	if _, err := conn.Write(data); err != nil {
		s.logger.Error("write response error", "err", err)
	}
}
