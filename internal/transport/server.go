package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kvemir/rammbock/internal/message"
)

// Server listens for and accepts client connections, the "open servers"
// half of spec.md §1's transport layer. Grounded on the teacher's
// internal/server.Server accept loop, generalized from one RPKI-RTR
// listener per process to a named, reusable collaborator that can hold
// several simultaneously accepted connections (SPEC_FULL.md §4 item 3,
// accept_connection(alias)).
type Server struct {
	listener net.Listener
	logger   *zap.SugaredLogger
	alias    string

	mu          sync.Mutex
	conns       map[string]*Connection
	pending     chan *Connection
	group       *errgroup.Group
	groupCancel context.CancelFunc
}

// Listen opens a listening socket on a stream network such as "tcp" at
// address, with an optional alias (a uuid is generated when empty). It
// uses net.Listen, so "udp" is rejected with an error; there is no UDP
// server.
func Listen(network, address, alias string, logger *zap.SugaredLogger) (*Server, error) {
	l, err := net.Listen(network, address)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s %s: %w", network, address, err)
	}
	if alias == "" {
		alias = uuid.NewString()
	}
	return &Server{
		listener: l,
		logger:   logger.With("server", alias),
		alias:    alias,
		conns:    map[string]*Connection{},
		pending:  make(chan *Connection, 16),
	}, nil
}

// Alias returns this server's registered name.
func (s *Server) Alias() string { return s.alias }

// Addr returns the bound listen address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve runs the accept loop in the background using an errgroup, the
// way the teacher's Server.Start spawns one goroutine per connection
// except with cancellation-aware supervision instead of a bare
// sync.WaitGroup (SPEC_FULL.md §3 domain stack). Each accepted
// connection is pushed to the pending channel for AcceptConnection to
// claim and alias.
func (s *Server) Serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	s.group = g
	s.groupCancel = cancel

	g.Go(func() error {
		<-gctx.Done()
		s.listener.Close()
		return gctx.Err()
	})
	g.Go(func() error {
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-gctx.Done():
					return nil
				default:
					s.logger.Warnf("accept error: %v", err)
					return fmt.Errorf("transport: server %q: accept: %w", s.alias, err)
				}
			}
			s.pending <- newConnection(conn, "", s.logger)
		}
	})
}

// AcceptConnection blocks until a pending connection arrives (or timeout
// elapses), registers it under alias (a uuid if empty), and returns it.
// Mirrors Rammbock's accept_connection(alias) keyword (SPEC_FULL.md §4
// item 3).
func (s *Server) AcceptConnection(alias string, timeout time.Duration) (*Connection, error) {
	var after <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		after = timer.C
	}
	select {
	case conn := <-s.pending:
		if alias == "" {
			alias = uuid.NewString()
		}
		conn.alias = alias
		conn.logger = s.logger.With("alias", alias)
		s.mu.Lock()
		s.conns[alias] = conn
		s.mu.Unlock()
		return conn, nil
	case <-after:
		return nil, fmt.Errorf("transport: server %q: no connection accepted within %s", s.alias, timeout)
	}
}

// Connection looks up a previously accepted connection by alias.
func (s *Server) Connection(alias string) (*Connection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conns[alias]
	return c, ok
}

// SendTo writes data to the named connection (templated or raw; the
// caller decides what bytes to pass).
func (s *Server) SendTo(alias string, data []byte) error {
	conn, ok := s.Connection(alias)
	if !ok {
		return fmt.Errorf("transport: server %q: unknown connection alias %q", s.alias, alias)
	}
	return conn.Send(data)
}

// ReceiveFrom reads and decodes one complete message from the named
// connection against tmpl.
func (s *Server) ReceiveFrom(alias string, tmpl *message.Template, timeout time.Duration) (*message.Message, error) {
	conn, ok := s.Connection(alias)
	if !ok {
		return nil, fmt.Errorf("transport: server %q: unknown connection alias %q", s.alias, alias)
	}
	return conn.Receive(tmpl, timeout)
}

// ResetStreams empties the receive buffer of every accepted connection,
// per SPEC_FULL.md §4 item 1 (reset_message_streams).
func (s *Server) ResetStreams() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.ResetStream()
	}
}

// Close stops the accept loop and closes the listener and every
// accepted connection.
func (s *Server) Close() error {
	if s.groupCancel != nil {
		s.groupCancel()
	}
	s.mu.Lock()
	for _, c := range s.conns {
		c.Close()
	}
	s.conns = map[string]*Connection{}
	s.mu.Unlock()
	if s.group != nil {
		s.group.Wait()
	}
	s.listener.Close()
	return nil
}
