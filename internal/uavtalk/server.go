package uavtalk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/eytandecker/simsensors/pkg/types"
)

// DefaultWriteTimeout bounds each write to a ground-station client.
const DefaultWriteTimeout = time.Second

// WithLogger sets the logger for the server.
func WithLogger(logger *slog.Logger) func(s *Server) {
	return func(s *Server) {
		s.logger = logger.With(slog.String("component", "uavtalk"))
	}
}

// WithWriteTimeout overrides DefaultWriteTimeout.
func WithWriteTimeout(d time.Duration) func(s *Server) {
	return func(s *Server) {
		s.writeTimeout = d
	}
}

// Server streams object frames to connected ground stations.
type Server struct {
	ln           net.Listener
	writeTimeout time.Duration
	logger       *slog.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// NewServer wraps an existing listener; ln may be nil when clients are added
// with AddConn only.
func NewServer(ln net.Listener, options ...func(s *Server)) *Server {
	s := &Server{
		ln:           ln,
		writeTimeout: DefaultWriteTimeout,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		conns:        make(map[net.Conn]struct{}),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Listen opens a TCP listener on addr.
func Listen(addr string, options ...func(s *Server)) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("uavtalk listen: %w", err)
	}
	return NewServer(ln, options...), nil
}

// Addr returns the listener address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve accepts clients until ctx is done or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.ln.Close()
	}()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("uavtalk accept: %w", err)
		}
		s.AddConn(conn)
	}
}

// AddConn registers a client connection. Incoming bytes are discarded; the
// client is dropped when its connection fails.
func (s *Server) AddConn(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	n := len(s.conns)
	s.mu.Unlock()

	s.logger.Info("client connected", slog.String("remote", conn.RemoteAddr().String()), slog.Int("clients", n))

	go func() {
		_, _ = io.Copy(io.Discard, conn)
		s.drop(conn)
	}()
}

func (s *Server) drop(conn net.Conn) {
	s.mu.Lock()
	_, ok := s.conns[conn]
	delete(s.conns, conn)
	n := len(s.conns)
	s.mu.Unlock()

	if ok {
		_ = conn.Close()
		s.logger.Info("client disconnected", slog.String("remote", conn.RemoteAddr().String()), slog.Int("clients", n))
	}
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Name implements telemetry.Sink.
func (s *Server) Name() string {
	return "uavtalk"
}

// Write implements telemetry.Sink: every object that has been set is sent
// to every client as one frame. Clients whose write fails are dropped.
func (s *Server) Write(_ context.Context, snap types.Snapshot) error {
	var buf []byte
	for _, obj := range snap.Objects {
		if obj.LastUpdated.IsZero() {
			continue
		}
		f, err := EncodeObject(obj.Name, obj.Data)
		if err != nil {
			return err
		}
		wire, err := EncodeFrame(f)
		if err != nil {
			return err
		}
		buf = append(buf, wire...)
	}
	if len(buf) == 0 {
		return nil
	}

	s.mu.Lock()
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		if _, err := c.Write(buf); err != nil {
			s.logger.Warn("write failed", slog.String("remote", c.RemoteAddr().String()), slog.String("error", err.Error()))
			s.drop(c)
		}
	}
	return nil
}

// Close closes the listener and every client connection.
func (s *Server) Close() error {
	var err error
	if s.ln != nil {
		if cerr := s.ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	}

	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
		delete(s.conns, c)
	}
	s.mu.Unlock()
	return err
}
