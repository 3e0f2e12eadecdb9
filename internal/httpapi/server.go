package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/eytandecker/simsensors/internal/alarms"
	"github.com/eytandecker/simsensors/internal/taskmonitor"
	"github.com/eytandecker/simsensors/pkg/types"
)

const shutdownTimeout = 5 * time.Second

// ObjectSource is implemented by uavobject.Bus.
type ObjectSource interface {
	Snapshot() types.Snapshot
	Fresh(name string) (types.ObjectState, error)
}

// AlarmSource is implemented by alarms.Table.
type AlarmSource interface {
	All() []alarms.Alarm
}

// TaskSource is implemented by taskmonitor.Monitor.
type TaskSource interface {
	Tasks() []taskmonitor.Info
}

// HealthChecker is implemented by watchdog.Watchdog.
type HealthChecker interface {
	Healthy() bool
}

// Deps are the collaborators the API reads from. Only Objects is required.
type Deps struct {
	Objects ObjectSource
	Alarms  AlarmSource
	Tasks   TaskSource
	Health  HealthChecker
	Hub     *Hub
}

// WithLogger sets the logger for the server.
func WithLogger(logger *slog.Logger) func(s *Server) {
	return func(s *Server) {
		s.logger = logger.With(slog.String("component", "http"))
	}
}

// Server exposes the object bus over HTTP.
type Server struct {
	deps   Deps
	engine *gin.Engine
	logger *slog.Logger
}

// NewServer builds the router.
func NewServer(deps Deps, options ...func(s *Server)) *Server {
	s := &Server{
		deps:   deps,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	api := r.Group("/api")
	api.GET("/objects", s.handleObjects)
	api.GET("/objects/:name", s.handleObject)
	api.GET("/alarms", s.handleAlarms)
	api.GET("/tasks", s.handleTasks)
	r.GET("/healthz", s.handleHealth)
	if deps.Hub != nil {
		r.GET("/ws", deps.Hub.ServeWS)
	}

	s.engine = r
	return s
}

// Handler returns the router (used in tests).
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return ctx.Err()
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}

func (s *Server) handleObjects(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Objects.Snapshot())
}

func (s *Server) handleObject(c *gin.Context) {
	obj, err := s.deps.Objects.Fresh(c.Param("name"))
	if err != nil {
		status, resp := errorResponse(err)
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusOK, obj)
}

func (s *Server) handleAlarms(c *gin.Context) {
	if s.deps.Alarms == nil {
		c.JSON(http.StatusOK, []alarms.Alarm{})
		return
	}
	c.JSON(http.StatusOK, s.deps.Alarms.All())
}

// taskResponse adds human-readable ages to taskmonitor.Info.
type taskResponse struct {
	taskmonitor.Info
	Started  string `json:"started"`
	LastSeen string `json:"last_seen,omitempty"`
}

func (s *Server) handleTasks(c *gin.Context) {
	resp := []taskResponse{}
	if s.deps.Tasks != nil {
		for _, t := range s.deps.Tasks.Tasks() {
			tr := taskResponse{Info: t, Started: humanize.Time(t.StartedAt)}
			if !t.LastTick.IsZero() {
				tr.LastSeen = humanize.Time(t.LastTick)
			}
			resp = append(resp, tr)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealth(c *gin.Context) {
	healthy := s.deps.Health == nil || s.deps.Health.Healthy()
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"healthy": healthy})
}
