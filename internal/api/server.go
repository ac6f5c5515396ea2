package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-haptics/internal/auth"
	"github.com/nerrad567/gray-logic-haptics/internal/haptic"
	"github.com/nerrad567/gray-logic-haptics/internal/history"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Controller runs actuations. *haptic.Controller satisfies it.
type Controller interface {
	Actuate(ctx context.Context, cmd haptic.Command) (haptic.Result, error)
	Status() haptic.Status
}

// HistoryReader serves recent actuation events.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Event, error)
}

// DBStatser reports connection pool statistics. *database.DB satisfies it.
type DBStatser interface {
	Stats() sql.DBStats
}

// HealthCheck is one component checked by GET /health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	Logger     *logging.Logger
	Controller Controller

	// History is optional; without it /haptics/history returns 503.
	History HistoryReader

	// Checks are run by GET /health. Optional.
	Checks []HealthCheck

	// DB adds pool statistics to /metrics. Optional.
	DB DBStatser

	Version string
}

// Server is the HTTP API server.
type Server struct {
	cfg        config.APIConfig
	logger     *logging.Logger
	controller Controller
	history    HistoryReader
	checks     []HealthCheck
	db         DBStatser
	version    string
	startTime  time.Time

	// auth is nil when api.auth is disabled.
	auth *auth.Authenticator

	server *http.Server
	addr   net.Addr
	mu     sync.Mutex
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Controller == nil {
		return nil, fmt.Errorf("haptic controller is required")
	}

	var authenticator *auth.Authenticator
	if deps.Config.Auth.Enabled {
		a, err := auth.NewAuthenticator(deps.Config.Auth)
		if err != nil {
			return nil, fmt.Errorf("building authenticator: %w", err)
		}
		authenticator = a
	}

	return &Server{
		auth:       authenticator,
		cfg:        deps.Config,
		logger:     deps.Logger,
		controller: deps.Controller,
		history:    deps.History,
		checks:     deps.Checks,
		db:         deps.DB,
		version:    deps.Version,
		startTime:  time.Now(),
	}, nil
}

// Start binds the listener and serves in a background goroutine. The bind
// happens before Start returns so address errors are reported here.
//
// Returns:
//   - error: If the listener cannot be bound (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port))
	if err != nil {
		return fmt.Errorf("binding API listener: %w", err)
	}

	srv := &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.mu.Lock()
	s.server = srv
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.logger.Info("API server listening", "address", ln.Addr().String())
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}
	if s.Addr() == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
