package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/huebridge/internal/device"
	"github.com/nerrad567/huebridge/internal/infrastructure/config"
	"github.com/nerrad567/huebridge/internal/infrastructure/logging"
	"github.com/nerrad567/huebridge/internal/metrics"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Bus is the message bus as seen by the control plane.
// *mqtt.Client satisfies it.
type Bus interface {
	// PublishAsync hands a command payload to the bus without waiting.
	PublishAsync(topic string, payload []byte) error

	// MarkActive records controller contact for the connectivity signal.
	MarkActive()
}

// CommandRecorder receives every translated command for telemetry.
// *influxdb.Client satisfies it.
type CommandRecorder interface {
	WriteCommand(deviceID, kind, topic string, payload []byte, published bool)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Registry *device.Registry

	// Bus is optional; without it commands are acknowledged but not published.
	Bus Bus

	// Setup is the rendered description document served at SetupPath.
	Setup     []byte
	SetupPath string

	// Metrics and Recorder are optional.
	Metrics  *metrics.Metrics
	Recorder CommandRecorder
}

// Server is the Hue control plane HTTP server.
//
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	registry  *device.Registry
	bus       Bus
	setup     []byte
	setupPath string
	metrics   *metrics.Metrics
	recorder  CommandRecorder

	server   *http.Server
	listener net.Listener
	mu       sync.Mutex
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns an error if required dependencies are missing.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}

	setupPath := deps.SetupPath
	if setupPath == "" {
		setupPath = config.DefaultSetupPath
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger.Component("api"),
		registry:  deps.Registry,
		bus:       deps.Bus,
		setup:     deps.Setup,
		setupPath: setupPath,
		metrics:   deps.Metrics,
		recorder:  deps.Recorder,
	}, nil
}

// Handler returns the fully wired router. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start binds the listener and serves in a background goroutine.
//
// The bind happens before Start returns, so a port conflict is reported
// here and can be treated as fatal.
func (s *Server) Start(_ context.Context) error {
	addr := net.JoinHostPort(s.cfg.Bind, strconv.Itoa(s.cfg.Port))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrListen, addr, err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("server running", "address", "http://"+ln.Addr().String())

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
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
