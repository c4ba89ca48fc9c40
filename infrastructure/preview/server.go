package preview

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// DefaultAddr is the listen address used by the serve command
const DefaultAddr = "127.0.0.1:8080"

// Server serves a generated report directory over HTTP
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// ServerConfig configures a preview Server
type ServerConfig struct {
	Addr   string
	Dir    string
	Logger *slog.Logger
}

// NewServer creates a server for cfg.Dir. It does not start listening.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewRouter(cfg),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

// Start blocks serving requests until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("starting preview server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down preview server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
