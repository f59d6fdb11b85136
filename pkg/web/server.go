// Package web provides the HTTP surface of the server: Maven artifact
// download/deploy endpoints and the management REST API.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/quarryhq/quarry/internal/logger"
	"github.com/quarryhq/quarry/pkg/failure"
)

// Config configures the HTTP listener.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server wraps http.Server with the bind/stop contract the lifecycle
// controller expects: Bind fails synchronously when the listener cannot be
// acquired, serving continues in the background.
type Server struct {
	cfg        Config
	httpServer *http.Server
	failures   *failure.Service

	mu       sync.Mutex
	listener net.Listener
	stopOnce sync.Once
}

// NewServer creates a server around the given handler. The failure service
// receives asynchronous serve errors; it may be nil.
func NewServer(cfg Config, handler http.Handler, failures *failure.Service) *Server {
	return &Server{
		cfg:      cfg,
		failures: failures,
		httpServer: &http.Server{
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Bind acquires the listener and starts serving in the background. The bind
// itself is synchronous so the caller observes port conflicts immediately.
func (s *Server) Bind() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			if s.failures != nil {
				s.failures.ReportFailure("<web>", err)
			}
		}
	}()

	return nil
}

// Stop gracefully shuts the server down, draining in-flight requests until
// ctx expires. Repeated calls are no-ops.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		err = s.httpServer.Shutdown(ctx)
	})
	return err
}

// Addr returns the bound address, or the configured one before Bind.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}
