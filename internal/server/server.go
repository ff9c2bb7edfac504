// HTTP server initialization and lifecycle management.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns default HTTP server configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         3002,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server wraps the HTTP server.
type Server struct {
	config Config
	http   *http.Server
}

// NewServer creates a new HTTP server for the given handler.
func NewServer(handler http.Handler, config Config) *Server {
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		config: config,
		http:   httpServer,
	}
}

// Start starts the HTTP server and blocks until the server stops.
// A graceful shutdown is not reported as an error.
func (s *Server) Start(ctx context.Context) error {
	fmt.Printf("API server listening on http://%s\n", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	fmt.Println("Shutting down server...")

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	fmt.Println("Server shutdown complete")
	return nil
}
