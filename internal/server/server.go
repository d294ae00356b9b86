package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/gigmarket/messaging/internal/observability"
)

type Server struct {
	name       string
	httpServer *http.Server
}

func New(name, addr string, handler http.Handler) *Server {
	return &Server{
		name: name,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

func (s *Server) Addr() string { return s.httpServer.Addr }

// Start blocks until the server stops. A clean shutdown returns nil.
func (s *Server) Start() error {
	observability.Log.Info("starting server", zap.String("server", s.name), zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	observability.Log.Info("shutting down server", zap.String("server", s.name))
	return s.httpServer.Shutdown(ctx)
}
