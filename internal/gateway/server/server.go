package server

import (
	"context"
	"errors"
	"log"
	"net/http"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

type Server struct {
	httpServer *http.Server
	backends   string
}

// New builds the h2c-wrapped HTTP server. backends is a short description
// of the wiring behind the API (story store, exporter) logged at startup.
func New(port string, handler http.Handler, backends string) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:    port,
			Handler: h2c.NewHandler(handler, &http2.Server{}),
		},
		backends: backends,
	}
}

func (s *Server) Start() error {
	log.Printf("storygraph API listening on %s (%s)", s.httpServer.Addr, s.backends)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
