package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"narrativedetect/internal/platform/config"
	"narrativedetect/internal/platform/logger"
	"narrativedetect/internal/platform/net/middleware"
)

// Server is a thin wrapper over chi + stdlib http.Server
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer builds the router, mounts the read-only routes, and returns a
// server ready to Run
func NewServer(cfg config.Conf, store RunStore, serviceName string, startedAt time.Time) *Server {
	addr := cfg.MayString("API_ADDR", ":4100")

	r := chi.NewRouter()
	r.Use(middleware.Defaults()...)
	r.Use(middleware.CORS(middleware.CORSOptions{}))
	Mount(r, store, serviceName, startedAt)

	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Addr returns the listening address
func (s *Server) Addr() string { return s.addr }

// Run starts the server and blocks until it is shut down
func (s *Server) Run() error {
	log := logger.Named("api")
	log.Info().Str("addr", s.addr).Msg("narrative-api listening")
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
