// Package api exposes the recall service over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rcliao/recall/internal/config"
	"github.com/rcliao/recall/internal/metrics"
	"github.com/rcliao/recall/internal/service"
)

// NewRouter returns the chi router serving every endpoint.
func NewRouter(svc *service.Service, log *slog.Logger, m *metrics.Manager) chi.Router {
	if m == nil {
		m = metrics.NoOpManager()
	}
	h := NewHandler(svc, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(recordMetrics(m))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/memories", func(r chi.Router) {
			r.Post("/", h.AddMemory)
			r.Get("/", h.ListMemories)
			r.Get("/{id}", h.GetMemory)
			r.Patch("/{id}", h.UpdateMemory)
			r.Delete("/{id}", h.DeleteMemory)
			r.Post("/{id}/touch", h.TouchMemory)
		})
		r.Get("/tags", h.ListTags)
		r.Get("/tags/{tag}", h.ListByTag)
		r.Post("/context", h.AssembleContext)
		r.Get("/settings", h.GetSettings)
		r.Patch("/settings", h.UpdateSettings)
		r.Get("/summaries/{domain}", h.GetSummary)
		r.Put("/summaries/{domain}", h.PutSummary)
		r.Get("/stats", h.Stats)
		r.Get("/export", h.Export)
		r.Post("/import", h.Import)
	})

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, ErrCodeNotFound, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, r.Method+" not allowed on "+r.URL.Path)
	})
	return r
}

// Server runs the HTTP API.
type Server struct {
	server *http.Server
	log    *slog.Logger
}

// NewServer creates a server listening on cfg.Addr.
func NewServer(cfg config.ServerConfig, svc *service.Service, log *slog.Logger, m *metrics.Manager) *Server {
	return &Server{
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewRouter(svc, log, m),
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		log: log,
	}
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("starting HTTP server", "addr", ln.Addr().String())
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}
