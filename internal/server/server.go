// Package server exposes the diary over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/tankyu/diary/internal/catalog"
	"github.com/tankyu/diary/internal/config"
	"github.com/tankyu/diary/internal/logger"
	"github.com/tankyu/diary/internal/report"
)

// Pinger checks that the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the services behind the routes.
type Deps struct {
	Reports *report.Service
	Catalog *catalog.Catalog
	DB      Pinger
}

// Server is the diary HTTP server.
type Server struct {
	cfg  config.ServerConfig
	deps Deps
	log  *logger.Logger
	srv  *http.Server
}

// New builds the server and its routes.
func New(cfg config.ServerConfig, deps Deps, log *logger.Logger) *Server {
	s := &Server{cfg: cfg, deps: deps, log: log}
	s.srv = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Routes(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	return s
}

// Routes returns the root handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/master", func(r chi.Router) {
			r.Get("/abilities", s.listAbilities)
			r.Get("/research-phases", s.listPhases)
			r.Get("/fiscal-year", s.fiscalYear)
		})

		r.Post("/reports/analyze", s.analyzeReport)

		r.Post("/students", s.createStudent)
		r.Route("/students/{studentID}", func(r chi.Router) {
			r.Get("/themes", s.listThemes)
			r.Post("/themes", s.createTheme)

			r.Get("/reports", s.listReports)
			r.Post("/reports", s.submitReport)
			r.Get("/reports/{reportID}", s.getReport)
			r.Put("/reports/{reportID}", s.updateReport)
			r.Delete("/reports/{reportID}", s.deleteReport)

			r.Get("/streak", s.getStreak)
			r.Get("/summary", s.getSummary)
		})
	})

	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down", "timeout", s.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		if err := s.deps.DB.PingContext(r.Context()); err != nil {
			s.log.Error("health check failed", "error", err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
