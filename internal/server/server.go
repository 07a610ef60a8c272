// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes genocode over HTTP: consent, raw file upload,
// per-study statistics and plots, subject reports, and linked literature.
// Subject identifiers travel in the X-Subject-ID header (or a form field)
// and are never logged.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pdiddy/genocode/internal/catalog"
	"github.com/pdiddy/genocode/internal/intake"
	"github.com/pdiddy/genocode/internal/literature"
	"github.com/pdiddy/genocode/pkg/types"
)

const (
	// SubjectHeader carries the subject identifier.
	SubjectHeader = "X-Subject-ID"

	// DefaultAddr is the listen address when none is configured.
	DefaultAddr = ":8050"

	defaultShutdownTimeout = 10 * time.Second
)

// Server serves the HTTP API.
type Server struct {
	svc      *intake.Service
	cfg      types.Config
	log      *zap.Logger
	backends []literature.Backend
	router   chi.Router
}

// New builds the server and its routes. A nil logger disables logging.
func New(svc *intake.Service, cfg types.Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		svc:      svc,
		cfg:      cfg,
		log:      log,
		backends: literature.Backends(cfg.Literature),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleMain)
	r.Get("/healthz", s.handleHealth)

	r.Route("/consent", func(r chi.Router) {
		r.Post("/", s.handleGrantConsent)
		r.Get("/{subject}", s.handleConsentStatus)
		r.Delete("/{subject}", s.handleRevokeConsent)
	})
	r.Delete("/subjects/{subject}", s.handleDeleteSubject)

	r.Post("/load", s.handleLoad)
	r.Get("/report", s.handleReport)

	r.Route("/statistic/{studyID}", func(r chi.Router) {
		r.Get("/", s.handleStatistic)
		r.Get("/plot.svg", s.handlePlot)
	})
	r.Get("/literature/{studyID}", s.handleLiterature)
	return r
}

// logRequests logs one line per request. The route pattern is logged
// instead of the path so subject identifiers in URLs stay out of logs.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// Run serves on cfg.Server.Addr until ctx is done, then shuts down
// gracefully. It also starts the literature refresh job and the catalog
// watcher when configured.
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Server.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	if spec := s.cfg.Server.RefreshSchedule; spec != "" {
		c, err := s.scheduleRefresh(ctx, spec)
		if err != nil {
			return err
		}
		c.Start()
		defer c.Stop()
	}
	if s.cfg.Server.WatchCatalog && s.cfg.CatalogPath != "" {
		go s.watchCatalog(ctx)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// scheduleRefresh registers the literature refresh job under a standard
// five-field cron spec.
func (s *Server) scheduleRefresh(ctx context.Context, spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if err := s.RefreshLiterature(ctx); err != nil {
			s.log.Warn("literature refresh", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return c, nil
}

// RefreshLiterature relinks articles for every catalog study.
func (s *Server) RefreshLiterature(ctx context.Context) error {
	if len(s.backends) == 0 {
		return errors.New("no literature backends enabled")
	}
	n, err := s.svc.LinkLiterature(ctx, s.svc.Catalog.Get().Studies(), s.backends, s.cfg.Literature, io.Discard)
	s.log.Info("literature refreshed", zap.Int("links", n))
	return err
}

func (s *Server) watchCatalog(ctx context.Context) {
	err := s.svc.Catalog.Watch(ctx, s.cfg.CatalogPath, func(c *catalog.Catalog, err error) {
		if err != nil {
			s.log.Error("catalog reload failed; keeping previous catalog", zap.Error(err))
			return
		}
		s.log.Info("catalog reloaded", zap.Int("studies", c.Len()))
	})
	if err != nil {
		s.log.Error("catalog watcher stopped", zap.Error(err))
	}
}
