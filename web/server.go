// Package web serves the KrishiMitra pages and JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/sweetpotato0/krishimitra/advisory"
	"github.com/sweetpotato0/krishimitra/pkg/logging"
	"github.com/sweetpotato0/krishimitra/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// CookieName carries the session ID.
const CookieName = "krishimitra_session"

// Advisor answers one farmer request.
type Advisor interface {
	Advise(ctx context.Context, req advisory.Request) (*advisory.Response, error)
}

// Config holds HTTP server settings.
type Config struct {
	Addr         string
	SessionTTL   time.Duration
	SecureCookie bool
	// WriteTimeout bounds writing a response. Zero means no limit, which
	// lets a long agent run finish and write its answer; a client that goes
	// away cancels the request context instead.
	WriteTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetricsHandler exposes h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// Server wraps the HTTP server with lifecycle management.
type Server struct {
	cfg      Config
	advisor  Advisor
	store    session.Store
	markdown *Markdown
	pages    map[string]*template.Template
	metrics  http.Handler
	logger   *slog.Logger

	httpServer *http.Server
}

// NewServer creates and configures the server with all routes.
func NewServer(cfg Config, advisor Advisor, store session.Store, opts ...Option) (*Server, error) {
	if advisor == nil || store == nil {
		return nil, errors.New("web: advisor and session store are required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8501"
	}
	if cfg.WriteTimeout < 0 {
		cfg.WriteTimeout = 0
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		advisor:  advisor,
		store:    store,
		markdown: NewMarkdown(),
		pages:    pages,
		logger:   logging.WithComponent("web"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{"home", "advisor"} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("web: parse %s page: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /advisor", s.handleAdvisorPage)
	mux.HandleFunc("POST /advisor", s.handleAdvisorSubmit)
	mux.HandleFunc("POST /api/v1/advice", s.handleAdvice)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	return s.logRequests(mux)
}

// Start begins listening for HTTP requests and blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.DebugContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	})
}
