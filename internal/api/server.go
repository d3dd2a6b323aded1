package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mattjoyce/vellum/internal/bridge"
	"github.com/mattjoyce/vellum/internal/events"
	"github.com/mattjoyce/vellum/internal/history"
)

// Config holds API server configuration
type Config struct {
	Listen string
	// APIKey is the bearer token protecting all routes except /healthz.
	APIKey string
}

// Server represents the HTTP API server. Document operations are queued on
// the bridge and answered with 202; history reads go straight to the store.
type Server struct {
	config    Config
	bridge    *bridge.Bridge
	store     *history.Store
	hub       *events.Hub
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a new API server instance. store may be nil when history is
// disabled.
func New(config Config, b *bridge.Bridge, store *history.Store, logger *slog.Logger) *Server {
	return &Server{
		config:    config,
		bridge:    b,
		store:     store,
		hub:       b.Tasks().Hub(),
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Start starts the HTTP server (blocking)
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute, // SSE clients hold their connection open
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// setupRoutes configures the HTTP router
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Unauthenticated ops endpoint.
	r.Get("/healthz", s.handleHealthz)

	// Protected API.
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/documents/format", s.handleFormat)
		r.Post("/documents/minify", s.handleMinify)
		r.Post("/documents/validate", s.handleValidate)
		r.Post("/documents/render", s.handleRender)
		r.Get("/queue", s.handleGetQueue)
		r.Delete("/queue", s.handleClearQueue)
		r.Get("/history", s.handleListHistory)
		r.Post("/history", s.handleSaveHistory)
		r.Delete("/history", s.handleClearHistory)
		r.Get("/history/{entryID}", s.handleGetHistory)
		r.Delete("/history/{entryID}", s.handleDeleteHistory)
		r.Get("/events", s.handleEvents)
	})

	return r
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
