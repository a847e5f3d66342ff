// Package server is the HTTP surface of the coordinator: the control
// endpoints a front end drives (queue toggles, execute), read-side
// portfolio/queue state, session rotation, health, and Prometheus metrics.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/forcepush/tradedesk/internal/auth"
	"github.com/forcepush/tradedesk/internal/executor"
	"github.com/forcepush/tradedesk/internal/portfolio"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port   int
	APIKey string // if empty, authentication is disabled
}

// Server is the coordinator's HTTP API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered.
func NewServer(
	cfg Config,
	coord *executor.Coordinator,
	store *portfolio.Store,
	sessions *auth.S3Provider,
	logger *slog.Logger,
) *Server {
	h := &handlers{
		coord:    coord,
		store:    store,
		sessions: sessions,
		logger:   logger.With(slog.String("component", "server")),
	}

	mux := http.NewServeMux()

	// Health and metrics (no auth required).
	mux.HandleFunc("GET /api/health", h.health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Read side.
	mux.HandleFunc("GET /api/portfolio/{variant}", h.listHoldings)
	mux.HandleFunc("GET /api/queue", h.queueState)

	// Control side.
	mux.HandleFunc("POST /api/queue/{symbol}/toggle", h.toggle)
	mux.HandleFunc("POST /api/execute", h.execute)
	mux.HandleFunc("POST /api/sessions/{variant}", h.rotateSession)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      withAuth(cfg.APIKey, mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger.With(slog.String("component", "server")),
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests
// within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// withAuth requires the X-API-Key header on every route except health and
// metrics. A configured empty key disables authentication.
func withAuth(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/health", "/metrics":
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("X-API-Key") != apiKey {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
