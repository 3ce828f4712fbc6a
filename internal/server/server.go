package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/ternarybob/responsa/internal/app"
)

// Server manages the HTTP server and routes
type Server struct {
	app        *app.App
	router     *http.ServeMux
	server     *http.Server
	askLimiter *rate.Limiter
}

// New creates a new HTTP server with the given app
func New(application *app.App) *Server {
	s := &Server{
		app: application,
	}

	// Token bucket for the ask endpoint: completions are the expensive
	// resource, the rest of the API is cheap
	perMinute := application.Config.API.RateLimitPerMinute
	burst := application.Config.API.RateLimitBurst
	if perMinute > 0 {
		if burst <= 0 {
			burst = 1
		}
		s.askLimiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst)
	}

	// Setup routes
	s.router = s.setupRoutes()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", application.Config.Server.Host, application.Config.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.withConditionalMiddleware(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // Answer generation can be slow
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.app.Config.Server.Host, s.app.Config.Server.Port)

	s.app.Logger.Info().
		Str("address", addr).
		Str("collection", s.app.Config.Qdrant.Collection).
		Msg("HTTP server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.app.Logger.Info().Msg("Shutting down HTTP server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.app.Logger.Info().Msg("HTTP server stopped")
	return nil
}
