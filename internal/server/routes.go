package server

import (
	"github.com/fulmenhq/gofulmen/signals"
	"go.uber.org/zap"

	"github.com/promptlens/promptlens/internal/observability"
	"github.com/promptlens/promptlens/internal/server/handlers"
)

// AdminTokenEnv names the variable that enables the admin signal endpoint.
const AdminTokenEnv = "PROMPTLENS_ADMIN_TOKEN"

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	if hm := s.opts.Health; hm != nil {
		s.router.Get("/health", hm.HealthHandler)
		s.router.Get("/health/live", hm.LivenessHandler)
		s.router.Get("/health/ready", hm.ReadinessHandler)
		s.router.Get("/health/startup", hm.StartupHandler)
	} else {
		s.router.Get("/health", handlers.HealthHandler)
		s.router.Get("/health/live", handlers.LivenessHandler)
		s.router.Get("/health/ready", handlers.ReadinessHandler)
		s.router.Get("/health/startup", handlers.StartupHandler)
	}

	s.router.Get("/version", handlers.VersionHandler)

	// Metrics endpoint (in server package to access HandleError)
	s.router.Get("/metrics", MetricsHandler)

	if s.opts.Prompts != nil {
		s.opts.Prompts.Mount(s.router)
	}

	s.registerAdminEndpoint()
}

// registerAdminEndpoint registers the admin signal endpoint when a token is configured
func (s *Server) registerAdminEndpoint() {
	logger := observability.ServerLogger

	if s.opts.AdminToken == "" {
		logger.Debug("Admin signal endpoint disabled (no " + AdminTokenEnv + " set)")
		return
	}

	// Bearer token auth with rate limiting on the default signal manager
	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: s.opts.AdminToken,
		RateLimit: 10,
		RateBurst: 5,
		Manager:   nil,
	})

	s.router.Post("/admin/signal", handler.ServeHTTP)

	logger.Info("Admin signal endpoint enabled",
		zap.String("path", "/admin/signal"),
		zap.String("auth", "bearer token"),
		zap.String("rate_limit", "10/min, burst 5"))
	logger.Warn("Admin endpoint enabled - ensure this server is not exposed to public internet")
}
