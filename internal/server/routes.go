package server

import (
	"strings"

	"go.uber.org/zap"

	"github.com/factlens/factlens/internal/config"
	"github.com/factlens/factlens/internal/observability"
	"github.com/factlens/factlens/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes(cfg *config.Config, gw handlers.Gateway, health *handlers.HealthManager) {
	// Gating endpoints
	ask := &handlers.AskHandler{Gateway: gw}
	news := &handlers.NewsHandler{Gateway: gw}
	s.router.Post("/api/ask", ask.ServeHTTP)
	s.router.Get("/api/news", news.ServeHTTP)

	// Standard health endpoints
	if health != nil {
		s.router.Get("/health", health.HealthHandler)
		s.router.Get("/health/live", health.LivenessHandler)
		s.router.Get("/health/ready", health.ReadinessHandler)
		s.router.Get("/health/startup", health.StartupHandler)
	}

	// Version endpoint
	s.router.Get("/version", handlers.VersionHandler)

	// Metrics endpoint (in server package to access HandleError)
	s.router.Get("/metrics", MetricsHandler)

	s.registerAdminEndpoint(cfg, gw)
}

// registerAdminEndpoint registers the store-clearing endpoint. Without a
// configured token it stays open, which only makes sense behind a
// trusted proxy.
func (s *Server) registerAdminEndpoint(cfg *config.Config, gw handlers.Gateway) {
	token := strings.TrimSpace(cfg.Admin.Token)

	clear := &handlers.ClearHandler{Gateway: gw, Token: token}
	s.router.Post("/admin/clear", clear.ServeHTTP)

	logger := observability.ServerLogger
	if logger == nil {
		return
	}
	if token == "" {
		logger.Warn("Admin clear endpoint enabled without token auth - ensure this server is not exposed to public internet",
			zap.String("path", "/admin/clear"))
		return
	}
	logger.Info("Admin clear endpoint enabled",
		zap.String("path", "/admin/clear"),
		zap.String("auth", "bearer token"))
}
