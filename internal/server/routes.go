package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api/tenants/:tenant")

	// Broadcast-triggering routes are rate limited per tenant.
	api.POST("/broadcast/test", s.handleBroadcastTest, s.rateLimit)
	api.POST("/tournament/start", s.handleTournamentStart, s.rateLimit)
	api.POST("/tournament/pickup", s.handleTournamentPickup, s.rateLimit)
	api.POST("/adtimer/start", s.handleAdTimerStart, s.rateLimit)

	api.POST("/adtimer/stop", s.handleAdTimerStop)
	api.GET("/adtimer", s.handleAdTimerStatus)

	api.POST("/chatreader/start", s.handleChatReaderStart)
	api.POST("/chatreader/stop", s.handleChatReaderStop)
	api.GET("/chatreader", s.handleChatReaderStatus)
	api.GET("/chatreader/logs", s.handleChatReaderLogs)

	api.GET("/config", s.handleGetConfig)
	api.PUT("/config", s.handleSaveConfig)
}
