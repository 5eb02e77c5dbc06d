package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/streamhaus/chatbridge/internal/config"
	"github.com/streamhaus/chatbridge/internal/domain"
	apperrors "github.com/streamhaus/chatbridge/internal/errors"
	"github.com/streamhaus/chatbridge/internal/platform/correlation"
)

// appService is the application surface the HTTP layer needs.
type appService interface {
	BroadcastTest(ctx context.Context, tenant domain.TenantID, message string) (domain.BroadcastResult, error)
	TournamentStart(ctx context.Context, tenant domain.TenantID, title string, pickupAfterMinutes int) (domain.TournamentStartResult, error)
	TournamentPickup(ctx context.Context, tenant domain.TenantID, message string) (domain.BroadcastResult, error)
	AdTimerStart(ctx context.Context, tenant domain.TenantID, intervalMinutes int, message string) (domain.BroadcastResult, error)
	AdTimerStop(tenant domain.TenantID)
	AdTimerStatus(tenant domain.TenantID) domain.AdTimerStatus
	ChatReaderStart(ctx context.Context, tenant domain.TenantID) (domain.ReaderStatus, error)
	ChatReaderStop(tenant domain.TenantID)
	ChatReaderStatus(tenant domain.TenantID) domain.ReaderStatus
	ChatReaderLogs(tenant domain.TenantID, limit int) []domain.LogEntry
	GetConfigBlob(ctx context.Context, tenant domain.TenantID) ([]byte, error)
	SaveConfigBlob(ctx context.Context, tenant domain.TenantID, blob []byte) error
}

// pinger is the minimal readiness probe for a backing store.
type pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	app       appService
	db        pinger
	cache     pinger
	limiter   *tenantRateLimiter
	startTime time.Time
}

func NewServer(cfg *config.Config, app appService, db pinger, cache pinger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(correlationMiddleware())
	e.Use(requestLoggerMiddleware())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:      e,
		config:    cfg,
		app:       app,
		db:        db,
		cache:     cache,
		limiter:   newTenantRateLimiter(cfg.BroadcastRatePerMinute),
		startTime: time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// correlationMiddleware stamps every request with a correlation ID, reusing
// the caller's X-Request-ID when present.
func correlationMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = correlation.NewID()
			}
			ctx := correlation.WithID(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}

func requestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogMethod: true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.InfoContext(c.Request().Context(), "Request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	})
}
