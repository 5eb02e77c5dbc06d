package server

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/streamhaus/chatbridge/internal/domain"
	apperrors "github.com/streamhaus/chatbridge/internal/errors"
)

// maxConfigBlobBytes bounds an uploaded tools config.
const maxConfigBlobBytes = 64 * 1024

func tenantFromPath(c echo.Context) (domain.TenantID, error) {
	tenant := strings.TrimSpace(c.Param("tenant"))
	if tenant == "" {
		return "", apperrors.ValidationError("tenant is required")
	}
	return domain.TenantID(tenant), nil
}

type broadcastTestRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleBroadcastTest(c echo.Context) error {
	tenant, err := tenantFromPath(c)
	if err != nil {
		return err
	}

	var req broadcastTestRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	result, err := s.app.BroadcastTest(c.Request().Context(), tenant, req.Message)
	if err != nil {
		return err
	}
	return respondJSON(c, 200, result)
}

type tournamentStartRequest struct {
	Title              string `json:"title"`
	PickupAfterMinutes int    `json:"pickupAfterMinutes"`
}

func (s *Server) handleTournamentStart(c echo.Context) error {
	tenant, err := tenantFromPath(c)
	if err != nil {
		return err
	}

	var req tournamentStartRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	result, err := s.app.TournamentStart(c.Request().Context(), tenant, req.Title, req.PickupAfterMinutes)
	if err != nil {
		return err
	}
	return respondJSON(c, 200, result)
}

type tournamentPickupRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleTournamentPickup(c echo.Context) error {
	tenant, err := tenantFromPath(c)
	if err != nil {
		return err
	}

	var req tournamentPickupRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	result, err := s.app.TournamentPickup(c.Request().Context(), tenant, req.Message)
	if err != nil {
		return err
	}
	return respondJSON(c, 200, result)
}

type adTimerStartRequest struct {
	IntervalMinutes int    `json:"intervalMinutes"`
	Message         string `json:"message"`
}

func (s *Server) handleAdTimerStart(c echo.Context) error {
	tenant, err := tenantFromPath(c)
	if err != nil {
		return err
	}

	var req adTimerStartRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	result, err := s.app.AdTimerStart(c.Request().Context(), tenant, req.IntervalMinutes, req.Message)
	if err != nil {
		return err
	}
	return respondJSON(c, 200, map[string]any{"running": true, "initialSend": result})
}

func (s *Server) handleAdTimerStop(c echo.Context) error {
	tenant, err := tenantFromPath(c)
	if err != nil {
		return err
	}

	s.app.AdTimerStop(tenant)
	return respondJSON(c, 200, map[string]bool{"running": false})
}

func (s *Server) handleAdTimerStatus(c echo.Context) error {
	tenant, err := tenantFromPath(c)
	if err != nil {
		return err
	}
	return respondJSON(c, 200, s.app.AdTimerStatus(tenant))
}

func (s *Server) handleChatReaderStart(c echo.Context) error {
	tenant, err := tenantFromPath(c)
	if err != nil {
		return err
	}

	status, err := s.app.ChatReaderStart(c.Request().Context(), tenant)
	if err != nil {
		return err
	}
	return respondJSON(c, 200, status)
}

func (s *Server) handleChatReaderStop(c echo.Context) error {
	tenant, err := tenantFromPath(c)
	if err != nil {
		return err
	}

	s.app.ChatReaderStop(tenant)
	return respondJSON(c, 200, map[string]bool{"running": false})
}

func (s *Server) handleChatReaderStatus(c echo.Context) error {
	tenant, err := tenantFromPath(c)
	if err != nil {
		return err
	}
	return respondJSON(c, 200, s.app.ChatReaderStatus(tenant))
}

func (s *Server) handleChatReaderLogs(c echo.Context) error {
	tenant, err := tenantFromPath(c)
	if err != nil {
		return err
	}

	limit := domain.MaxReaderLogEntries
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return apperrors.ValidationError("limit must be an integer").WithField("limit", raw)
		}
		limit = parsed
	}

	entries := s.app.ChatReaderLogs(tenant, limit)
	if entries == nil {
		entries = []domain.LogEntry{}
	}
	return respondJSON(c, 200, entries)
}

func (s *Server) handleGetConfig(c echo.Context) error {
	tenant, err := tenantFromPath(c)
	if err != nil {
		return err
	}

	blob, err := s.app.GetConfigBlob(c.Request().Context(), tenant)
	if err != nil {
		return err
	}
	if blob == nil {
		blob = []byte("{}")
	}
	return c.JSONBlob(200, blob)
}

func (s *Server) handleSaveConfig(c echo.Context) error {
	tenant, err := tenantFromPath(c)
	if err != nil {
		return err
	}

	blob, err := io.ReadAll(io.LimitReader(c.Request().Body, maxConfigBlobBytes+1))
	if err != nil {
		return apperrors.ValidationError("failed to read request body")
	}
	if len(blob) > maxConfigBlobBytes {
		return apperrors.ValidationError("config exceeds maximum size")
	}

	if err := s.app.SaveConfigBlob(c.Request().Context(), tenant, blob); err != nil {
		return err
	}
	return respondJSON(c, 200, map[string]string{"status": "ok"})
}

func respondJSON(c echo.Context, status int, body any) error {
	if err := c.JSON(status, body); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
