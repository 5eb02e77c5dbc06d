// Package app is the application layer - the only package that references
// multiple components. It orchestrates every exposed operation.
package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/streamhaus/chatbridge/internal/domain"
	apperrors "github.com/streamhaus/chatbridge/internal/errors"
)

// readerRegistry is the chat reader surface the service needs.
type readerRegistry interface {
	Start(ctx context.Context, tenant domain.TenantID, auth domain.ChatAuth, channels []string) (domain.ReaderStatus, error)
	Stop(tenant domain.TenantID) bool
	Status(tenant domain.TenantID) domain.ReaderStatus
	Logs(tenant domain.TenantID, limit int) []domain.LogEntry
}

// announcementScheduler is the job scheduling surface the service needs.
type announcementScheduler interface {
	StartAdTimer(ctx context.Context, tenant domain.TenantID, intervalMinutes int, message string) (domain.BroadcastResult, error)
	StopAdTimer(tenant domain.TenantID) bool
	AdTimerStatus(tenant domain.TenantID) domain.AdTimerStatus
	StartTournament(ctx context.Context, tenant domain.TenantID, title string, pickupAfterMinutes int) (domain.TournamentStartResult, error)
	Pickup(ctx context.Context, tenant domain.TenantID, message string) (domain.BroadcastResult, error)
}

// ConfigRepository persists raw tools config blobs.
type ConfigRepository interface {
	Get(ctx context.Context, tenant domain.TenantID) ([]byte, error)
	Upsert(ctx context.Context, tenant domain.TenantID, blob []byte) error
}

// CacheInvalidator drops a tenant's cached config after a write. Nil when no
// cache layer is configured.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, tenant domain.TenantID) error
}

type Service struct {
	configs     domain.ToolsSource
	broadcaster domain.Broadcaster
	readers     readerRegistry
	scheduler   announcementScheduler
	repo        ConfigRepository
	invalidator CacheInvalidator
}

func NewService(configs domain.ToolsSource, broadcaster domain.Broadcaster, readers readerRegistry, scheduler announcementScheduler, repo ConfigRepository, invalidator CacheInvalidator) *Service {
	return &Service{
		configs:     configs,
		broadcaster: broadcaster,
		readers:     readers,
		scheduler:   scheduler,
		repo:        repo,
		invalidator: invalidator,
	}
}

// BroadcastTest sends a one-off message to every configured destination.
func (s *Service) BroadcastTest(ctx context.Context, tenant domain.TenantID, message string) (domain.BroadcastResult, error) {
	if strings.TrimSpace(message) == "" {
		return domain.BroadcastResult{}, apperrors.ValidationError("message is empty")
	}
	return s.broadcaster.Broadcast(ctx, tenant, message)
}

func (s *Service) TournamentStart(ctx context.Context, tenant domain.TenantID, title string, pickupAfterMinutes int) (domain.TournamentStartResult, error) {
	return s.scheduler.StartTournament(ctx, tenant, title, pickupAfterMinutes)
}

func (s *Service) TournamentPickup(ctx context.Context, tenant domain.TenantID, message string) (domain.BroadcastResult, error) {
	return s.scheduler.Pickup(ctx, tenant, message)
}

func (s *Service) AdTimerStart(ctx context.Context, tenant domain.TenantID, intervalMinutes int, message string) (domain.BroadcastResult, error) {
	return s.scheduler.StartAdTimer(ctx, tenant, intervalMinutes, message)
}

func (s *Service) AdTimerStop(tenant domain.TenantID) {
	s.scheduler.StopAdTimer(tenant)
}

func (s *Service) AdTimerStatus(tenant domain.TenantID) domain.AdTimerStatus {
	return s.scheduler.AdTimerStatus(tenant)
}

// ChatReaderStart resolves the tenant's credentials and Twitch channels and
// starts (or replaces) the inbound session.
func (s *Service) ChatReaderStart(ctx context.Context, tenant domain.TenantID) (domain.ReaderStatus, error) {
	cfg, err := s.configs.GetToolsConfig(ctx, tenant)
	if err != nil {
		return domain.ReaderStatus{}, err
	}
	channels := domain.ResolveChannels(cfg)
	return s.readers.Start(ctx, tenant, cfg.ChatAuth, channels.Twitch)
}

func (s *Service) ChatReaderStop(tenant domain.TenantID) {
	s.readers.Stop(tenant)
}

func (s *Service) ChatReaderStatus(tenant domain.TenantID) domain.ReaderStatus {
	return s.readers.Status(tenant)
}

func (s *Service) ChatReaderLogs(tenant domain.TenantID, limit int) []domain.LogEntry {
	return s.readers.Logs(tenant, limit)
}

// GetConfigBlob returns the stored raw config blob, nil when absent.
func (s *Service) GetConfigBlob(ctx context.Context, tenant domain.TenantID) ([]byte, error) {
	blob, err := s.repo.Get(ctx, tenant)
	if err != nil {
		return nil, apperrors.InternalError("failed to read tools config", err).
			WithField("tenant_id", tenant.String())
	}
	return blob, nil
}

// SaveConfigBlob stores a config blob and invalidates the cache so the next
// broadcast sees the new destinations.
func (s *Service) SaveConfigBlob(ctx context.Context, tenant domain.TenantID, blob []byte) error {
	if !json.Valid(blob) {
		return apperrors.ValidationError("config must be valid JSON")
	}
	if err := s.repo.Upsert(ctx, tenant, blob); err != nil {
		return apperrors.InternalError("failed to store tools config", err).
			WithField("tenant_id", tenant.String())
	}
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, tenant); err != nil {
			slog.WarnContext(ctx, "Tools config cache invalidation failed",
				"tenant_id", tenant.String(), "error", err)
		}
	}
	return nil
}
