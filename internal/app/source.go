package app

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/streamhaus/chatbridge/internal/domain"
	apperrors "github.com/streamhaus/chatbridge/internal/errors"
)

// BlobStore reads stored tools config blobs. Implemented by the Postgres
// repository, optionally fronted by the Redis read-through cache.
type BlobStore interface {
	Get(ctx context.Context, tenant domain.TenantID) ([]byte, error)
}

// ConfigSource turns stored blobs into parsed ToolsConfig values. Concurrent
// lookups for the same tenant (overlapping broadcasts, timer firings)
// collapse into one store read via singleflight.
type ConfigSource struct {
	blobs BlobStore
	group singleflight.Group
}

func NewConfigSource(blobs BlobStore) *ConfigSource {
	return &ConfigSource{blobs: blobs}
}

// GetToolsConfig resolves the tenant's config. Absent and malformed blobs
// parse to the zero config; only store failures are errors.
func (s *ConfigSource) GetToolsConfig(ctx context.Context, tenant domain.TenantID) (domain.ToolsConfig, error) {
	v, err, _ := s.group.Do(tenant.String(), func() (any, error) {
		blob, err := s.blobs.Get(ctx, tenant)
		if err != nil {
			return nil, apperrors.InternalError("failed to read tools config", err).
				WithField("tenant_id", tenant.String())
		}
		return domain.ParseToolsConfig(blob), nil
	})
	if err != nil {
		return domain.ToolsConfig{}, err
	}
	return v.(domain.ToolsConfig), nil
}
