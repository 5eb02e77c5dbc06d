package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamhaus/chatbridge/internal/domain"
)

// ToolsConfigRepo reads and writes per-tenant tools config blobs.
// The core treats the blob as opaque JSON; parsing happens in domain.
type ToolsConfigRepo struct {
	pool *pgxpool.Pool
}

func NewToolsConfigRepo(pool *pgxpool.Pool) *ToolsConfigRepo {
	return &ToolsConfigRepo{pool: pool}
}

// Get returns the stored config blob for a tenant, or nil when no row
// exists. Absence is not an error: a tenant without a config simply has
// zero destinations.
func (r *ToolsConfigRepo) Get(ctx context.Context, tenant domain.TenantID) ([]byte, error) {
	var blob []byte
	err := r.pool.QueryRow(ctx,
		`SELECT config FROM tools_configs WHERE tenant_id = $1`,
		tenant.String(),
	).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tools config: %w", err)
	}
	return blob, nil
}

// Upsert stores the config blob for a tenant, replacing any previous one.
func (r *ToolsConfigRepo) Upsert(ctx context.Context, tenant domain.TenantID, blob []byte) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tools_configs (tenant_id, config, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (tenant_id) DO UPDATE SET config = $2, updated_at = now()`,
		tenant.String(), blob,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert tools config: %w", err)
	}
	return nil
}
