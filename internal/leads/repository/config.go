package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gymflow_backend/platform/apperr"
)

func (r *Postgres) GetScoringConfigJSON(ctx context.Context, organizationID uuid.UUID) ([]byte, error) {
	const query = `SELECT scoring_config FROM organization_settings WHERE organization_id = $1`

	var raw []byte
	err := r.pool.QueryRow(ctx, query, organizationID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("scoring configuration not found")
		}
		return nil, fmt.Errorf("get scoring config: %w", err)
	}
	return raw, nil
}

func (r *Postgres) UpsertScoringConfigJSON(ctx context.Context, organizationID uuid.UUID, raw []byte) error {
	const query = `
		INSERT INTO organization_settings (organization_id, scoring_config, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (organization_id) DO UPDATE SET
			scoring_config = EXCLUDED.scoring_config,
			updated_at = now()`

	if _, err := r.pool.Exec(ctx, query, organizationID, raw); err != nil {
		return fmt.Errorf("upsert scoring config: %w", err)
	}
	return nil
}
