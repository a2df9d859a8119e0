package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gymflow_backend/platform/apperr"
)

// Postgres implements Repository on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var _ Repository = (*Postgres)(nil)

func (r *Postgres) GetLead(ctx context.Context, organizationID, leadID uuid.UUID) (Lead, error) {
	const query = `
		SELECT id, organization_id, name, email, phone, source, metadata, lead_score, created_at, updated_at
		FROM leads
		WHERE id = $1 AND organization_id = $2`

	var lead Lead
	err := r.pool.QueryRow(ctx, query, leadID, organizationID).Scan(
		&lead.ID,
		&lead.OrganizationID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Source,
		&lead.Metadata,
		&lead.LeadScore,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound("lead not found")
		}
		return Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

func (r *Postgres) ListLeadsByScoreRange(ctx context.Context, organizationID uuid.UUID, minScore, maxScore int) ([]Lead, error) {
	const query = `
		SELECT id, organization_id, name, email, phone, source, metadata, lead_score, created_at, updated_at
		FROM leads
		WHERE organization_id = $1 AND lead_score >= $2 AND lead_score <= $3
		ORDER BY lead_score DESC, updated_at DESC`

	rows, err := r.pool.Query(ctx, query, organizationID, minScore, maxScore)
	if err != nil {
		return nil, fmt.Errorf("list leads by score range: %w", err)
	}
	defer rows.Close()

	return scanLeads(rows)
}

func (r *Postgres) ListLeadIDs(ctx context.Context, organizationID uuid.UUID) ([]uuid.UUID, error) {
	const query = `SELECT id FROM leads WHERE organization_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list lead ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan lead id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lead ids: %w", err)
	}
	return ids, nil
}

func scanLeads(rows pgx.Rows) ([]Lead, error) {
	var leads []Lead
	for rows.Next() {
		var lead Lead
		if err := rows.Scan(
			&lead.ID,
			&lead.OrganizationID,
			&lead.Name,
			&lead.Email,
			&lead.Phone,
			&lead.Source,
			&lead.Metadata,
			&lead.LeadScore,
			&lead.CreatedAt,
			&lead.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}
