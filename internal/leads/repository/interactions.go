package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

func (r *Postgres) ListLeadInteractions(ctx context.Context, organizationID, leadID uuid.UUID) ([]Interaction, error) {
	const query = `
		SELECT id, lead_id, organization_id, direction, channel, occurred_at
		FROM interactions
		WHERE organization_id = $1 AND lead_id = $2
		ORDER BY occurred_at DESC`

	rows, err := r.pool.Query(ctx, query, organizationID, leadID)
	if err != nil {
		return nil, fmt.Errorf("list lead interactions: %w", err)
	}
	defer rows.Close()

	var interactions []Interaction
	for rows.Next() {
		var in Interaction
		if err := rows.Scan(&in.ID, &in.LeadID, &in.OrganizationID, &in.Direction, &in.Channel, &in.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		interactions = append(interactions, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return interactions, nil
}
