package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (r *Postgres) InsertActivity(ctx context.Context, activity NewActivity) (LeadActivity, error) {
	const query = `
		INSERT INTO lead_activities (id, lead_id, organization_id, activity_type, activity_value, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, lead_id, organization_id, activity_type, activity_value, metadata, created_at`

	value := float64(0)
	if activity.ActivityValue != nil {
		value = *activity.ActivityValue
	}

	var out LeadActivity
	err := r.pool.QueryRow(ctx, query,
		uuid.New(),
		activity.LeadID,
		activity.OrganizationID,
		activity.ActivityType,
		value,
		activity.Metadata,
	).Scan(
		&out.ID,
		&out.LeadID,
		&out.OrganizationID,
		&out.ActivityType,
		&out.ActivityValue,
		&out.Metadata,
		&out.CreatedAt,
	)
	if err != nil {
		return LeadActivity{}, fmt.Errorf("insert activity: %w", err)
	}
	return out, nil
}

// InsertActivities writes the whole batch in one round trip. The batch runs
// inside a transaction so a mid-batch failure inserts nothing.
func (r *Postgres) InsertActivities(ctx context.Context, activities []NewActivity) (int, error) {
	if len(activities) == 0 {
		return 0, nil
	}

	const query = `
		INSERT INTO lead_activities (id, lead_id, organization_id, activity_type, activity_value, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)`

	batch := &pgx.Batch{}
	for _, activity := range activities {
		value := float64(0)
		if activity.ActivityValue != nil {
			value = *activity.ActivityValue
		}
		batch.Queue(query,
			uuid.New(),
			activity.LeadID,
			activity.OrganizationID,
			activity.ActivityType,
			value,
			activity.Metadata,
		)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin insert activities: %w", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("insert activity batch: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close activity batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit insert activities: %w", err)
	}
	return batch.Len(), nil
}

func (r *Postgres) ListLeadActivities(ctx context.Context, organizationID, leadID uuid.UUID) ([]LeadActivity, error) {
	const query = `
		SELECT id, lead_id, organization_id, activity_type, activity_value, metadata, created_at
		FROM lead_activities
		WHERE organization_id = $1 AND lead_id = $2
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, organizationID, leadID)
	if err != nil {
		return nil, fmt.Errorf("list lead activities: %w", err)
	}
	defer rows.Close()

	var activities []LeadActivity
	for rows.Next() {
		var a LeadActivity
		if err := rows.Scan(&a.ID, &a.LeadID, &a.OrganizationID, &a.ActivityType, &a.ActivityValue, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lead activity: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lead activities: %w", err)
	}
	return activities, nil
}
